package vcs

// ProviderType identifies the kind of version control system an instance runs.
type ProviderType string

const (
	ProviderAzureDevOps  ProviderType = "AZURE_DEVOPS"
	ProviderBitbucket    ProviderType = "BITBUCKET"
	ProviderGitHubPublic ProviderType = "GITHUB_PUBLIC"
)

func (p ProviderType) String() string {
	return string(p)
}

func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderAzureDevOps, ProviderBitbucket, ProviderGitHubPublic:
		return true
	default:
		return false
	}
}

// AllProviderTypes returns the closed set of supported provider types.
func AllProviderTypes() []ProviderType {
	return []ProviderType{ProviderAzureDevOps, ProviderBitbucket, ProviderGitHubPublic}
}

// ParseProviderType parses a provider type string.
func ParseProviderType(s string) (ProviderType, error) {
	p := ProviderType(s)
	if !p.IsValid() {
		return "", ErrInvalidProviderType
	}
	return p, nil
}
