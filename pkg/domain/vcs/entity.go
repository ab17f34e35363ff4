// Package vcs defines version control system instances that scanned
// repositories belong to.
package vcs

import (
	"errors"
	"fmt"

	"github.com/abnamro/repository-scanner/pkg/domain/shared"
)

// ErrInvalidProviderType is returned when a provider type string is unknown.
var ErrInvalidProviderType = errors.New("invalid vcs provider type")

// Instance represents a single VCS deployment (an Azure DevOps organization,
// a Bitbucket server, or public GitHub).
type Instance struct {
	ID           int64
	Name         string
	ProviderType ProviderType
	Hostname     string
	Port         int
	Scheme       string
	Organization string
}

// NewInstance creates a new VCS instance definition.
func NewInstance(name string, providerType ProviderType, hostname string, port int, scheme string) (*Instance, error) {
	if name == "" {
		return nil, shared.NewDomainError("VALIDATION", "name is required", shared.ErrValidation)
	}
	if !providerType.IsValid() {
		return nil, shared.NewDomainError("VALIDATION", "invalid provider_type", shared.ErrValidation)
	}
	if hostname == "" {
		return nil, shared.NewDomainError("VALIDATION", "hostname is required", shared.ErrValidation)
	}
	if port <= 0 || port > 65535 {
		return nil, shared.NewDomainError("VALIDATION", "port must be between 1 and 65535", shared.ErrValidation)
	}
	if scheme != "http" && scheme != "https" {
		return nil, shared.NewDomainError("VALIDATION", "scheme must be http or https", shared.ErrValidation)
	}

	return &Instance{
		Name:         name,
		ProviderType: providerType,
		Hostname:     hostname,
		Port:         port,
		Scheme:       scheme,
	}, nil
}

// BaseURL returns the root URL of the instance.
func (i *Instance) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d", i.Scheme, i.Hostname, i.Port)
}
