package scanner

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// VCSInstance describes one VCS server the worker can scan, including the
// credentials used to clone from it. The token may reference an environment
// variable via token_env.
type VCSInstance struct {
	Name         string `yaml:"name"`
	ProviderType string `yaml:"provider_type"`
	Hostname     string `yaml:"hostname"`
	Port         int    `yaml:"port"`
	Scheme       string `yaml:"scheme"`
	Organization string `yaml:"organization"`
	Username     string `yaml:"username"`
	Token        string `yaml:"token"`
	TokenEnv     string `yaml:"token_env"`
}

// Credentials resolves the clone credentials for this instance.
func (i VCSInstance) Credentials() Credentials {
	token := i.Token
	if i.TokenEnv != "" {
		token = os.Getenv(i.TokenEnv)
	}
	return Credentials{Username: i.Username, Token: token}
}

// VCSConfig is the worker's YAML configuration of scannable VCS instances.
type VCSConfig struct {
	Instances []VCSInstance `yaml:"vcs_instances"`
}

// Instance returns the named instance.
func (c *VCSConfig) Instance(name string) (VCSInstance, error) {
	for _, instance := range c.Instances {
		if instance.Name == name {
			return instance, nil
		}
	}
	return VCSInstance{}, fmt.Errorf("vcs instance %q not configured", name)
}

// LoadVCSConfig reads the worker's VCS configuration from a YAML file.
func LoadVCSConfig(path string) (*VCSConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vcs config: %w", err)
	}

	var cfg VCSConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse vcs config: %w", err)
	}

	for _, instance := range cfg.Instances {
		if instance.Name == "" {
			return nil, fmt.Errorf("vcs config contains an instance without a name")
		}
	}

	return &cfg, nil
}
