package scanner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeVCSConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vcs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadVCSConfig(t *testing.T) {
	t.Run("valid config", func(t *testing.T) {
		path := writeVCSConfig(t, `
vcs_instances:
  - name: github-prod
    provider_type: GITHUB_PUBLIC
    hostname: github.com
    port: 443
    scheme: https
    organization: acme
    username: scanner-bot
    token_env: GITHUB_TOKEN
  - name: bitbucket-internal
    provider_type: BITBUCKET
    hostname: bitbucket.internal
    port: 7990
    scheme: https
    username: svc-scan
    token: plaintext-token
`)

		cfg, err := LoadVCSConfig(path)

		require.NoError(t, err)
		require.Len(t, cfg.Instances, 2)
		assert.Equal(t, "github-prod", cfg.Instances[0].Name)
		assert.Equal(t, "GITHUB_PUBLIC", cfg.Instances[0].ProviderType)
		assert.Equal(t, 7990, cfg.Instances[1].Port)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadVCSConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeVCSConfig(t, "vcs_instances: [not: {valid")
		_, err := LoadVCSConfig(path)
		assert.Error(t, err)
	})

	t.Run("instance without name rejected", func(t *testing.T) {
		path := writeVCSConfig(t, `
vcs_instances:
  - provider_type: GITHUB_PUBLIC
    hostname: github.com
`)
		_, err := LoadVCSConfig(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "without a name")
	})
}

func TestVCSConfig_Instance(t *testing.T) {
	cfg := &VCSConfig{Instances: []VCSInstance{
		{Name: "github-prod"},
		{Name: "bitbucket-internal"},
	}}

	instance, err := cfg.Instance("bitbucket-internal")
	require.NoError(t, err)
	assert.Equal(t, "bitbucket-internal", instance.Name)

	_, err = cfg.Instance("gitlab")
	assert.Error(t, err)
}

func TestVCSInstance_Credentials(t *testing.T) {
	t.Run("inline token", func(t *testing.T) {
		instance := VCSInstance{Username: "bot", Token: "secret"}

		creds := instance.Credentials()

		assert.Equal(t, "bot", creds.Username)
		assert.Equal(t, "secret", creds.Token)
	})

	t.Run("token_env overrides inline token", func(t *testing.T) {
		t.Setenv("TEST_SCANNER_TOKEN", "from-env")
		instance := VCSInstance{Username: "bot", Token: "inline", TokenEnv: "TEST_SCANNER_TOKEN"}

		creds := instance.Credentials()

		assert.Equal(t, "from-env", creds.Token)
	})

	t.Run("unset token_env yields empty token", func(t *testing.T) {
		instance := VCSInstance{TokenEnv: "TEST_SCANNER_TOKEN_UNSET"}

		creds := instance.Credentials()

		assert.Empty(t, creds.Token)
	})
}
