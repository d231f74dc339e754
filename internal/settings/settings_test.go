package settings

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AGENTCTL_API_KEY", "sk-abc")
	t.Setenv("AGENTCTL_BASE_URL", "")
	t.Setenv("AGENTCTL_TIMEOUT", "")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-abc", s.APIKey)
	assert.Equal(t, DefaultBaseURL, s.BaseURL)
	assert.Equal(t, DefaultTimeout, s.Timeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AGENTCTL_API_KEY", "sk-abc")
	t.Setenv("AGENTCTL_BASE_URL", "https://staging.example.com")
	t.Setenv("AGENTCTL_TIMEOUT", "90")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://staging.example.com", s.BaseURL)
	assert.Equal(t, 90*time.Second, s.Timeout)
}

func TestLoadLegacyKeyName(t *testing.T) {
	t.Setenv("AGENTCTL_API_KEY", "")
	t.Setenv("VAPI_API_KEY", "sk-legacy")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-legacy", s.APIKey)
}

// chdir is a stand-in for t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Errorf("restoring working directory: %v", err)
		}
	})
}

func TestLoadMissingKey(t *testing.T) {
	t.Setenv("AGENTCTL_API_KEY", "")
	t.Setenv("VAPI_API_KEY", "")
	chdir(t, t.TempDir())

	_, err := Load()
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadFromDotenvFile(t *testing.T) {
	t.Setenv("AGENTCTL_API_KEY", "")
	t.Setenv("VAPI_API_KEY", "")
	chdir(t, t.TempDir())

	raw := "# local credentials\nexport AGENTCTL_API_KEY=\"sk-file\"\nAGENTCTL_TIMEOUT=45\n"
	require.NoError(t, os.WriteFile(".env", []byte(raw), 0o600))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-file", s.APIKey)
	assert.Equal(t, 45*time.Second, s.Timeout)
}

func TestEnvironmentWinsOverDotenv(t *testing.T) {
	t.Setenv("AGENTCTL_API_KEY", "sk-env")
	chdir(t, t.TempDir())
	require.NoError(t, os.WriteFile(".env", []byte("AGENTCTL_API_KEY=sk-file\n"), 0o600))

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", s.APIKey)
}
