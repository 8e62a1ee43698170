package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadCredentialsFromEnv(t *testing.T) {
	t.Setenv("AUDD_API_TOKEN", "audd-123")
	t.Setenv("YOUTUBE_API_KEY", "yt-456")
	t.Setenv("REWIND_AUDD_TOKEN", "")
	t.Setenv("REWIND_YOUTUBE_KEY", "")

	creds := LoadCredentials()
	assert.Equal(t, "audd-123", creds.AudDToken)
	assert.Equal(t, "yt-456", creds.YouTubeKey)
	assert.NoError(t, creds.RequireAudD())
}

func TestLoadCredentialsPrefixedOverrides(t *testing.T) {
	t.Setenv("AUDD_API_TOKEN", "generic")
	t.Setenv("REWIND_AUDD_TOKEN", "specific")

	creds := LoadCredentials()
	assert.Equal(t, "specific", creds.AudDToken)
}

func TestRequireAudDMissing(t *testing.T) {
	t.Setenv("AUDD_API_TOKEN", "")
	t.Setenv("REWIND_AUDD_TOKEN", "")

	creds := LoadCredentials()
	assert.Error(t, creds.RequireAudD())
}
