package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Credentials holds the API keys read from the environment
type Credentials struct {
	AudDToken  string
	YouTubeKey string
}

// LoadCredentials reads API keys from the environment, after loading a
// .env file from the working directory when one exists.
func LoadCredentials() Credentials {
	// A missing .env is fine, the variables may be set directly
	_ = godotenv.Load()

	return Credentials{
		AudDToken:  firstEnv("REWIND_AUDD_TOKEN", "AUDD_API_TOKEN"),
		YouTubeKey: firstEnv("REWIND_YOUTUBE_KEY", "YOUTUBE_API_KEY"),
	}
}

// RequireAudD errors when no recognition token is configured
func (c Credentials) RequireAudD() error {
	if c.AudDToken == "" {
		return fmt.Errorf("recognition token missing: set AUDD_API_TOKEN or REWIND_AUDD_TOKEN")
	}
	return nil
}

func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}
