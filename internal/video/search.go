package video

import (
	"context"
	"time"
)

// Video is one result from a video platform search
type Video struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Channel     string `json:"channel,omitempty"`
	URL         string `json:"url"`
	PublishedAt string `json:"published_at,omitempty"`
}

// Searcher is the interface for video platform lookups
type Searcher interface {
	// Search returns up to limit videos matching the query. A limit
	// of zero or less falls back to the configured maximum.
	Search(ctx context.Context, query string, limit int) ([]Video, error)

	// Name identifies the platform
	Name() string
}

// Config holds video search configuration
type Config struct {
	// APIKey authenticates with the video platform
	APIKey string

	// Region biases results, as an ISO 3166-1 alpha-2 code.
	// Empty leaves the platform default.
	Region string

	// MaxResults caps how many videos a search returns
	MaxResults int

	// CacheTTL is how long query results are reused before the
	// platform is asked again
	CacheTTL time.Duration

	// Endpoint overrides the platform API base URL
	Endpoint string
}

// DefaultConfig returns a configuration for the YouTube Data API
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		MaxResults: 3,
		CacheTTL:   15 * time.Minute,
	}
}
