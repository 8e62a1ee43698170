package songid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNoMatch is returned when the recognition service processed the
// audio but found no song in it.
var ErrNoMatch = errors.New("songid: no match found")

// Match is a recognized song
type Match struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album,omitempty"`
	ReleaseDate string `json:"release_date,omitempty"`
	Label       string `json:"label,omitempty"`
	Timecode    string `json:"timecode,omitempty"`
	SongLink    string `json:"song_link,omitempty"`
}

// Query returns a search string suitable for looking the match up on
// a video platform
func (m *Match) Query() string {
	return strings.TrimSpace(strings.TrimSpace(m.Artist) + " " + strings.TrimSpace(m.Title))
}

// String returns "Artist - Title" for display and logging
func (m *Match) String() string {
	if m.Artist == "" {
		return m.Title
	}
	return fmt.Sprintf("%s - %s", m.Artist, m.Title)
}

// Recognizer is the interface for song recognition services
type Recognizer interface {
	// Recognize submits a PCM snapshot and returns the best match.
	// Audio must be in the capture format the client was created
	// with. Returns ErrNoMatch when the service finds nothing.
	Recognize(ctx context.Context, pcm []byte) (*Match, error)

	// Name identifies the provider
	Name() string
}

// Config holds recognition service configuration
type Config struct {
	// APIToken authenticates with the recognition service
	APIToken string

	// Endpoint is the service URL
	Endpoint string

	// Timeout bounds one recognition round trip
	Timeout time.Duration
}

// DefaultConfig returns a configuration for the AudD service
func DefaultConfig(apiToken string) Config {
	return Config{
		APIToken: apiToken,
		Endpoint: "https://api.audd.io/",
		Timeout:  15 * time.Second,
	}
}
