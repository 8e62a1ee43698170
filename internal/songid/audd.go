package songid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/emmett/rewind/internal/audio"
	"github.com/emmett/rewind/internal/log"
)

// AudDClient recognizes songs with the AudD acoustic fingerprint API.
// One call per trigger: the snapshot is wrapped in a WAV container and
// uploaded, and the service answers with the best match or nothing.
type AudDClient struct {
	config     Config
	format     audio.CaptureConfig
	httpClient *http.Client
}

// NewAudDClient creates a recognition client. format describes the PCM
// layout of the snapshots that will be submitted.
func NewAudDClient(cfg Config, format audio.CaptureConfig) (*AudDClient, error) {
	if cfg.APIToken == "" {
		return nil, fmt.Errorf("songid: api token required (set AUDD_API_TOKEN)")
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultConfig("").Endpoint
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultConfig("").Timeout
	}

	return &AudDClient{
		config: cfg,
		format: format,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// Name identifies the provider
func (c *AudDClient) Name() string {
	return "audd"
}

// auddResponse is the service's JSON envelope
type auddResponse struct {
	Status string     `json:"status"`
	Error  *auddError `json:"error"`
	Result *auddTrack `json:"result"`
}

type auddError struct {
	ErrorCode    int    `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

type auddTrack struct {
	Artist      string `json:"artist"`
	Title       string `json:"title"`
	Album       string `json:"album"`
	ReleaseDate string `json:"release_date"`
	Label       string `json:"label"`
	Timecode    string `json:"timecode"`
	SongLink    string `json:"song_link"`
}

// Recognize uploads the snapshot and returns the best match
func (c *AudDClient) Recognize(ctx context.Context, pcm []byte) (*Match, error) {
	wavData, err := audio.EncodeWAV(pcm, c.format)
	if err != nil {
		return nil, fmt.Errorf("songid: failed to encode snapshot: %w", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("api_token", c.config.APIToken); err != nil {
		return nil, fmt.Errorf("songid: failed to build request: %w", err)
	}
	if err := mw.WriteField("return", "timecode,song_link"); err != nil {
		return nil, fmt.Errorf("songid: failed to build request: %w", err)
	}

	fw, err := mw.CreateFormFile("file", "snapshot.wav")
	if err != nil {
		return nil, fmt.Errorf("songid: failed to build request: %w", err)
	}
	if _, err := fw.Write(wavData); err != nil {
		return nil, fmt.Errorf("songid: failed to build request: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("songid: failed to build request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("songid: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	log.Debug("submitting snapshot for recognition",
		"provider", c.Name(), "bytes", len(wavData))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("songid: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("songid: service returned %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("songid: failed to read response: %w", err)
	}

	var parsed auddResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("songid: invalid response: %w", err)
	}

	if parsed.Status == "error" {
		if parsed.Error != nil {
			return nil, fmt.Errorf("songid: service error %d: %s",
				parsed.Error.ErrorCode, parsed.Error.ErrorMessage)
		}
		return nil, fmt.Errorf("songid: service reported an error")
	}

	if parsed.Result == nil {
		return nil, ErrNoMatch
	}

	return &Match{
		Artist:      parsed.Result.Artist,
		Title:       parsed.Result.Title,
		Album:       parsed.Result.Album,
		ReleaseDate: parsed.Result.ReleaseDate,
		Label:       parsed.Result.Label,
		Timecode:    parsed.Result.Timecode,
		SongLink:    parsed.Result.SongLink,
	}, nil
}
