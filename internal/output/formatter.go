package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/emmett/rewind/internal/video"
)

// MatchResult is one identification outcome ready for display
type MatchResult struct {
	Index        int           `json:"index"`
	Found        bool          `json:"found"`
	Artist       string        `json:"artist,omitempty"`
	Title        string        `json:"title,omitempty"`
	Album        string        `json:"album,omitempty"`
	ReleaseDate  string        `json:"release_date,omitempty"`
	Label        string        `json:"label,omitempty"`
	Timecode     string        `json:"timecode,omitempty"`
	SongLink     string        `json:"song_link,omitempty"`
	SnapshotPath string        `json:"snapshot_path,omitempty"`
	RecognizedAt time.Time     `json:"recognized_at"`
	ElapsedMs    int64         `json:"elapsed_ms"`
	Videos       []video.Video `json:"videos,omitempty"`
}

// Song returns "Artist - Title" for display
func (m MatchResult) Song() string {
	if m.Artist == "" {
		return m.Title
	}
	return fmt.Sprintf("%s - %s", m.Artist, m.Title)
}

// Event represents a system event
type Event struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Formatter is the interface for output formatters
type Formatter interface {
	// WriteMatch writes an identification outcome
	WriteMatch(result MatchResult) error

	// WriteEvent writes a system event (e.g., listener state changes)
	WriteEvent(eventType, message string) error

	// Flush ensures all buffered output is written
	Flush() error

	// Close closes the formatter and releases resources
	Close() error
}

// JSONFormatter outputs identification results in JSON format
type JSONFormatter struct {
	writer  io.Writer
	encoder *json.Encoder
	results []MatchResult
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(writer io.Writer) *JSONFormatter {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")

	return &JSONFormatter{
		writer:  writer,
		encoder: encoder,
		results: make([]MatchResult, 0),
	}
}

// WriteMatch writes an identification outcome in JSON format
func (j *JSONFormatter) WriteMatch(result MatchResult) error {
	if result.Found {
		j.results = append(j.results, result)
	}
	return j.encoder.Encode(result)
}

// WriteEvent writes a system event
func (j *JSONFormatter) WriteEvent(eventType, message string) error {
	event := Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now(),
	}
	return j.encoder.Encode(event)
}

// Flush ensures all buffered output is written
func (j *JSONFormatter) Flush() error {
	// JSON encoder writes immediately, nothing to flush
	return nil
}

// Close closes the formatter
func (j *JSONFormatter) Close() error {
	return nil
}

// GetResults returns all successful identifications so far
func (j *JSONFormatter) GetResults() []MatchResult {
	return j.results
}

// PlainTextFormatter outputs identification results as readable text
type PlainTextFormatter struct {
	writer io.Writer
}

// NewPlainTextFormatter creates a new plain text formatter
func NewPlainTextFormatter(writer io.Writer) *PlainTextFormatter {
	return &PlainTextFormatter{
		writer: writer,
	}
}

// WriteMatch writes an identification outcome in plain text
func (p *PlainTextFormatter) WriteMatch(result MatchResult) error {
	timestamp := result.RecognizedAt.Format("15:04:05")

	if !result.Found {
		_, err := fmt.Fprintf(p.writer, "[%s] no match (%dms)\n", timestamp, result.ElapsedMs)
		return err
	}

	if _, err := fmt.Fprintf(p.writer, "[%s] %s\n", timestamp, result.Song()); err != nil {
		return err
	}
	if result.Album != "" {
		release := result.Album
		if result.ReleaseDate != "" {
			release += ", " + result.ReleaseDate
		}
		if result.Label != "" {
			release += ", " + result.Label
		}
		fmt.Fprintf(p.writer, "  album:   %s\n", release)
	}
	if result.Timecode != "" {
		fmt.Fprintf(p.writer, "  matched: at %s (%dms)\n", result.Timecode, result.ElapsedMs)
	}
	if result.SongLink != "" {
		fmt.Fprintf(p.writer, "  link:    %s\n", result.SongLink)
	}
	if result.SnapshotPath != "" {
		fmt.Fprintf(p.writer, "  saved:   %s\n", result.SnapshotPath)
	}
	for i, v := range result.Videos {
		fmt.Fprintf(p.writer, "  video %d: %s\n           %s\n", i+1, v.Title, v.URL)
	}
	return nil
}

// WriteEvent writes a system event
func (p *PlainTextFormatter) WriteEvent(eventType, message string) error {
	timestamp := time.Now().Format("15:04:05")
	_, err := fmt.Fprintf(p.writer, "[%s] [%s] %s\n", timestamp, eventType, message)
	return err
}

// Flush ensures all buffered output is written
func (p *PlainTextFormatter) Flush() error {
	return nil
}

// Close closes the formatter
func (p *PlainTextFormatter) Close() error {
	return nil
}
