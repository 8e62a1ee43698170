package grpc

import (
	"context"
	"sync"
	"time"

	"github.com/emmett/rewind/internal/app"
)

// readyTimeout bounds how long a request waits for the listener to
// finish warming up.
const readyTimeout = 30 * time.Second

// IdentifyService implements the gRPC listener service
type IdentifyService struct {
	listener *app.Listener
	mu       sync.Mutex
}

// NewIdentifyService creates a new identify service
func NewIdentifyService(listener *app.Listener) *IdentifyService {
	return &IdentifyService{listener: listener}
}

// IdentifyRequest asks for an identification of the buffered audio
type IdentifyRequest struct{}

// VideoLink is one video hit for a match
type VideoLink struct {
	Title   string
	Channel string
	Url     string
}

// IdentifyResponse carries the outcome of one identification
type IdentifyResponse struct {
	Found       bool
	Artist      string
	Title       string
	Album       string
	ReleaseDate string
	Label       string
	Timecode    string
	SongLink    string
	ElapsedMs   int64
	Videos      []*VideoLink
}

// StatusRequest asks for the listener status
type StatusRequest struct{}

// StatusResponse describes the listener state
type StatusResponse struct {
	State           string
	BufferFill      float64
	BytesCaptured   uint64
	Identifications int64
	Routed          bool
	Source          string
	OriginalInput   string
	UptimeSeconds   int64

	// LastAudioMs is how long ago the last chunk arrived, in
	// milliseconds. -1 before any audio has been captured.
	LastAudioMs int64
}

// Identify snapshots the buffer and identifies it. Requests are
// serialized; a no-match comes back with Found false rather than an
// error.
// This will be updated to use generated proto types once protoc runs
func (s *IdentifyService) Identify(ctx context.Context, req *IdentifyRequest) (*IdentifyResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.listener.WaitReady(ctx, readyTimeout); err != nil {
		return nil, err
	}

	ident, err := s.listener.IdentifyNow(ctx)
	if err != nil {
		return nil, err
	}

	return identifyResponse(ident), nil
}

// Status reports the listener state
func (s *IdentifyService) Status(ctx context.Context, req *StatusRequest) (*StatusResponse, error) {
	return statusResponse(s.listener.Status()), nil
}

// Close shuts the listener down
func (s *IdentifyService) Close() {
	s.listener.Shutdown()
}

func identifyResponse(ident *app.Identification) *IdentifyResponse {
	resp := &IdentifyResponse{
		Found:     ident.Found,
		ElapsedMs: ident.Elapsed.Milliseconds(),
	}
	if ident.Match != nil {
		resp.Artist = ident.Match.Artist
		resp.Title = ident.Match.Title
		resp.Album = ident.Match.Album
		resp.ReleaseDate = ident.Match.ReleaseDate
		resp.Label = ident.Match.Label
		resp.Timecode = ident.Match.Timecode
		resp.SongLink = ident.Match.SongLink
	}
	for _, v := range ident.Videos {
		resp.Videos = append(resp.Videos, &VideoLink{
			Title:   v.Title,
			Channel: v.Channel,
			Url:     v.URL,
		})
	}
	return resp
}

func statusResponse(st app.ListenerStatus) *StatusResponse {
	lastAudio := int64(-1)
	if !st.Capture.LastChunk.IsZero() {
		lastAudio = time.Since(st.Capture.LastChunk).Milliseconds()
	}
	return &StatusResponse{
		State:           st.State.String(),
		BufferFill:      st.Capture.BufferFill,
		BytesCaptured:   st.Capture.BytesWritten,
		Identifications: int64(st.Identifications),
		Routed:          st.Routed,
		Source:          st.Source,
		OriginalInput:   st.OriginalInput,
		UptimeSeconds:   int64(st.Uptime.Seconds()),
		LastAudioMs:     lastAudio,
	}
}
