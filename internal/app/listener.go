package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emmett/rewind/internal/audio"
	"github.com/emmett/rewind/internal/input"
	"github.com/emmett/rewind/internal/log"
	"github.com/emmett/rewind/internal/output"
	"github.com/emmett/rewind/internal/songid"
	"github.com/emmett/rewind/internal/video"
)

// DefaultSettleDelay is how long the listener waits after switching
// the input device before spawning capture, so the audio stack has
// applied the change.
const DefaultSettleDelay = 1500 * time.Millisecond

// restoreTimeout bounds device restoration at teardown. Teardown runs
// with its own context because the session context is usually already
// cancelled by then.
const restoreTimeout = 5 * time.Second

// staleAfter is how long the buffer may go without a chunk before a
// snapshot is taken from degraded audio.
const staleAfter = 2 * time.Second

// levelRefreshInterval paces the in-place level bar while the listener
// waits for a trigger.
const levelRefreshInterval = 500 * time.Millisecond

// State identifies where the listener is in its lifecycle
type State int

const (
	StateSetup State = iota
	StateRouted
	StateRecording
	StateWarmingUp
	StateAwaitingTrigger
	StateSnapshotting
	StateHandoff
	StateTearingDown
	StateDone
)

func (s State) String() string {
	switch s {
	case StateSetup:
		return "setup"
	case StateRouted:
		return "routed"
	case StateRecording:
		return "recording"
	case StateWarmingUp:
		return "warming_up"
	case StateAwaitingTrigger:
		return "awaiting_trigger"
	case StateSnapshotting:
		return "snapshotting"
	case StateHandoff:
		return "handoff"
	case StateTearingDown:
		return "tearing_down"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}

// ListenerConfig holds configuration for a listening session
type ListenerConfig struct {
	// Audio is the capture format and window size
	Audio audio.CaptureConfig

	// Source is the device the system input is routed to for the
	// session. Empty selects the platform loopback default.
	Source string

	// RouteDisabled skips device routing entirely
	RouteDisabled bool

	// SettleDelay is the pause between routing and capture start.
	// Zero means DefaultSettleDelay, negative means no pause.
	SettleDelay time.Duration

	// SkipWarmUp starts accepting triggers before the buffer has
	// filled once
	SkipWarmUp bool

	// Loop keeps listening after a successful identification
	Loop bool

	// SaveDir, when set, stores a WAV of every snapshot there
	SaveDir string

	// MaxVideos caps the video lookup per match. Zero uses the
	// searcher's own default.
	MaxVideos int
}

// ListenerDeps are the listener's collaborators. Recognizer is
// required. A nil Searcher disables video lookup, a nil Router
// disables device routing, a nil Capturer builds one from the audio
// config.
type ListenerDeps struct {
	Recognizer songid.Recognizer
	Searcher   video.Searcher
	Router     *DeviceRouter
	Capturer   audio.Capturer
	Status     *output.ConsoleOutput
}

// Identification is the outcome of one trigger
type Identification struct {
	Index        int
	Found        bool
	Match        *songid.Match
	Videos       []video.Video
	SnapshotPath string
	TriggeredAt  time.Time
	Elapsed      time.Duration
}

// Result converts the identification for the output formatters
func (id *Identification) Result() output.MatchResult {
	r := output.MatchResult{
		Index:        id.Index,
		Found:        id.Found,
		SnapshotPath: id.SnapshotPath,
		RecognizedAt: id.TriggeredAt,
		ElapsedMs:    id.Elapsed.Milliseconds(),
		Videos:       id.Videos,
	}
	if id.Match != nil {
		r.Artist = id.Match.Artist
		r.Title = id.Match.Title
		r.Album = id.Match.Album
		r.ReleaseDate = id.Match.ReleaseDate
		r.Label = id.Match.Label
		r.Timecode = id.Match.Timecode
		r.SongLink = id.Match.SongLink
	}
	return r
}

// ListenerStatus is a point-in-time view of the listener
type ListenerStatus struct {
	State           State
	Identifications int
	Routed          bool
	Source          string
	OriginalInput   string
	Uptime          time.Duration
	Capture         audio.SessionStatus
}

// Listener orchestrates a listening session: route the system input
// to the capture source, keep the last window of audio in a ring
// buffer, and identify the buffered audio whenever triggered. The
// original input device is restored at teardown no matter which path
// leads there.
type Listener struct {
	config     ListenerConfig
	recognizer songid.Recognizer
	searcher   video.Searcher
	router     *DeviceRouter
	session    *audio.CaptureSession
	statusOut  *output.ConsoleOutput

	mu      sync.Mutex
	state   State
	guard   *RouteGuard
	count   int
	started time.Time

	// identifyMu serializes identifications; concurrent triggers wait
	// their turn instead of racing for the snapshot
	identifyMu   sync.Mutex
	shutdownOnce sync.Once
}

// NewListener creates a listener from its config and collaborators
func NewListener(cfg ListenerConfig, deps ListenerDeps) (*Listener, error) {
	if deps.Recognizer == nil {
		return nil, fmt.Errorf("listener requires a recognizer")
	}
	if cfg.Audio.WindowSeconds <= 0 {
		cfg.Audio = audio.DefaultConfig()
	}
	if cfg.SettleDelay == 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}

	capturer := deps.Capturer
	if capturer == nil {
		var err error
		capturer, err = audio.NewCapturer(cfg.Audio)
		if err != nil {
			return nil, fmt.Errorf("failed to create capturer: %w", err)
		}
	}

	statusOut := deps.Status
	if statusOut == nil {
		statusOut = output.DefaultConsoleOutput()
	}

	ring := audio.NewRingBuffer(cfg.Audio.WindowBytes())

	return &Listener{
		config:     cfg,
		recognizer: deps.Recognizer,
		searcher:   deps.Searcher,
		router:     deps.Router,
		session:    audio.NewCaptureSession(capturer, ring),
		statusOut:  statusOut,
		state:      StateSetup,
	}, nil
}

// Start routes the input device, spawns capture and waits for the
// buffer to fill once. On error the listener has already torn itself
// down, including restoring the input device when it was switched.
func (l *Listener) Start(ctx context.Context) error {
	l.mu.Lock()
	l.started = time.Now()
	l.mu.Unlock()

	if err := l.route(ctx); err != nil {
		l.Shutdown()
		return err
	}

	if err := l.settle(ctx); err != nil {
		l.Shutdown()
		return err
	}

	if err := l.session.Start(ctx); err != nil {
		l.Shutdown()
		return fmt.Errorf("failed to start capture: %w", err)
	}
	l.setState(StateRecording)
	log.Info("capture started",
		"window_seconds", l.config.Audio.WindowSeconds,
		"backend", l.config.Audio.Backend)

	if !l.config.SkipWarmUp {
		l.setState(StateWarmingUp)
		if err := l.warmUp(ctx); err != nil {
			l.Shutdown()
			return err
		}
	}

	l.setState(StateAwaitingTrigger)
	return nil
}

// route switches the system input to the capture source. Only a
// failure to even query the current device is fatal: with no original
// recorded there is nothing to restore and capture would read the
// wrong device silently.
func (l *Listener) route(ctx context.Context) error {
	if l.router == nil || l.config.RouteDisabled {
		l.statusOut.Info("Device routing disabled, capturing from the current input")
		return nil
	}

	source := l.effectiveSource()
	if source == "" {
		l.statusOut.Info("No capture source on this platform, capturing from the current input")
		return nil
	}

	guard, err := l.router.Route(ctx, source)
	if err != nil {
		if guard == nil {
			return err
		}
		// The original is recorded, so teardown can still restore.
		// Capture proceeds from whatever input is live now.
		l.setGuard(guard)
		l.statusOut.Error(fmt.Sprintf("Could not switch input to %q: %v", source, err))
		l.statusOut.Info(fmt.Sprintf("Capturing from %q instead", guard.Original()))
		return nil
	}

	l.setGuard(guard)
	l.setState(StateRouted)
	l.statusOut.Info(fmt.Sprintf("Input routed to %q (was %q)", source, guard.Original()))
	return nil
}

func (l *Listener) settle(ctx context.Context) error {
	guard := l.getGuard()
	if guard == nil || !guard.Switched() || l.config.SettleDelay <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(l.config.SettleDelay):
		return nil
	}
}

// warmUp blocks until the ring buffer has filled once, showing a
// countdown. Ends early when the buffer reports full.
func (l *Listener) warmUp(ctx context.Context) error {
	window := time.Duration(l.config.Audio.WindowSeconds) * time.Second
	deadline := time.Now().Add(window)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status := l.session.Status()
			remaining := time.Until(deadline)
			if status.BufferFill >= 1 || remaining <= 0 {
				l.statusOut.Clear()
				return nil
			}
			l.statusOut.Countdown(remaining, status.BufferFill)
		}
	}
}

// IdentifyNow snapshots the buffer and hands it to the recognizer.
// A clean no-match is a normal outcome, returned with Found false;
// an error means the recognition itself failed. Identifications are
// serialized, a second trigger waits for the first to finish.
func (l *Listener) IdentifyNow(ctx context.Context) (*Identification, error) {
	l.identifyMu.Lock()
	defer l.identifyMu.Unlock()

	if state := l.State(); state != StateAwaitingTrigger {
		return nil, fmt.Errorf("listener not ready to identify: %s", state)
	}

	l.setState(StateSnapshotting)
	defer func() {
		// Shutdown may have raced the identification; never flip the
		// state back out of teardown.
		l.mu.Lock()
		if l.state == StateSnapshotting || l.state == StateHandoff {
			l.state = StateAwaitingTrigger
		}
		l.mu.Unlock()
	}()

	triggeredAt := time.Now()

	status := l.session.Status()
	if status.Stale(staleAfter) {
		log.Warn("capture buffer is stale",
			"last_chunk", status.LastChunk,
			"last_error", status.LastError)
		l.statusOut.Error("Capture has stalled, identifying from the last buffered audio")
	}

	// The snapshot is taken before anything slow happens so the
	// window reflects the moment of the trigger.
	snapshot := l.session.Snapshot()

	l.mu.Lock()
	l.count++
	index := l.count
	l.mu.Unlock()

	ident := &Identification{Index: index, TriggeredAt: triggeredAt}

	if l.config.SaveDir != "" {
		path, err := l.saveSnapshot(l.config.SaveDir, snapshot)
		if err != nil {
			l.statusOut.Error(fmt.Sprintf("Failed to save snapshot: %v", err))
		} else {
			ident.SnapshotPath = path
		}
	}

	l.setState(StateHandoff)
	l.statusOut.Status(fmt.Sprintf("Identifying %d seconds of audio...", l.config.Audio.WindowSeconds))

	match, err := l.recognizer.Recognize(ctx, snapshot)
	l.statusOut.Clear()
	switch {
	case errors.Is(err, songid.ErrNoMatch):
		ident.Elapsed = time.Since(triggeredAt)
		log.Info("no match", "index", index, "elapsed", ident.Elapsed)
		return ident, nil
	case err != nil:
		return nil, fmt.Errorf("recognition failed: %w", err)
	}

	ident.Found = true
	ident.Match = match
	log.Info("match found", "index", index, "song", match.String())

	if l.searcher != nil {
		videos, err := l.searcher.Search(ctx, match.Query(), l.config.MaxVideos)
		if err != nil {
			// A failed video lookup leaves the match intact
			log.Warn("video search failed", "query", match.Query(), "error", err)
		} else {
			ident.Videos = videos
		}
	}

	ident.Elapsed = time.Since(triggeredAt)
	return ident, nil
}

// SaveSnapshot writes the current buffer window as a WAV file into
// dir and returns the path
func (l *Listener) SaveSnapshot(dir string) (string, error) {
	if l.session.Status().BytesWritten == 0 {
		return "", fmt.Errorf("no audio captured yet")
	}
	return l.saveSnapshot(dir, l.session.Snapshot())
}

func (l *Listener) saveSnapshot(dir string, pcm []byte) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	name := fmt.Sprintf("rewind-%s-%s.wav",
		time.Now().Format("20060102-150405"), uuid.NewString()[:8])
	path := filepath.Join(dir, name)

	if err := audio.SaveWAV(path, pcm, l.config.Audio); err != nil {
		return "", err
	}
	log.Info("snapshot saved", "path", path, "bytes", len(pcm))
	return path, nil
}

// Run drives a complete session: start, identify on every trigger
// event, tear down when the context is cancelled or the trigger
// closes. Without Loop the first successful match ends the session.
func (l *Listener) Run(ctx context.Context, trigger input.Trigger, formatter output.Formatter) error {
	if err := l.Start(ctx); err != nil {
		return err
	}
	defer l.Shutdown()

	if err := trigger.Start(ctx); err != nil {
		return fmt.Errorf("failed to start trigger: %w", err)
	}
	defer trigger.Stop()

	l.statusOut.Info("Ready. Trigger an identification while the song is playing.")

	levelTicker := time.NewTicker(levelRefreshInterval)
	defer levelTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-levelTicker.C:
			if l.State() == StateAwaitingTrigger {
				l.statusOut.WriteAudioLevel(l.session.Status().Level)
			}

		case _, ok := <-trigger.Events():
			if !ok {
				return nil
			}
			l.statusOut.Clear()

			ident, err := l.IdentifyNow(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				l.statusOut.Error(fmt.Sprintf("Identification failed: %v", err))
				continue
			}

			if err := formatter.WriteMatch(ident.Result()); err != nil {
				log.Warn("failed to write result", "error", err)
			}

			if !ident.Found {
				l.statusOut.Info("No match. Keep the song playing and trigger again.")
				continue
			}
			if !l.config.Loop {
				return nil
			}
		}
	}
}

// Shutdown stops capture and restores the original input device.
// Exactly one call acts, from whichever path gets here first.
func (l *Listener) Shutdown() {
	l.shutdownOnce.Do(func() {
		l.setState(StateTearingDown)

		if err := l.session.Stop(); err != nil {
			log.Warn("capture stop failed", "error", err)
		}

		if guard := l.getGuard(); guard != nil {
			ctx, cancel := context.WithTimeout(context.Background(), restoreTimeout)
			defer cancel()

			if err := guard.Restore(ctx); err != nil {
				l.statusOut.Error(fmt.Sprintf("Failed to restore input %q: %v", guard.Original(), err))
			} else {
				l.statusOut.Info(fmt.Sprintf("Input restored to %q", guard.Original()))
			}
		}

		l.setState(StateDone)
	})
}

// WaitReady blocks until the listener accepts triggers. It fails when
// the timeout passes, the context ends, or the listener shuts down
// first. Servers use it because the listener warms its buffer in the
// background while their transport is already accepting requests.
func (l *Listener) WaitReady(ctx context.Context, timeout time.Duration) error {
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.After(timeout)

	for {
		switch l.State() {
		case StateAwaitingTrigger:
			return nil
		case StateTearingDown, StateDone:
			return fmt.Errorf("listener is shut down")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("listener not ready after %s", timeout)
		case <-ticker.C:
		}
	}
}

// Status returns a point-in-time view for the servers
func (l *Listener) Status() ListenerStatus {
	l.mu.Lock()
	state := l.state
	count := l.count
	started := l.started
	guard := l.guard
	l.mu.Unlock()

	st := ListenerStatus{
		State:           state,
		Identifications: count,
		Source:          l.effectiveSource(),
		Capture:         l.session.Status(),
	}
	if !started.IsZero() {
		st.Uptime = time.Since(started)
	}
	if guard != nil {
		st.Routed = guard.Switched()
		st.OriginalInput = guard.Original()
	}
	return st
}

// State returns the current lifecycle state
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Listener) setState(next State) {
	l.mu.Lock()
	prev := l.state
	l.state = next
	l.mu.Unlock()

	if prev != next {
		log.Debug("listener state", "from", prev.String(), "to", next.String())
	}
}

func (l *Listener) setGuard(guard *RouteGuard) {
	l.mu.Lock()
	l.guard = guard
	l.mu.Unlock()
}

func (l *Listener) getGuard() *RouteGuard {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.guard
}

func (l *Listener) effectiveSource() string {
	if l.router == nil || l.config.RouteDisabled {
		return ""
	}
	if l.config.Source != "" {
		return l.config.Source
	}
	return defaultCaptureSource()
}
