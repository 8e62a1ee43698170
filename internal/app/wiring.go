package app

import (
	"context"
	"fmt"
	"time"

	"github.com/emmett/rewind/internal/audio"
	"github.com/emmett/rewind/internal/config"
	"github.com/emmett/rewind/internal/log"
	"github.com/emmett/rewind/internal/output"
	"github.com/emmett/rewind/internal/songid"
	"github.com/emmett/rewind/internal/video"
)

// ListenerConfigFrom builds a listener config from the file config.
// Flags that only exist on the command line (loop, skip warm up) are
// applied by the caller afterwards.
func ListenerConfigFrom(cfg *config.Config) ListenerConfig {
	audioCfg := audio.DefaultConfig()
	audioCfg.WindowSeconds = cfg.Audio.WindowSeconds
	audioCfg.Device = cfg.Audio.Device
	if cfg.Audio.Backend != "" {
		audioCfg.Backend = cfg.Audio.Backend
	}
	audioCfg.Command = cfg.Audio.CaptureCommand

	return ListenerConfig{
		Audio:         audioCfg,
		Source:        cfg.Routing.Source,
		RouteDisabled: cfg.Routing.Disabled,
		SettleDelay:   time.Duration(cfg.Routing.SettleMs) * time.Millisecond,
		SaveDir:       cfg.Output.SaveDir,
		MaxVideos:     cfg.Video.MaxResults,
	}
}

// BuildDeps assembles the listener collaborators from config and
// credentials. The recognizer is required and fails construction; the
// video searcher is optional and degrades to none with a warning.
func BuildDeps(ctx context.Context, cfg *config.Config, creds config.Credentials, status *output.ConsoleOutput) (ListenerDeps, error) {
	if err := creds.RequireAudD(); err != nil {
		return ListenerDeps{}, err
	}

	audioCfg := ListenerConfigFrom(cfg).Audio

	recCfg := songid.DefaultConfig(creds.AudDToken)
	if cfg.Recognition.Endpoint != "" {
		recCfg.Endpoint = cfg.Recognition.Endpoint
	}
	if cfg.Recognition.TimeoutSeconds > 0 {
		recCfg.Timeout = time.Duration(cfg.Recognition.TimeoutSeconds) * time.Second
	}
	recognizer, err := songid.NewAudDClient(recCfg, audioCfg)
	if err != nil {
		return ListenerDeps{}, fmt.Errorf("failed to create recognizer: %w", err)
	}

	var searcher video.Searcher
	if cfg.Video.Enabled && creds.YouTubeKey != "" {
		vidCfg := video.DefaultConfig(creds.YouTubeKey)
		vidCfg.Region = cfg.Video.Region
		if cfg.Video.MaxResults > 0 {
			vidCfg.MaxResults = cfg.Video.MaxResults
		}
		if cfg.Video.CacheTTLMinutes > 0 {
			vidCfg.CacheTTL = time.Duration(cfg.Video.CacheTTLMinutes) * time.Minute
		}

		ys, err := video.NewYouTubeSearcher(ctx, vidCfg)
		if err != nil {
			log.Warn("video search disabled", "error", err)
		} else {
			searcher = ys
		}
	}

	var router *DeviceRouter
	if !cfg.Routing.Disabled {
		router = NewDeviceRouter()
	}

	return ListenerDeps{
		Recognizer: recognizer,
		Searcher:   searcher,
		Router:     router,
		Status:     status,
	}, nil
}
