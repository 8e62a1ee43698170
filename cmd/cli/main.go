package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/emmett/rewind/internal/app"
	"github.com/emmett/rewind/internal/config"
	"github.com/emmett/rewind/internal/input"
	"github.com/emmett/rewind/internal/log"
	"github.com/emmett/rewind/internal/output"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile   = flag.String("config", "", "Path to configuration file (default: ~/.rewindrc or /etc/rewind/config.yaml)")
	window       = flag.Int("window", 12, "Seconds of audio to keep buffered for identification")
	audioDevice  = flag.String("device", "", "Audio input device name (use --list-devices to see available devices)")
	backend      = flag.String("backend", "", "Capture backend: pipe, malgo (default: pipe)")
	source       = flag.String("source", "", "Input device to capture from (default: platform loopback device)")
	noRoute      = flag.Bool("no-route", false, "Capture from the current input device without rerouting")
	settleMs     = flag.Int("settle-ms", 1500, "Milliseconds to wait after switching input before capture starts")
	hotkeyCombo  = flag.String("hotkey", "ctrl+shift+s", "Hotkey that triggers an identification")
	stdinTrigger = flag.Bool("stdin-trigger", false, "Trigger identification from stdin lines instead of a global hotkey")
	outputFormat = flag.String("format", "text", "Output format: text, json")
	outputFile   = flag.String("output", "", "Output file (default: stdout)")
	saveDir      = flag.String("save-dir", "", "Directory to save a WAV of every identified snapshot")
	loop         = flag.Bool("loop", false, "Keep listening after a successful identification")
	maxVideos    = flag.Int("videos", 3, "Maximum matching videos to look up per identification")
	noVideo      = flag.Bool("no-video", false, "Disable the video lookup for matches")
	skipWarmup   = flag.Bool("skip-warmup", false, "Accept triggers before the buffer has filled once")
	listDevices  = flag.Bool("list-devices", false, "List all available audio input devices")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	log.Init(cfg.Log.Level)

	applyConfigDefaults(cfg)

	if *showVersion {
		fmt.Printf("Rewind v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	fmt.Printf("Rewind v%s (commit: %s, branch: %s, built: %s)\n",
		Version, GitCommit, GitBranch, BuildTime)
	fmt.Println("Song identification for whatever is playing")
	fmt.Println()

	if *listDevices {
		dm := app.NewDeviceManager()
		if err := dm.ListDevices(); err != nil {
			os.Exit(1)
		}
		return
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// applyConfigDefaults applies configuration values as defaults.
// CLI flags override config file values if explicitly set.
func applyConfigDefaults(cfg *config.Config) {
	flagsSet := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		flagsSet[f.Name] = true
	})

	if !flagsSet["window"] && cfg.Audio.WindowSeconds > 0 {
		*window = cfg.Audio.WindowSeconds
	}
	if !flagsSet["device"] && cfg.Audio.Device != "" {
		*audioDevice = cfg.Audio.Device
	}
	if !flagsSet["backend"] && cfg.Audio.Backend != "" {
		*backend = cfg.Audio.Backend
	}
	if !flagsSet["source"] && cfg.Routing.Source != "" {
		*source = cfg.Routing.Source
	}
	if !flagsSet["no-route"] {
		*noRoute = cfg.Routing.Disabled
	}
	if !flagsSet["settle-ms"] && cfg.Routing.SettleMs > 0 {
		*settleMs = cfg.Routing.SettleMs
	}
	if !flagsSet["hotkey"] && cfg.Trigger.Hotkey != "" {
		*hotkeyCombo = cfg.Trigger.Hotkey
	}
	if !flagsSet["format"] && cfg.Output.Format != "" {
		*outputFormat = cfg.Output.Format
	}
	if !flagsSet["output"] && cfg.Output.File != "" {
		*outputFile = cfg.Output.File
	}
	if !flagsSet["save-dir"] && cfg.Output.SaveDir != "" {
		*saveDir = cfg.Output.SaveDir
	}
	if !flagsSet["videos"] && cfg.Video.MaxResults > 0 {
		*maxVideos = cfg.Video.MaxResults
	}
	if !flagsSet["no-video"] {
		*noVideo = !cfg.Video.Enabled
	}
}

func run(cfg *config.Config) error {
	// Fold the effective flag values back into the config so the
	// listener wiring sees one merged view
	cfg.Audio.WindowSeconds = *window
	cfg.Audio.Device = *audioDevice
	if *backend != "" {
		cfg.Audio.Backend = *backend
	}
	cfg.Routing.Source = *source
	cfg.Routing.Disabled = *noRoute
	cfg.Routing.SettleMs = *settleMs
	cfg.Video.Enabled = !*noVideo
	cfg.Video.MaxResults = *maxVideos
	cfg.Output.SaveDir = *saveDir

	// Determine output writer
	writer := io.Writer(os.Stdout)
	if *outputFile != "" {
		outFile, err := os.Create(*outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer outFile.Close()
		writer = outFile
	}

	var formatter output.Formatter
	switch strings.ToLower(*outputFormat) {
	case "json":
		formatter = output.NewJSONFormatter(writer)
	case "text":
		formatter = output.NewPlainTextFormatter(writer)
	default:
		return fmt.Errorf("unknown output format: %s (valid: text, json)", *outputFormat)
	}
	defer formatter.Close()

	// Console output for status messages (always to stderr when using file output)
	statusOut := output.DefaultConsoleOutput()
	if *outputFile != "" {
		statusOut = output.NewConsoleOutput(output.ConsoleConfig{
			ShowTimestamp: true,
			Writer:        os.Stderr,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle Ctrl+C
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n\nStopping...")
		cancel()
	}()

	deps, err := app.BuildDeps(ctx, cfg, config.LoadCredentials(), statusOut)
	if err != nil {
		return err
	}

	lcfg := app.ListenerConfigFrom(cfg)
	lcfg.Loop = *loop
	lcfg.SkipWarmUp = *skipWarmup

	listener, err := app.NewListener(lcfg, deps)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	var trigger input.Trigger
	if *stdinTrigger {
		trigger = input.NewStdinTrigger(nil)
		statusOut.Info("Press Enter to identify what's playing (q to quit)")
	} else {
		trigger = input.NewHotkeyTrigger(*hotkeyCombo)
		statusOut.Info(fmt.Sprintf("Press %s to identify what's playing", *hotkeyCombo))
	}

	return listener.Run(ctx, trigger, formatter)
}
