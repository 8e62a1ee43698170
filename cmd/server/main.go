package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/rewind/internal/app"
	"github.com/emmett/rewind/internal/config"
	"github.com/emmett/rewind/internal/log"
	"github.com/emmett/rewind/internal/output"
	grpcserver "github.com/emmett/rewind/internal/server/grpc"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.rewindrc or /etc/rewind/config.yaml)")
	port        = flag.Int("port", 0, "gRPC server port (default: 50051)")
	host        = flag.String("host", "", "gRPC server host (default: localhost)")
	source      = flag.String("source", "", "Input device to capture from (default: platform loopback device)")
	noRoute     = flag.Bool("no-route", false, "Capture from the current input device without rerouting")
	window      = flag.Int("window", 0, "Seconds of audio to keep buffered (default: 12)")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Rewind gRPC Server v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	fmt.Printf("Rewind gRPC Server v%s (commit: %s)\n", Version, GitCommit)

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	log.Init(cfg.Log.Level)

	if *port > 0 {
		cfg.Server.Port = *port
	}
	if *host != "" {
		cfg.Server.Host = *host
	}
	if *window > 0 {
		cfg.Audio.WindowSeconds = *window
	}
	if *source != "" {
		cfg.Routing.Source = *source
	}
	if *noRoute {
		cfg.Routing.Disabled = true
	}

	ctx := context.Background()
	deps, err := app.BuildDeps(ctx, cfg, config.LoadCredentials(), output.DefaultConsoleOutput())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	listener, err := app.NewListener(app.ListenerConfigFrom(cfg), deps)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating listener: %v\n", err)
		os.Exit(1)
	}

	// Warm the capture buffer while the server accepts connections.
	// Identify calls wait for readiness on their own.
	go func() {
		if err := listener.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Listener error: %v\n", err)
		}
	}()

	server, err := grpcserver.NewServer(grpcserver.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}, listener)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating server: %v\n", err)
		os.Exit(1)
	}

	// Handle shutdown. Stop drains in-flight calls and restores the
	// routed input device.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")
		server.Stop()
		os.Exit(0)
	}()

	// Start server
	if err := server.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
