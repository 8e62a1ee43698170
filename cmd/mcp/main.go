package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/emmett/rewind/internal/app"
	"github.com/emmett/rewind/internal/config"
	"github.com/emmett/rewind/internal/log"
	"github.com/emmett/rewind/internal/output"
	"github.com/emmett/rewind/internal/server/mcp"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
	GitBranch = "unknown"
)

var (
	configFile  = flag.String("config", "", "Path to configuration file (default: ~/.rewindrc or /etc/rewind/config.yaml)")
	source      = flag.String("source", "", "Input device to capture from (default: platform loopback device)")
	noRoute     = flag.Bool("no-route", false, "Capture from the current input device without rerouting")
	window      = flag.Int("window", 0, "Seconds of audio to keep buffered (default: 12)")
	showVersion = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("Rewind MCP v%s\n", Version)
		fmt.Printf("  Commit:  %s\n", GitCommit)
		fmt.Printf("  Branch:  %s\n", GitBranch)
		fmt.Printf("  Built:   %s\n", BuildTime)
		os.Exit(0)
	}

	if err := runMCPServer(); err != nil {
		fmt.Fprintf(os.Stderr, "MCP server error: %v\n", err)
		os.Exit(1)
	}
}

// runMCPServer starts the MCP server. Everything interactive goes to
// stderr because stdout carries the protocol.
func runMCPServer() error {
	fmt.Fprintf(os.Stderr, "Starting MCP server...\n")
	fmt.Fprintf(os.Stderr, "Protocol: Model Context Protocol (stdio transport)\n")
	fmt.Fprintf(os.Stderr, "Version: %s (commit: %s)\n\n", Version, GitCommit)

	cfg, err := config.LoadWithFallback(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Failed to load config: %v\n", err)
		cfg = config.DefaultConfig()
	}
	log.Init(cfg.Log.Level)

	if *window > 0 {
		cfg.Audio.WindowSeconds = *window
	}
	if *source != "" {
		cfg.Routing.Source = *source
	}
	if *noRoute {
		cfg.Routing.Disabled = true
	}

	statusOut := output.NewConsoleOutput(output.ConsoleConfig{
		ShowTimestamp: true,
		Writer:        os.Stderr,
	})

	ctx := context.Background()
	deps, err := app.BuildDeps(ctx, cfg, config.LoadCredentials(), statusOut)
	if err != nil {
		return err
	}

	listener, err := app.NewListener(app.ListenerConfigFrom(cfg), deps)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	// Warm the capture buffer while the transport comes up. Tool
	// calls wait for readiness on their own.
	go func() {
		if err := listener.Start(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Listener error: %v\n", err)
		}
	}()

	// Get absolute path to the rewind-mcp binary
	execPath, err := os.Executable()
	if err != nil {
		execPath = "./build/rewind-mcp"
	}

	serverArgs := []string{}
	if *source != "" {
		serverArgs = append(serverArgs, "--source", *source)
	}
	if *noRoute {
		serverArgs = append(serverArgs, "--no-route")
	}

	// Print MCP client configuration
	type MCPServerConfig struct {
		Command string   `json:"command"`
		Args    []string `json:"args"`
	}
	type MCPClientConfig struct {
		MCPServers map[string]MCPServerConfig `json:"mcpServers"`
	}

	clientConfig := MCPClientConfig{
		MCPServers: map[string]MCPServerConfig{
			"rewind-listen": {
				Command: execPath,
				Args:    serverArgs,
			},
		},
	}

	configJSON, err := json.MarshalIndent(clientConfig, "", "  ")
	if err == nil {
		fmt.Fprintf(os.Stderr, "MCP Client Configuration:\n%s\n\n", string(configJSON))
	}

	// Print Claude Code add command
	type ClaudeCodeConfig struct {
		Type    string   `json:"type"`
		Command string   `json:"command"`
		Args    []string `json:"args"`
	}

	claudeConfig := ClaudeCodeConfig{
		Type:    "stdio",
		Command: execPath,
		Args:    serverArgs,
	}

	claudeJSON, err := json.Marshal(claudeConfig)
	if err == nil {
		fmt.Fprintf(os.Stderr, "Add to Claude Code:\n")
		fmt.Fprintf(os.Stderr, "claude mcp add-json rewind '%s'\n\n", string(claudeJSON))
	}

	server, err := mcp.NewServer(mcp.Config{
		ServerName:    "rewind-mcp",
		ServerVersion: Version,
	}, listener)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	// Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	fmt.Fprintf(os.Stderr, "MCP server ready. Listening on stdin/stdout...\n")
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop.\n\n")

	// Wait for shutdown signal or error. Both paths stop the server
	// so the routed input device is restored.
	select {
	case <-sigChan:
		fmt.Fprintf(os.Stderr, "\nShutting down MCP server...\n")
		if err := server.Stop(); err != nil {
			return fmt.Errorf("error stopping server: %w", err)
		}
		return nil
	case err := <-errChan:
		if stopErr := server.Stop(); stopErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", stopErr)
		}
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
