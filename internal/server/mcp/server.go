package mcp

import (
	"context"
	"fmt"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/emmett/rewind/internal/app"
)

type Config struct {
	ServerName    string
	ServerVersion string
}

type Server struct {
	config    Config
	mcpServer *sdk.Server
	service   *IdentifyService
}

// NewServer creates an MCP server exposing the listener as tools. The
// listener is expected to be starting or already started; tool calls
// wait for it to become ready.
func NewServer(cfg Config, listener *app.Listener) (*Server, error) {
	if listener == nil {
		return nil, fmt.Errorf("mcp server requires a listener")
	}

	s := &Server{
		config:  cfg,
		service: NewIdentifyService(listener),
	}

	s.mcpServer = sdk.NewServer(&sdk.Implementation{
		Name:    cfg.ServerName,
		Version: cfg.ServerVersion,
	}, nil)

	// Register tools
	s.registerTools()

	return s, nil
}

func (s *Server) Start() error {
	return s.mcpServer.Run(context.Background(), &sdk.StdioTransport{})
}

func (s *Server) Stop() error {
	return s.service.Close()
}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "identify_song",
		Description: "Identify the song currently playing on the system audio, using the last buffered seconds",
	}, s.handleIdentifySong)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "listener_status",
		Description: "Report listener state, buffer fill and identification count",
	}, s.handleListenerStatus)

	sdk.AddTool(s.mcpServer, &sdk.Tool{
		Name:        "save_snapshot",
		Description: "Save the currently buffered audio as a WAV file",
	}, s.handleSaveSnapshot)
}
