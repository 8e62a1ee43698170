package grpc

import (
	"fmt"
	"net"

	"google.golang.org/grpc"

	"github.com/emmett/rewind/internal/app"
)

// Server wraps the gRPC server and services
type Server struct {
	grpcServer *grpc.Server
	service    *IdentifyService
	host       string
	port       int
}

// Config holds server configuration
type Config struct {
	Host string
	Port int
}

// NewServer creates a new gRPC server around a listener. The listener
// is expected to be starting or already started; requests wait for it
// to become ready.
func NewServer(cfg Config, listener *app.Listener) (*Server, error) {
	if listener == nil {
		return nil, fmt.Errorf("grpc server requires a listener")
	}

	s := &Server{
		grpcServer: grpc.NewServer(),
		service:    NewIdentifyService(listener),
		host:       cfg.Host,
		port:       cfg.Port,
	}

	// Register services
	RegisterListenerServer(s.grpcServer, s.service)

	return s, nil
}

// Start starts the gRPC server
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	fmt.Printf("gRPC server listening on %s\n", addr)
	return s.grpcServer.Serve(lis)
}

// Stop gracefully stops the server and shuts the listener down
func (s *Server) Stop() {
	s.grpcServer.GracefulStop()
	s.service.Close()
}

// RegisterListenerServer is a placeholder until proto is generated
func RegisterListenerServer(s *grpc.Server, srv *IdentifyService) {
	// Will be replaced by generated code: rewindpb.RegisterListenerServer(s, srv)
}
