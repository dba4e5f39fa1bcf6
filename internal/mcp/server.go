package mcp

import (
	"context"
	"errors"
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/redefine-mcp/internal/session"
)

const (
	// ServerName is the MCP server name
	ServerName = "redefine-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server around an interactive session
type Server struct {
	mcp     *server.MCPServer
	session *session.Session
	logger  *log.Logger
}

// NewServer creates a new MCP server backed by sess.
// The server takes ownership of the session and closes it when Serve returns.
func NewServer(sess *session.Session, logger *log.Logger) (*Server, error) {
	if sess == nil {
		return nil, errors.New("session is required")
	}
	if logger == nil {
		logger = log.Default()
	}

	s := &Server{
		mcp:     server.NewMCPServer(ServerName, ServerVersion),
		session: sess,
		logger:  logger,
	}

	s.registerTools()
	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() {
		if err := s.session.Close(); err != nil {
			s.logger.Printf("Warning: failed to close session: %v", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- server.ServeStdio(s.mcp) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(redefineUnitTool(), s.handleRedefineUnit)
	s.mcp.AddTool(evalTool(), s.handleEval)
	s.mcp.AddTool(lookupTool(), s.handleLookup)
	s.mcp.AddTool(getHistoryTool(), s.handleGetHistory)
	s.mcp.AddTool(listFormsTool(), s.handleListForms)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
