package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/dshills/redefine-mcp/internal/host"
	"github.com/dshills/redefine-mcp/internal/session"
	"github.com/dshills/redefine-mcp/internal/storage"
	"github.com/dshills/redefine-mcp/pkg/types"
)

const m1Code = `export A, b
struct A
    x::Int
end
b = A(1)`

// ToolsTestSuite drives the tool handlers against a real session
type ToolsTestSuite struct {
	suite.Suite
	ctx    context.Context
	server *Server
	logs   bytes.Buffer
}

func (s *ToolsTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.logs.Reset()
	logger := log.New(&s.logs, "", 0)

	sess, err := session.New(&session.Config{
		ArtifactDir: s.T().TempDir(),
		DBPath:      ":memory:",
	}, session.WithLogger(logger))
	s.Require().NoError(err)

	s.server, err = NewServer(sess, logger)
	s.Require().NoError(err)
}

func (s *ToolsTestSuite) TearDownTest() {
	_ = s.server.session.Close()
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// decode parses the JSON text payload of a tool result
func (s *ToolsTestSuite) decode(res *mcp.CallToolResult) map[string]interface{} {
	s.Require().NotNil(res)
	s.Require().Len(res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	s.Require().True(ok, "expected text content")

	var out map[string]interface{}
	s.Require().NoError(json.Unmarshal([]byte(text.Text), &out))
	return out
}

func (s *ToolsTestSuite) requireCode(err error, code int) *MCPError {
	var mcpErr *MCPError
	s.Require().True(errors.As(err, &mcpErr), "expected MCPError, got %v", err)
	s.Equal(code, mcpErr.Code)
	return mcpErr
}

func (s *ToolsTestSuite) TestRedefineUnit() {
	res, err := s.server.handleRedefineUnit(s.ctx, call(map[string]interface{}{
		"name": "m1",
		"code": m1Code,
	}))
	s.Require().NoError(err)

	out := s.decode(res)
	s.Equal("m1", out["unit"])
	s.Equal("manifest", out["mode"])
	s.Equal([]interface{}{"A = m1.A", "b = m1.b"}, out["published"])
	s.Equal([]interface{}{"eval"}, out["skipped"])
	s.Len(out["content_hash"], 64)

	lookup, err := s.server.handleLookup(s.ctx, call(map[string]interface{}{"name": "b"}))
	s.Require().NoError(err)
	out = s.decode(lookup)
	s.Equal(true, out["defined"])
	s.Equal("A(1)", out["value"])
}

func (s *ToolsTestSuite) TestRedefineUnit_InvalidParams() {
	tests := []struct {
		name string
		args map[string]interface{}
	}{
		{"missing name", map[string]interface{}{"code": m1Code}},
		{"empty name", map[string]interface{}{"name": "", "code": m1Code}},
		{"bad name", map[string]interface{}{"name": "1m", "code": m1Code}},
		{"missing code", map[string]interface{}{"name": "m1"}},
		{"syntax error", map[string]interface{}{"name": "m1", "code": "struct A\n x::Int"}},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.server.handleRedefineUnit(s.ctx, call(tt.args))
			s.requireCode(err, ErrorCodeInvalidParams)
		})
	}

	_, err := s.server.handleRedefineUnit(s.ctx, mcp.CallToolRequest{})
	s.requireCode(err, ErrorCodeInvalidParams)
}

func (s *ToolsTestSuite) TestRedefineUnit_LoadFailed() {
	_, err := s.server.handleRedefineUnit(s.ctx, call(map[string]interface{}{
		"name": "m1",
		"code": "export b\nb = missing_value",
	}))
	mcpErr := s.requireCode(err, ErrorCodeLoadFailed)

	data, ok := mcpErr.Data.(map[string]interface{})
	s.Require().True(ok)
	s.Equal(types.PhaseLoad, data["phase"])
	s.Contains(data["error"], "missing_value")
}

func (s *ToolsTestSuite) TestEval() {
	_, err := s.server.handleRedefineUnit(s.ctx, call(map[string]interface{}{
		"name": "m1",
		"code": m1Code,
	}))
	s.Require().NoError(err)

	res, err := s.server.handleEval(s.ctx, call(map[string]interface{}{"code": "b.x"}))
	s.Require().NoError(err)
	s.Equal("1", s.decode(res)["value"])

	res, err = s.server.handleEval(s.ctx, call(map[string]interface{}{"code": "nope"}))
	s.Require().NoError(err)
	s.True(res.IsError)

	_, err = s.server.handleEval(s.ctx, call(map[string]interface{}{}))
	s.requireCode(err, ErrorCodeInvalidParams)
}

func (s *ToolsTestSuite) TestLookup_Undefined() {
	res, err := s.server.handleLookup(s.ctx, call(map[string]interface{}{"name": "zzz"}))
	s.Require().NoError(err)

	out := s.decode(res)
	s.Equal(false, out["defined"])
	s.NotContains(out, "value")
}

func (s *ToolsTestSuite) TestGetHistory() {
	_, err := s.server.handleRedefineUnit(s.ctx, call(map[string]interface{}{
		"name": "m1",
		"code": "export b\nb = missing_value",
	}))
	s.Require().Error(err)
	_, err = s.server.handleRedefineUnit(s.ctx, call(map[string]interface{}{
		"name": "m1",
		"code": m1Code,
	}))
	s.Require().NoError(err)

	res, err := s.server.handleGetHistory(s.ctx, call(map[string]interface{}{
		"name":  "m1",
		"limit": float64(5),
	}))
	s.Require().NoError(err)

	out := s.decode(res)
	reloads, ok := out["reloads"].([]interface{})
	s.Require().True(ok)
	s.Require().Len(reloads, 2)

	newest := reloads[0].(map[string]interface{})
	oldest := reloads[1].(map[string]interface{})
	s.Equal(storage.StatusOK, newest["status"])
	s.Equal(storage.StatusFailed, oldest["status"])
	s.Contains(oldest, "error")
	s.Equal([]interface{}{"A", "b"}, out["published"])
}

func (s *ToolsTestSuite) TestGetHistory_Errors() {
	_, err := s.server.handleGetHistory(s.ctx, call(map[string]interface{}{"name": "ghost"}))
	s.requireCode(err, ErrorCodeUnitNotFound)

	_, err = s.server.handleGetHistory(s.ctx, call(map[string]interface{}{"name": "m1", "limit": float64(0)}))
	s.requireCode(err, ErrorCodeInvalidParams)

	_, err = s.server.handleGetHistory(s.ctx, call(map[string]interface{}{"name": "m1", "limit": 101}))
	s.requireCode(err, ErrorCodeInvalidParams)
}

func (s *ToolsTestSuite) TestListForms() {
	res, err := s.server.handleListForms(s.ctx, call(nil))
	s.Require().NoError(err)

	out := s.decode(res)
	s.ElementsMatch([]interface{}{"import", "export", "toplevel", "using"}, out["forms"])
	s.Equal([]interface{}{"eval"}, out["blacklist"])
}

func (s *ToolsTestSuite) TestGetStatus() {
	_, err := s.server.handleRedefineUnit(s.ctx, call(map[string]interface{}{
		"name": "m1",
		"code": m1Code,
	}))
	s.Require().NoError(err)

	res, err := s.server.handleGetStatus(s.ctx, call(nil))
	s.Require().NoError(err)

	out := s.decode(res)
	s.Equal([]interface{}{"m1"}, out["units"])
	s.Equal(false, out["busy"])

	history, ok := out["history"].(map[string]interface{})
	s.Require().True(ok)
	s.EqualValues(1, history["reloads_count"])

	health := out["health"].(map[string]interface{})
	s.Equal(true, health["history_enabled"])
	s.Equal(storage.CurrentSchemaVersion, health["schema_version"])
}

func TestToolsTestSuite(t *testing.T) {
	suite.Run(t, new(ToolsTestSuite))
}

func TestNewServer_RequiresSession(t *testing.T) {
	_, err := NewServer(nil, nil)
	assert.Error(t, err)
}

func TestRedefineError_Codes(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"in progress", types.ErrReloadInProgress, ErrorCodeReloadInProgress},
		{"unknown form", &types.UnknownFormError{FormName: "share", Line: "$(:share, :a)"}, ErrorCodeUnknownForm},
		{"wrapped unknown form", &types.LoadError{Unit: "m1", Phase: types.PhaseGenerate, Err: &types.UnknownFormError{FormName: "x"}}, ErrorCodeUnknownForm},
		{"syntax", &host.SyntaxError{Line: 2, Msg: "unexpected token"}, ErrorCodeInvalidParams},
		{"unit not found", &types.LoadError{Unit: "m1", Phase: types.PhasePublish, Err: host.ErrUnitNotFound}, ErrorCodeUnitNotFound},
		{"load", &types.LoadError{Unit: "m1", Phase: types.PhaseLoad, Err: errors.New("boom")}, ErrorCodeLoadFailed},
		{"file io", &types.FileIOError{Op: "write", Path: "/x", Err: errors.New("denied")}, ErrorCodeInternalError},
		{"other", errors.New("boom"), ErrorCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mcpErr := redefineError("m1", nil, tt.err)
			require.NotNil(t, mcpErr)
			assert.Equal(t, tt.code, mcpErr.Code)
			assert.Contains(t, mcpErr.Error(), "MCP error")
		})
	}
}

func TestHistoryError_Codes(t *testing.T) {
	assert.Equal(t, ErrorCodeUnitNotFound, historyError("m1", storage.ErrNotFound).Code)
	assert.Equal(t, ErrorCodeInternalError, historyError("m1", session.ErrHistoryDisabled).Code)
	assert.Equal(t, ErrorCodeInternalError, historyError("m1", errors.New("boom")).Code)
}

func TestGetIntDefault(t *testing.T) {
	args := map[string]interface{}{"f": float64(7), "i": 3, "s": "x"}
	assert.Equal(t, 7, getIntDefault(args, "f", 1))
	assert.Equal(t, 3, getIntDefault(args, "i", 1))
	assert.Equal(t, 1, getIntDefault(args, "s", 1))
	assert.Equal(t, 1, getIntDefault(args, "missing", 1))
}
