package mcp

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/redefine-mcp/internal/host"
	"github.com/dshills/redefine-mcp/internal/session"
	"github.com/dshills/redefine-mcp/internal/storage"
	"github.com/dshills/redefine-mcp/internal/unit"
	"github.com/dshills/redefine-mcp/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams    = -32602 // Invalid method parameters
	ErrorCodeInternalError    = -32603 // Internal JSON-RPC error
	ErrorCodeUnknownForm      = -32010 // Snippet contains a form the registry cannot rebuild
	ErrorCodeLoadFailed       = -32011 // The host rejected the unit or its manifest
	ErrorCodeReloadInProgress = -32012 // Another redefinition is already running
	ErrorCodeUnitNotFound     = -32013 // Unit has never been loaded or recorded
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// handleRedefineUnit handles the redefine_unit tool invocation
func (s *Server) handleRedefineUnit(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}
	if !unit.ValidName(name) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid unit name", map[string]interface{}{
			"param":  "name",
			"reason": fmt.Sprintf("%q is not an identifier", name),
		})
	}

	code, ok := args["code"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "code parameter is required", map[string]interface{}{
			"param":  "code",
			"reason": "missing",
		})
	}

	res, err := s.session.Redefine(ctx, name, code)
	if err != nil {
		return nil, redefineError(name, res, err)
	}

	return mcp.NewToolResultText(formatJSON(resultResponse(res))), nil
}

// handleEval handles the eval tool invocation
func (s *Server) handleEval(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	code, ok := args["code"].(string)
	if !ok || code == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "code parameter is required", map[string]interface{}{
			"param":  "code",
			"reason": "missing or empty",
		})
	}

	value, err := s.session.Eval(ctx, code)
	if err != nil {
		// Host errors are user-facing results, not protocol failures
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"value": value,
	})), nil
}

// handleLookup handles the lookup tool invocation
func (s *Server) handleLookup(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}

	value, defined := s.session.Lookup(name)
	response := map[string]interface{}{
		"name":    name,
		"defined": defined,
	}
	if defined {
		response["value"] = value
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetHistory handles the get_history tool invocation
func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	name, ok := args["name"].(string)
	if !ok || name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "name parameter is required", map[string]interface{}{
			"param":  "name",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit out of range", map[string]interface{}{
			"param":  "limit",
			"reason": fmt.Sprintf("must be between 1 and %d", maxHistoryLimit),
		})
	}

	reloads, err := s.session.History(ctx, name, limit)
	if err != nil {
		return nil, historyError(name, err)
	}
	bindings, err := s.session.Bindings(ctx, name)
	if err != nil {
		return nil, historyError(name, err)
	}

	entries := make([]map[string]interface{}, 0, len(reloads))
	for _, r := range reloads {
		entry := map[string]interface{}{
			"id":              r.ID,
			"generation":      r.Generation,
			"status":          r.Status,
			"phase":           r.Phase,
			"mode":            r.Mode,
			"exports_count":   r.ExportsCount,
			"published_count": r.PublishedCount,
			"skipped":         r.Skipped,
			"duration_ms":     r.DurationMs,
			"created_at":      r.CreatedAt,
		}
		if r.Error != nil {
			entry["error"] = *r.Error
		}
		entries = append(entries, entry)
	}

	published := make([]string, 0, len(bindings))
	for _, b := range bindings {
		published = append(published, b.LocalName)
	}

	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"unit":      name,
		"reloads":   entries,
		"published": published,
	})), nil
}

// handleListForms handles the list_forms tool invocation
func (s *Server) handleListForms(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reg := s.session.Registry()
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"forms":     reg.Names(),
		"version":   reg.Version(),
		"blacklist": s.session.Blacklist().Names(),
	})), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"units":  s.session.Units(),
		"busy":   s.session.Busy(),
		"forms":  s.session.Registry().Len(),
		"health": map[string]interface{}{"history_enabled": false},
	}

	status, err := s.session.Status(ctx)
	switch {
	case errors.Is(err, session.ErrHistoryDisabled):
	case err != nil:
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	default:
		response["history"] = map[string]interface{}{
			"units_count":      status.UnitsCount,
			"reloads_count":    status.ReloadsCount,
			"failed_reloads":   status.FailedReloads,
			"bindings_count":   status.BindingsCount,
			"database_size_mb": status.DatabaseSizeMB,
			"last_reload_at":   status.LastReloadAt,
		}
		response["health"] = map[string]interface{}{
			"history_enabled":     true,
			"database_accessible": status.Health.DatabaseAccessible,
			"schema_version":      status.Health.SchemaVersion,
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// resultResponse converts a reload result into the tool response payload
func resultResponse(res *types.ReloadResult) map[string]interface{} {
	published := make([]string, 0, len(res.Published))
	for _, p := range res.Published {
		published = append(published, p.Statement())
	}
	return map[string]interface{}{
		"id":            res.ID,
		"unit":          res.Unit,
		"generation":    res.Generation,
		"artifact_path": res.ArtifactPath,
		"content_hash":  hex.EncodeToString(res.ContentHash[:]),
		"exports":       res.Exports,
		"published":     published,
		"skipped":       res.Skipped,
		"mode":          res.Mode,
		"duration_ms":   res.Duration.Milliseconds(),
	}
}

// redefineError maps a pipeline failure onto an MCP error
func redefineError(name string, res *types.ReloadResult, err error) *MCPError {
	data := map[string]interface{}{
		"unit":  name,
		"error": err.Error(),
	}
	if res != nil {
		data["phase"] = res.Phase
		data["id"] = res.ID
	}

	var syntaxErr *host.SyntaxError
	var loadErr *types.LoadError
	var ioErr *types.FileIOError
	switch {
	case errors.Is(err, types.ErrReloadInProgress):
		return newMCPError(ErrorCodeReloadInProgress, "reload already in progress", data)
	case errors.Is(err, types.ErrUnknownForm), errors.Is(err, types.ErrMalformedSnippet):
		return newMCPError(ErrorCodeUnknownForm, "snippet could not be reconstructed", data)
	case errors.As(err, &syntaxErr):
		return newMCPError(ErrorCodeInvalidParams, "code does not parse", data)
	case errors.Is(err, host.ErrUnitNotFound):
		return newMCPError(ErrorCodeUnitNotFound, "unit not found", data)
	case errors.As(err, &loadErr):
		return newMCPError(ErrorCodeLoadFailed, "load failed", data)
	case errors.As(err, &ioErr):
		return newMCPError(ErrorCodeInternalError, "artifact file operation failed", data)
	default:
		return newMCPError(ErrorCodeInternalError, "redefinition failed", data)
	}
}

// historyError maps a history query failure onto an MCP error
func historyError(name string, err error) *MCPError {
	data := map[string]interface{}{
		"unit":  name,
		"error": err.Error(),
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return newMCPError(ErrorCodeUnitNotFound, "unit not found", data)
	case errors.Is(err, session.ErrHistoryDisabled):
		return newMCPError(ErrorCodeInternalError, "reload history is disabled", data)
	default:
		return newMCPError(ErrorCodeInternalError, "failed to read history", data)
	}
}

// newMCPError creates a new MCP error
func newMCPError(code int, message string, data interface{}) *MCPError {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
