package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// redefineUnitTool returns the tool definition for redefine_unit
func redefineUnitTool() mcp.Tool {
	return mcp.Tool{
		Name:        "redefine_unit",
		Description: "Load or replace a unit and publish its exports into Main",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Unit name (a valid identifier, e.g. m1)",
				},
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Unit body; import, using, export, struct and assignment statements",
				},
			},
			Required: []string{"name", "code"},
		},
	}
}

// evalTool returns the tool definition for eval
func evalTool() mcp.Tool {
	return mcp.Tool{
		Name:        "eval",
		Description: "Evaluate statements in Main and return the value of the last one",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"code": map[string]interface{}{
					"type":        "string",
					"description": "Statements to evaluate",
				},
			},
			Required: []string{"code"},
		},
	}
}

// lookupTool returns the tool definition for lookup
func lookupTool() mcp.Tool {
	return mcp.Tool{
		Name:        "lookup",
		Description: "Show the value currently bound to a name in Main",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name to look up",
				},
			},
			Required: []string{"name"},
		},
	}
}

// getHistoryTool returns the tool definition for get_history
func getHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_history",
		Description: "List past reloads of a unit, newest first, with the names it last published",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Unit name",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of reloads to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"name"},
		},
	}
}

// listFormsTool returns the tool definition for list_forms
func listFormsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_forms",
		Description: "List the special forms the session can reconstruct",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Show loaded units and reload history statistics",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
