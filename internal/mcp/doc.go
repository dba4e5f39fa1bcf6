// Package mcp implements the Model Context Protocol (MCP) server for redefine.
//
// The server exposes one interactive session to AI coding assistants through
// these tools:
//   - redefine_unit: Load or replace a unit and publish its exports into Main
//   - eval: Evaluate statements in Main
//   - lookup: Show what a name in Main is bound to
//   - get_history: List past reloads of a unit
//   - list_forms: List the special forms the session can reconstruct
//   - get_status: Loaded units and history statistics
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout is the protocol channel, so everything else logs to stderr.
//
// # Basic Usage
//
//	redefine serve
//
// # Tool: redefine_unit
//
//	Request:
//	{
//	  "name": "redefine_unit",
//	  "arguments": {
//	    "name": "m1",
//	    "code": "export A, b\nstruct A\n    x::Int\nend\nb = A(1)"
//	  }
//	}
//
//	Response:
//	{
//	  "unit": "m1",
//	  "generation": 1,
//	  "artifact_path": "/work/m1.ul",
//	  "exports": ["A", "b", "eval"],
//	  "published": ["A = m1.A", "b = m1.b"],
//	  "skipped": ["eval"],
//	  "mode": "manifest"
//	}
//
// Running redefine_unit again with a changed struct replaces the unit, so
// Main sees the new A without restarting the session.
//
// # Tool: get_history
//
// Requires a history database (db_path). Reloads are returned newest first,
// failed runs included, together with the names the unit last published.
//
// # Error Handling
//
// Failures are returned as MCP errors:
//
//	-32602: Invalid params (missing name, bad identifier, code does not parse)
//	-32603: Internal error (artifact I/O, history disabled)
//	-32010: Snippet contains a form the registry cannot rebuild
//	-32011: The host rejected the unit or its manifest
//	-32012: Another redefinition is already running
//	-32013: Unit not found
//
// Errors raised by eval are user errors and come back as a tool result with
// IsError set rather than a protocol error.
package mcp
