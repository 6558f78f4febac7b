// Package mcp defines the wire types for the calculator server's MCP
// dialect: the initialize handshake, tool listing, and batched tool calls.
// Types here mirror the JSON shapes exchanged with clients and carry no
// behavior; the protocol state machine lives in internal/engine.
package mcp
