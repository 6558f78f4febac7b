// Package streaminghttp serves the calculator's MCP dialect over HTTP.
// Each POST to /mcp carries one JSON-RPC document and receives one JSON
// response; notifications are acknowledged with 202 and no body. Client
// sessions are correlated with the Mcp-Session-Id header and persisted in a
// sessions.Store so the transport itself stays stateless. GET / returns a
// server descriptor and GET /health a liveness probe.
package streaminghttp
