// Package engine implements the protocol state machine shared by the stdio
// and HTTP transports: it decodes JSON-RPC documents, tracks the session
// lifecycle, routes methods, and builds responses. Transports own framing
// and delivery; the engine owns every protocol decision.
package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/calcmcp/calc-server-go/calcservice"
	"github.com/calcmcp/calc-server-go/internal/jsonrpc"
	"github.com/calcmcp/calc-server-go/internal/logctx"
	"github.com/calcmcp/calc-server-go/mcp"
)

// Session is the engine's view of per-connection protocol state. The stdio
// transport backs it with a single in-process value; the HTTP transport backs
// it with a session store keyed by the Mcp-Session-Id header.
type Session interface {
	// Initialized reports whether the initialize handshake completed.
	Initialized() bool
	// Initialize records a successful handshake with the negotiated
	// protocol version. Repeat calls are idempotent.
	Initialize(ctx context.Context, protocolVersion string) error
}

// LocalSession is a Session for single-connection transports. The zero value
// is an uninitialized session.
type LocalSession struct {
	initialized     bool
	protocolVersion string
}

func (s *LocalSession) Initialized() bool { return s.initialized }

func (s *LocalSession) Initialize(_ context.Context, protocolVersion string) error {
	s.initialized = true
	s.protocolVersion = protocolVersion
	return nil
}

// ProtocolVersion returns the negotiated protocol version, if any.
func (s *LocalSession) ProtocolVersion() string { return s.protocolVersion }

// Engine routes decoded requests against the tool table. It holds no mutable
// state of its own; session state is passed in per call.
type Engine struct {
	tools *calcservice.ToolSet
	info  mcp.ImplementationInfo
	caps  mcp.ServerCapabilities
	log   *slog.Logger
}

// New constructs an Engine over the given tool set.
func New(tools *calcservice.ToolSet, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		tools: tools,
		info:  calcservice.ServerInfo,
		caps:  calcservice.Capabilities,
		log:   log,
	}
}

// HandleMessage decodes a single raw JSON-RPC document and dispatches it.
// The returned response is nil for notifications. Malformed JSON yields a
// Parse Error response with a null id, since the originating id could not be
// recovered. Well-formed JSON that is not a request object (an array, a bare
// number) is an Invalid Request, also with a null id.
func (e *Engine) HandleMessage(ctx context.Context, sess Session, data []byte) (resp *jsonrpc.Response) {
	defer func() {
		// Best-effort error response on an internal fault; the read loop
		// must survive any single request.
		if r := recover(); r != nil {
			e.log.ErrorContext(ctx, "panic while handling message", slog.Any("panic", r))
			resp = jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInternalError, "Internal error", fmt.Sprintf("%v", r))
		}
	}()

	req, err := jsonrpc.DecodeRequest(data)
	if err != nil {
		e.log.WarnContext(ctx, "failed to parse message", slog.String("err", err.Error()))
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest, "Invalid Request", err.Error())
		}
		return jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "Parse error", err.Error())
	}

	return e.HandleRequest(ctx, sess, req)
}

// HandleRequest dispatches a decoded request. Notifications are processed
// for their effects but never answered.
func (e *Engine) HandleRequest(ctx context.Context, sess Session, req *jsonrpc.Request) *jsonrpc.Response {
	msgType := "request"
	if req.IsNotification() {
		msgType = "notification"
	}
	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: req.Method,
		ID:     req.ID.String(),
		Type:   msgType,
	})

	if err := req.Validate(); err != nil {
		e.log.WarnContext(ctx, "invalid request", slog.String("err", err.Error()))
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidRequest, "Invalid Request", err.Error())
	}

	e.log.DebugContext(ctx, "handling request")

	switch mcp.Method(req.Method) {
	case mcp.InitializeMethod:
		return e.respond(req, e.handleInitialize(ctx, sess, req))
	case mcp.InitializedNotificationMethod:
		e.log.InfoContext(ctx, "client reported initialization complete")
		return nil
	case mcp.PingMethod:
		return e.respond(req, e.result(req.ID, mcp.EmptyResult{}))
	case mcp.ToolsListMethod:
		return e.respond(req, e.handleToolsList(ctx, req))
	case mcp.ToolsCallMethod:
		return e.respond(req, e.handleToolsCall(ctx, req))
	default:
		e.log.WarnContext(ctx, "method not found")
		if req.IsNotification() {
			return nil
		}
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "Method not found", fmt.Sprintf("Unknown method: %s", req.Method))
	}
}

// respond suppresses responses to notifications after side effects ran.
func (e *Engine) respond(req *jsonrpc.Request, resp *jsonrpc.Response) *jsonrpc.Response {
	if req.IsNotification() {
		return nil
	}
	return resp
}

// result marshals a success payload, degrading to an Internal Error response
// when marshaling fails.
func (e *Engine) result(id *jsonrpc.RequestID, v any) *jsonrpc.Response {
	resp, err := jsonrpc.NewResultResponse(id, v)
	if err != nil {
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInternalError, "Internal error", err.Error())
	}
	return resp
}

// handleInitialize performs the handshake. Re-initialization is idempotent:
// the same success shape comes back and session state is unchanged beyond
// the recorded protocol version.
func (e *Engine) handleInitialize(ctx context.Context, sess Session, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.InitializeRequest
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			e.log.WarnContext(ctx, "malformed initialize params", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid params", err.Error())
		}
	}

	// Echo the client's protocol version when it names one.
	protocolVersion := params.ProtocolVersion
	if protocolVersion == "" {
		protocolVersion = mcp.DefaultProtocolVersion
	}

	if err := sess.Initialize(ctx, protocolVersion); err != nil {
		e.log.ErrorContext(ctx, "failed to persist session state", slog.String("err", err.Error()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, "Internal error", err.Error())
	}

	e.log.InfoContext(ctx, "session initialized",
		slog.String("protocol_version", protocolVersion),
		slog.String("client", params.ClientInfo.Name),
	)

	return e.result(req.ID, mcp.InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities:    e.caps,
		ServerInfo:      e.info,
	})
}

// handleToolsList serves the fixed tool table in declaration order. Listing
// is deliberately permissive: clients that skip initialize still get served.
func (e *Engine) handleToolsList(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	return e.result(req.ID, mcp.ListToolsResult{Tools: e.tools.Descriptors()})
}

// handleToolsCall evaluates an invocation batch. Only a structurally invalid
// params object (no invocation list at all) produces a top-level error;
// every per-invocation failure is reported inline.
func (e *Engine) handleToolsCall(ctx context.Context, req *jsonrpc.Request) *jsonrpc.Response {
	var params mcp.CallToolParams
	if len(req.Params) > 0 {
		if err := json.Unmarshal(req.Params, &params); err != nil {
			e.log.WarnContext(ctx, "malformed tools/call params", slog.String("err", err.Error()))
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid params", err.Error())
		}
	}

	specs, ok := params.Invocations()
	if !ok {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Invalid params", "params must carry a calls list or a single name/arguments invocation")
	}

	return e.result(req.ID, e.tools.CallBatch(ctx, specs))
}
