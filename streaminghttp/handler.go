package streaminghttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/calcmcp/calc-server-go/calcservice"
	"github.com/calcmcp/calc-server-go/internal/engine"
	"github.com/calcmcp/calc-server-go/internal/logctx"
	"github.com/calcmcp/calc-server-go/sessions"
	"github.com/elnormous/contenttype"
	"github.com/google/uuid"
)

var (
	_ http.Handler = (*Handler)(nil)
)

var (
	jsonMediaType = contenttype.NewMediaType("application/json")
)

const (
	// Use the canonical header name for clarity; Go matches headers
	// case-insensitively.
	mcpSessionIDHeader = "Mcp-Session-Id"

	// maxBodyBytes bounds a single JSON-RPC document.
	maxBodyBytes = 4 * 1024 * 1024
)

// writeJSONError emits a minimal JSON body for HTTP-layer rejections before
// a JSON-RPC message exchange is possible. We do NOT claim JSON-RPC framing
// here; this is transport-level.
// Shape: {"error":{"code":<httpStatus>,"message":"<reason>"}}
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"code": status, "message": msg}})
}

// Option configures the Handler.
type Option func(*Handler)

// WithLogger sets the slog logger used by the transport.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.log = l
		}
	}
}

// WithServerName sets the human-readable name surfaced in the root
// descriptor.
func WithServerName(name string) Option {
	return func(h *Handler) {
		if name != "" {
			h.serverName = name
		}
	}
}

// Handler is the HTTP transport. It delegates protocol semantics to the
// engine and session persistence to the store.
type Handler struct {
	eng        *engine.Engine
	store      sessions.Store
	log        *slog.Logger
	serverName string
}

// New constructs the HTTP transport over the given tool set and session
// store.
func New(tools *calcservice.ToolSet, store sessions.Store, opts ...Option) *Handler {
	h := &Handler{
		store:      store,
		log:        slog.Default(),
		serverName: calcservice.ServerInfo.Name,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.eng = engine.New(tools, h.log)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := logctx.WithRequestData(r.Context(), &logctx.RequestData{
		Method:     r.Method,
		UserAgent:  r.UserAgent(),
		RemoteAddr: r.RemoteAddr,
		Path:       r.URL.Path,
	})
	r = r.WithContext(ctx)

	switch {
	case r.URL.Path == "/" && r.Method == http.MethodGet:
		h.handleRoot(w, r)
	case r.URL.Path == "/health" && r.Method == http.MethodGet:
		h.handleHealth(w, r)
	case r.URL.Path == "/mcp" && r.Method == http.MethodPost:
		h.handleMCP(w, r)
	case r.URL.Path == "/mcp":
		w.Header().Set("Allow", http.MethodPost)
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	default:
		writeJSONError(w, http.StatusNotFound, "not found")
	}
}

// handleRoot serves a small descriptor so operators can see what is running.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"name":      h.serverName,
		"version":   calcservice.ServerInfo.Version,
		"transport": "streamablehttp",
		"endpoints": map[string]string{
			"health": "GET /health",
			"mcp":    "POST /mcp",
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"transport": "streamablehttp",
	})
}

// handleMCP processes one JSON-RPC document per POST.
func (h *Handler) handleMCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ctype, err := contenttype.GetMediaType(r)
	if err != nil || !ctype.Matches(jsonMediaType) {
		writeJSONError(w, http.StatusUnsupportedMediaType, "content-type must be application/json")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSONError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}

	sess, err := h.resolveSession(r)
	if err != nil {
		h.log.ErrorContext(ctx, "failed to resolve session", slog.String("err", err.Error()))
		writeJSONError(w, http.StatusInternalServerError, "session store unavailable")
		return
	}

	ctx = logctx.WithSessionData(ctx, &logctx.SessionData{
		SessionID:       sess.rec.ID,
		ProtocolVersion: sess.rec.ProtocolVersion,
		Initialized:     sess.rec.Initialized,
	})

	resp := h.eng.HandleMessage(ctx, sess, body)

	// Echo the session id so the client can correlate subsequent requests.
	if sess.rec.Initialized || sess.adopted {
		w.Header().Set(mcpSessionIDHeader, sess.rec.ID)
	}

	if resp == nil {
		w.WriteHeader(http.StatusAccepted)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// resolveSession loads the record named by the Mcp-Session-Id header, or
// prepares a fresh one. Unknown ids are re-adopted rather than rejected: the
// protocol is permissive about clients that skip or lose the handshake.
func (h *Handler) resolveSession(r *http.Request) (*storeSession, error) {
	ctx := r.Context()
	id := r.Header.Get(mcpSessionIDHeader)
	if id == "" {
		return &storeSession{
			store: h.store,
			rec:   sessions.Record{ID: uuid.NewString(), CreatedAt: time.Now().UTC()},
		}, nil
	}

	rec, err := h.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sessions.ErrNotFound) {
			return &storeSession{
				store:   h.store,
				rec:     sessions.Record{ID: id, CreatedAt: time.Now().UTC()},
				adopted: true,
			}, nil
		}
		return nil, err
	}
	return &storeSession{store: h.store, rec: rec, adopted: true}, nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", jsonMediaType.String())
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to write response", slog.String("err", err.Error()))
	}
}

// storeSession adapts a sessions.Record to the engine's Session interface,
// persisting the record on initialize.
type storeSession struct {
	store sessions.Store
	rec   sessions.Record

	// adopted is true when the client presented the session id itself.
	adopted bool
}

func (s *storeSession) Initialized() bool { return s.rec.Initialized }

func (s *storeSession) Initialize(ctx context.Context, protocolVersion string) error {
	s.rec.Initialized = true
	s.rec.ProtocolVersion = protocolVersion
	if s.rec.CreatedAt.IsZero() {
		s.rec.CreatedAt = time.Now().UTC()
	}
	return s.store.Put(ctx, s.rec)
}
