package stdio

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/calcmcp/calc-server-go/calcservice"
	"github.com/calcmcp/calc-server-go/internal/engine"
)

// maxLineBytes bounds a single JSON-RPC document on the wire.
const maxLineBytes = 4 * 1024 * 1024

// Handler is a single-connection stdio transport that reads JSON-RPC
// messages from an io.Reader and writes responses to an io.Writer. By
// default it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; protocol semantics live in the engine.
type Handler struct {
	r   io.Reader
	w   io.Writer
	l   *slog.Logger
	eng *engine.Engine
}

// NewHandler constructs a stdio Handler over the given tool set with
// defaults and applies options.
func NewHandler(tools *calcservice.ToolSet, opts ...Option) *Handler {
	h := &Handler{
		r: os.Stdin,
		w: os.Stdout,
		l: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.eng = engine.New(tools, h.l)
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. It is safe to call at most once per Handler. EOF is a clean
// shutdown and returns nil; a write failure is fatal since no response could
// ever reach the peer.
func (h *Handler) Serve(ctx context.Context) error {
	sess := &engine.LocalSession{}

	lines := make(chan []byte)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(h.r)
		scanner.Buffer(make([]byte, 64*1024), maxLineBytes)
		for scanner.Scan() {
			// The scanner reuses its buffer; hand off a copy.
			line := append([]byte(nil), scanner.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	h.l.InfoContext(ctx, "stdio transport serving")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("read input stream: %w", err)
					}
				default:
				}
				h.l.InfoContext(ctx, "input stream closed, shutting down")
				return nil
			}
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			resp := h.eng.HandleMessage(ctx, sess, line)
			if resp == nil {
				continue
			}
			if err := h.writeResponse(resp); err != nil {
				return fmt.Errorf("write output stream: %w", err)
			}
		}
	}
}

// writeResponse serializes a response as a single newline-terminated write.
// There is no output buffering: the peer is a synchronous reader waiting for
// a full line.
func (h *Handler) writeResponse(resp any) error {
	b, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal response: %w", err)
	}
	_, err = h.w.Write(append(b, '\n'))
	return err
}
