// Command calc-server runs the calculator MCP server over stdio (default)
// or streamable HTTP. All configuration comes from the environment.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/calcmcp/calc-server-go/calcservice"
	"github.com/calcmcp/calc-server-go/internal/logctx"
	"github.com/calcmcp/calc-server-go/sessions"
	"github.com/calcmcp/calc-server-go/sessions/memoryhost"
	"github.com/calcmcp/calc-server-go/sessions/redishost"
	"github.com/calcmcp/calc-server-go/stdio"
	"github.com/calcmcp/calc-server-go/streaminghttp"
	"github.com/joeshaw/envdecode"
)

type config struct {
	// Transport selects the serving mode: "stdio" or "http".
	Transport string `env:"CALC_TRANSPORT,default=stdio"`
	// HTTPAddr is the listen address for the HTTP transport.
	HTTPAddr string `env:"CALC_HTTP_ADDR,default=0.0.0.0:8000"`
	// SessionBackend selects the HTTP session store: "memory" or "redis".
	SessionBackend string `env:"CALC_SESSION_BACKEND,default=memory"`
	// LogLevel sets the stderr log verbosity.
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func main() {
	var cfg config
	if err := envdecode.Decode(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", slog.String("err", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config, log *slog.Logger) error {
	tools := calcservice.NewCalculatorToolSet(log)

	switch strings.ToLower(cfg.Transport) {
	case "stdio":
		h := stdio.NewHandler(tools, stdio.WithLogger(log))
		if err := h.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil

	case "http":
		store, closeStore, err := newSessionStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		h := streaminghttp.New(tools, store, streaminghttp.WithLogger(log))
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           h,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			log.Info("http transport serving", slog.String("addr", cfg.HTTPAddr))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}

	default:
		return fmt.Errorf("unknown transport %q (want stdio or http)", cfg.Transport)
	}
}

func newSessionStore(cfg config) (sessions.Store, func(), error) {
	switch strings.ToLower(cfg.SessionBackend) {
	case "memory":
		return memoryhost.New(), func() {}, nil
	case "redis":
		host, err := redishost.NewFromEnv()
		if err != nil {
			return nil, nil, fmt.Errorf("redis session store: %w", err)
		}
		return host, func() { _ = host.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q (want memory or redis)", cfg.SessionBackend)
	}
}

// newLogger builds the stderr JSON logger. Logs never touch stdout: on the
// stdio transport, stdout carries the protocol stream.
func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	base := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	return slog.New(logctx.Handler{Handler: base})
}
