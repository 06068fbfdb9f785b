package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bobmcallan/dns-mcp/internal/common"
	"github.com/bobmcallan/dns-mcp/internal/service"
)

// maxRequestBytes caps MCP request bodies on the HTTP transport.
const maxRequestBytes = 1 << 20

const shutdownTimeout = 10 * time.Second

// NewMCPServer builds an mcp-go server exposing every tool of svc. Calls are
// routed back through svc.Invoke so validation and logging match stdio.
func NewMCPServer(svc *service.Service) *server.MCPServer {
	mcpSrv := server.NewMCPServer(
		svc.Name(),
		svc.Version(),
		server.WithToolCapabilities(true),
		server.WithInstructions(svc.Instructions()),
	)

	for _, tool := range svc.ListTools() {
		mcpSrv.AddTool(tool, invokeHandler(svc))
	}
	return mcpSrv
}

func invokeHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return svc.Invoke(ctx, r.Params.Name, r.GetArguments())
	}
}

// NewHTTPHandler returns the router for the streamable HTTP transport:
// /mcp for MCP traffic and /health for liveness checks.
func NewHTTPHandler(svc *service.Service, logger *common.Logger) http.Handler {
	streamable := server.NewStreamableHTTPServer(NewMCPServer(svc),
		server.WithStateLess(true),
	)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(maxBodySizeMiddleware(maxRequestBytes))

	r.Get("/health", handleHealth)
	r.Handle("/mcp", streamable)

	logger.Info().
		Int("tools", len(svc.ListTools())).
		Str("server", svc.Name()).
		Msg("MCP HTTP handler initialized")

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// ServeHTTP listens on addr and serves handler until ctx is cancelled, then
// shuts the server down gracefully.
func ServeHTTP(ctx context.Context, addr string, handler http.Handler, logger *common.Logger) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info().
			Str("address", addr).
			Str("url", fmt.Sprintf("http://%s/mcp", addr)).
			Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("server failed: %w", err)
			return
		}
		errc <- nil
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := <-errc; err != nil {
		return err
	}

	logger.Info().Msg("HTTP server stopped")
	return nil
}

// loggingMiddleware logs each request with the chi request id.
func loggingMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(rw, r)

			event := logger.Debug()
			if rw.statusCode >= 500 {
				event = logger.Error()
			} else if rw.statusCode >= 400 {
				event = logger.Warn()
			}

			event.
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Int64("duration_ms", time.Since(start).Milliseconds()).
				Int("bytes", rw.bytesWritten).
				Str("remote", r.RemoteAddr).
				Msg("HTTP request")
		})
	}
}

// maxBodySizeMiddleware limits the size of request bodies.
func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// Flush lets streamed responses pass through the wrapper.
func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
