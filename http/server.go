package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/docsearch"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Server timeouts.
const (
	ShutdownTimeout = 5 * time.Second
	ReadTimeout     = 10 * time.Second
	WriteTimeout    = 30 * time.Second
)

// Server exposes search, MCP context retrieval, crawl triggering and
// health over HTTP.
type Server struct {
	ln     net.Listener
	server *http.Server

	// Addr is the bind address, e.g. ":3000". Set before Open.
	Addr string

	// SourceName is reported in MCP response metadata.
	SourceName string

	Logger        *slog.Logger
	SearchService docsearch.SearchService
	CrawlService  docsearch.CrawlService

	// Instrument wraps every request when set, e.g. with metrics.
	Instrument func(http.Handler) http.Handler

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewServer returns a Server with default settings.
func NewServer() *Server {
	return &Server{
		SourceName: "Zerops Documentation",
		Logger:     slog.New(slog.DiscardHandler),
		Now:        time.Now,
	}
}

// Open binds Addr and starts serving in the background.
func (s *Server) Open() (err error) {
	if s.ln, err = net.Listen("tcp", s.Addr); err != nil {
		return err
	}
	s.server = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
	}
	go func() {
		if err := s.server.Serve(s.ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger().Error("http server stopped", "err", err)
		}
	}()
	return nil
}

// Close gracefully shuts down the server.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the TCP port of the running server.
func (s *Server) Port() int {
	if s.ln == nil {
		return 0
	}
	return s.ln.Addr().(*net.TCPAddr).Port
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	host := "localhost"
	if s.ln != nil {
		if h, _, err := net.SplitHostPort(s.ln.Addr().String()); err == nil && h != "::" && h != "0.0.0.0" {
			host = h
		}
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.Port()))
}

// Handler builds the router. Open calls it; tests use it with httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.Instrument != nil {
		r.Use(s.Instrument)
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	if s.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", s.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/crawl", s.handleCrawl)
		r.Get("/search", s.handleSearch)
		r.Post("/mcp", s.handleMCP)
	})

	return r
}

// logRequests logs one line per request with status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			s.logger().Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return s.Logger
}

func (s *Server) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// errorStatus maps application error codes to HTTP status codes.
var errorStatus = map[string]int{
	docsearch.ECONFLICT: http.StatusConflict,
	docsearch.EINVALID:  http.StatusBadRequest,
	docsearch.ENOTFOUND: http.StatusNotFound,
	docsearch.EINTERNAL: http.StatusInternalServerError,
}

// Error writes err as a JSON error response. Internal errors are logged and
// their details withheld from the client.
func (s *Server) Error(w http.ResponseWriter, r *http.Request, err error) {
	code, message := docsearch.ErrorCode(err), docsearch.ErrorMessage(err)

	switch code {
	case docsearch.EINTERNAL:
		s.logger().Error("http error", "method", r.Method, "path", r.URL.Path, "err", err)
	case docsearch.EINVALID:
		s.logger().Debug("http error", "method", r.Method, "path", r.URL.Path, "err", err)
	default:
		s.logger().Warn("http error", "method", r.Method, "path", r.URL.Path, "err", err)
	}

	status, ok := errorStatus[code]
	if !ok {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, ErrorResponse{Error: message})
}

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
