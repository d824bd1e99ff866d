package http

import (
	"context"
	"net/http"
	"time"

	"cobrancas/internal/core"
	applog "cobrancas/internal/log"
	"cobrancas/internal/middleware/security"
	"cobrancas/internal/middleware/trace"
	"cobrancas/internal/services"
)

// Coordinator is the agreement service the API drives.
type Coordinator interface {
	Refresh(ctx context.Context) ([]core.Agreement, error)
	Snapshot() services.Snapshot
	AddAgreement(ctx context.Context, n core.NewAgreement) (string, error)
	MarkPaid(ctx context.Context, id string) error
	Today() time.Time
}

// Options tunes the server beyond its required collaborators.
type Options struct {
	// Location decides which calendar day "today" is. Defaults to UTC.
	Location *time.Location
	// AllowedOrigins enables CORS for browser clients.
	AllowedOrigins []string
	Logger         *applog.Logger
}

type Server struct {
	http.Server
	coord  Coordinator
	loc    *time.Location
	logger *applog.Logger
	trace  *trace.Middleware
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, coord Coordinator, opts Options) *Server {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	s := &Server{
		coord:  coord,
		loc:    loc,
		logger: logger,
		trace:  trace.NewMiddleware(logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/due", s.handleDue)
	mux.HandleFunc("GET /api/agreements", s.handleAgreements)
	mux.HandleFunc("POST /api/agreements", s.handleCreateAgreement)
	mux.HandleFunc("POST /api/agreements/{id}/paid", s.handleMarkPaid)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)

	headersCfg := security.DefaultHeadersConfig()
	headersCfg.AllowedOrigins = opts.AllowedOrigins
	headers := security.NewHeadersMiddleware(headersCfg)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.trace.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// today returns the current calendar instant in the server's location.
func (s *Server) today() time.Time {
	return s.coord.Today().In(s.loc)
}

// Metrics exposes request counters collected by the trace middleware.
func (s *Server) Metrics() trace.Metrics {
	return s.trace.GetMetrics()
}
