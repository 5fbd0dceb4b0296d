// Package httpapi exposes the user-memory store to out-of-process tools over
// HTTP/JSON. Tools call POST /api/session/start with an email (or workspace
// email), a display name, and a tool identifier, and receive the session
// bootstrap bundle: session id, user stats, preferences, and tool-filtered
// projects, plus a bearer token for the remaining endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/supermega-io/usermemory/internal/logging"
	"github.com/supermega-io/usermemory/internal/server/services"
)

type HTTPServer struct {
	address   string
	logger    logging.Logger
	users     *services.UserService
	sessions  *services.SessionService
	projects  *services.ProjectService
	jwtSecret []byte
	tokenTTL  time.Duration
}

func NewHTTPServer(a string, l logging.Logger, us *services.UserService, ss *services.SessionService,
	ps *services.ProjectService, secretKey string, tokenTTL time.Duration) (*HTTPServer, error) {
	return &HTTPServer{
		address:   a,
		logger:    l.With("module", "http_server"),
		users:     us,
		sessions:  ss,
		projects:  ps,
		jwtSecret: []byte(secretKey),
		tokenTTL:  tokenTTL,
	}, nil
}

// routes wires every endpoint. Everything except ping and session start
// requires a bearer token minted at bootstrap.
func (s *HTTPServer) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/ping", s.handlePing)
	mux.HandleFunc("POST /api/session/start", s.handleSessionStart)

	mux.Handle("GET /api/sessions/{id}", s.withAuth(http.HandlerFunc(s.handleGetSession)))
	mux.Handle("PUT /api/sessions/{id}", s.withAuth(http.HandlerFunc(s.handleUpdateSession)))
	mux.Handle("POST /api/usage", s.withAuth(http.HandlerFunc(s.handleLogUsage)))
	mux.Handle("GET /api/projects", s.withAuth(http.HandlerFunc(s.handleListProjects)))
	mux.Handle("POST /api/projects", s.withAuth(http.HandlerFunc(s.handleSaveProject)))
	mux.Handle("POST /api/projects/{id}/thumbnail", s.withAuth(http.HandlerFunc(s.handleThumbnailUploadURL)))
	mux.Handle("GET /api/projects/{id}/thumbnail", s.withAuth(http.HandlerFunc(s.handleThumbnailDownloadURL)))
	mux.Handle("GET /api/preferences", s.withAuth(http.HandlerFunc(s.handleGetPreferences)))
	mux.Handle("PUT /api/preferences/{key}", s.withAuth(http.HandlerFunc(s.handleSetPreference)))
	mux.Handle("GET /api/stats", s.withAuth(http.HandlerFunc(s.handleStats)))

	return mux
}

func (s *HTTPServer) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	return nil
}
