package web

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"
)

// Server wraps the HTTP server and handlers.
type Server struct {
	addr     string
	handlers *Handlers
	metrics  http.Handler
}

// NewServer creates a server for addr. A nil d.StaticFS uses the
// embedded booth page; metrics may be nil to disable GET /metrics.
func NewServer(addr string, d Deps, metrics http.Handler) *Server {
	if d.StaticFS == nil {
		subFS, err := fs.Sub(staticFiles, "static")
		if err != nil {
			log.Fatalf("web: failed to sub static fs: %v", err)
		}
		d.StaticFS = subFS
	}

	return &Server{
		addr:     addr,
		handlers: NewHandlers(d),
		metrics:  metrics,
	}
}

// Handlers returns the server handlers, e.g. to wire the button trigger.
func (s *Server) Handlers() *Handlers {
	return s.handlers
}

// Mux returns an http.Handler with all routes registered.
func (s *Server) Mux() http.Handler {
	h := s.handlers
	mux := http.NewServeMux()

	mux.HandleFunc("GET /printers", h.HandlePrinters)
	mux.HandleFunc("POST /print", h.HandlePrint)
	if h.Pipeline != nil {
		prefix := "/" + strings.Trim(h.Pipeline.URLPrefix, "/")
		mux.HandleFunc("GET "+prefix+"/{name}", h.HandleArtifactFile)
	}

	mux.HandleFunc("POST /capture", h.HandleCapture)
	mux.HandleFunc("POST /capture/cancel", h.HandleCancel)
	mux.HandleFunc("GET /session", h.HandleSession)
	mux.HandleFunc("GET /session/artifact", h.HandleArtifact)
	mux.HandleFunc("DELETE /session/artifact", h.HandleClearArtifact)
	mux.HandleFunc("POST /session/print", h.HandleSessionPrint)

	mux.HandleFunc("GET /config", h.HandleConfig)
	mux.HandleFunc("GET /status/stream", h.HandleStatusStream)
	mux.HandleFunc("GET /status/ws", h.HandleStatusWS)
	mux.HandleFunc("GET /healthcheck", h.HandleHealthcheck)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics)
	}
	mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.FS(h.staticFS))))
	mux.HandleFunc("GET /{$}", h.ServeIndex) // exact match for root only

	return mux
}

// Run starts the server and blocks until ctx is cancelled, then shuts down
// gracefully. Capture cycles started over HTTP run under ctx.
func (s *Server) Run(ctx context.Context) error {
	s.handlers.SetBaseContext(ctx)
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Mux(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("web server listening on %s", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
