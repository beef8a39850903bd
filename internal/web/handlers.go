package web

import (
	"context"
	"io/fs"
	"net/http"
	"time"

	"github.com/cjeanneret/photobooth/internal/artifact"
	"github.com/cjeanneret/photobooth/internal/logic/capture"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
	"golang.org/x/time/rate"
)

// UIConfig holds the defaults the booth page starts with (from config).
type UIConfig struct {
	Template  string          `json:"template"`
	Border    string          `json:"border"`
	Templates []string        `json:"templates"`
	Borders   []layout.Border `json:"borders"`
	Countdown int             `json:"countdown"` // first countdown, in ticks
	TickMs    int             `json:"tick_ms"`
}

// Deps are the collaborators of the HTTP handlers.
type Deps struct {
	Broadcaster *StatusBroadcaster
	Machine     *capture.Machine // nil: capture routes answer 503
	Pipeline    *artifact.Pipeline
	Printers    artifact.Lister // nil: GET /printers answers an empty list
	UI          UIConfig
	Cooldown    time.Duration // minimum gap between two capture triggers, 0 = none
	MaxBody     int64         // POST /print body limit in bytes
	StaticFS    fs.FS
}

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Machine     *capture.Machine
	Pipeline    *artifact.Pipeline
	Printers    artifact.Lister
	UI          UIConfig
	maxBody     int64
	limiter     *rate.Limiter
	baseCtx     context.Context
	staticFS    fs.FS
}

const defaultMaxBody = 50 << 20

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(d Deps) *Handlers {
	h := &Handlers{
		Broadcaster: d.Broadcaster,
		Machine:     d.Machine,
		Pipeline:    d.Pipeline,
		Printers:    d.Printers,
		UI:          d.UI,
		maxBody:     d.MaxBody,
		baseCtx:     context.Background(),
		staticFS:    d.StaticFS,
	}
	if h.Broadcaster == nil {
		h.Broadcaster = NewStatusBroadcaster()
	}
	if h.maxBody <= 0 {
		h.maxBody = defaultMaxBody
	}
	if d.Cooldown > 0 {
		h.limiter = rate.NewLimiter(rate.Every(d.Cooldown), 1)
	}
	if h.UI.Templates == nil {
		h.UI.Templates = layout.Templates()
	}
	if h.UI.Borders == nil {
		h.UI.Borders = layout.Borders()
	}
	return h
}

// SetBaseContext sets the context capture cycles started over HTTP run
// under. Cycles outlive their request, so they must not use its context.
func (h *Handlers) SetBaseContext(ctx context.Context) {
	h.baseCtx = ctx
}

// HandleConfig returns the booth page defaults as JSON.
func (h *Handlers) HandleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.UI)
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleHealthcheck answers 200 OK while the process serves requests.
func (h *Handlers) HandleHealthcheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
