package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/cjeanneret/photobooth/internal/artifact"
	"github.com/cjeanneret/photobooth/internal/hw/camera"
	"github.com/cjeanneret/photobooth/internal/logic/capture"
	"github.com/cjeanneret/photobooth/internal/logic/compose"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
	"github.com/cjeanneret/photobooth/internal/metrics"
)

// ErrThrottled is returned when a trigger arrives within the cooldown.
var ErrThrottled = errors.New("capture cooldown in effect")

// CaptureRequest is the body of POST /capture. Both fields are optional.
type CaptureRequest struct {
	Template string `json:"template"`
	Border   string `json:"border"`
}

// ParseCaptureRequest converts names into a capture request. Empty names
// keep the machine defaults.
func ParseCaptureRequest(cr CaptureRequest) (capture.Request, error) {
	var req capture.Request
	if cr.Template != "" {
		t, err := layout.ParseTemplate(cr.Template)
		if err != nil {
			return req, err
		}
		req.Template = t
	}
	if cr.Border != "" {
		b, err := layout.ParseBorder(cr.Border)
		if err != nil {
			return req, err
		}
		req.Border = b
	}
	return req, nil
}

// StartCapture gates a trigger (machine present, idle, outside the
// cooldown) and starts a cycle. It is shared by POST /capture and the
// physical button; source labels the trigger in metrics.
func (h *Handlers) StartCapture(source string, req capture.Request) error {
	result := "started"
	defer func() { metrics.RecordTrigger(source, result) }()

	if h.Machine == nil {
		result = "unavailable"
		return camera.ErrUnavailable
	}
	if h.Machine.State() != capture.Idle {
		result = "busy"
		return capture.ErrBusy
	}
	if h.limiter != nil && !h.limiter.Allow() {
		result = "throttled"
		return ErrThrottled
	}
	if !h.Machine.Trigger(h.baseCtx, req) {
		result = "busy"
		return capture.ErrBusy
	}
	return nil
}

// CaptureObserver returns a machine observer that forwards cycle events
// to the status feed and records them in metrics.
func CaptureObserver(b *StatusBroadcaster) capture.Observer {
	return func(e capture.Event) {
		switch e.Kind {
		case capture.EventState:
			if e.State == capture.Countdown {
				metrics.RecordCaptureStart()
			}
		case capture.EventPublished:
			metrics.RecordCaptureEnd(e.Template, "published", e.Elapsed.Seconds())
		case capture.EventFailed:
			metrics.RecordCaptureEnd(e.Template, "failed", e.Elapsed.Seconds())
			b.Broadcast("error", "Capture failed: "+e.Error)
		case capture.EventCancelled:
			metrics.RecordCaptureEnd(e.Template, "cancelled", e.Elapsed.Seconds())
		}
		b.Publish(string(e.Kind), e)
	}
}

// HandleCapture handles POST /capture to start a cycle.
func (h *Handlers) HandleCapture(w http.ResponseWriter, r *http.Request) {
	var body CaptureRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	req, err := ParseCaptureRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "")
		return
	}

	switch err := h.StartCapture("http", req); {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
	case errors.Is(err, capture.ErrBusy):
		writeError(w, http.StatusConflict, "capture already in progress", "")
	case errors.Is(err, ErrThrottled):
		writeError(w, http.StatusTooManyRequests, "capture cooldown in effect, try again shortly", "")
	default:
		writeError(w, http.StatusServiceUnavailable, "capture not available", err.Error())
	}
}

// HandleCancel handles POST /capture/cancel.
func (h *Handlers) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if h.Machine == nil {
		writeError(w, http.StatusServiceUnavailable, "capture not available", "")
		return
	}
	if !h.Machine.Cancel() {
		writeError(w, http.StatusConflict, "no capture in progress", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// ArtifactView describes the published artifact for the booth page.
type ArtifactView struct {
	ID          string    `json:"id"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Template    string    `json:"template"`
	Border      string    `json:"border"`
	BorderClass string    `json:"border_class"`
	CreatedAt   time.Time `json:"created_at"`
	URL         string    `json:"url"`
}

// SessionView is the body of GET /session.
type SessionView struct {
	State      string        `json:"state"`
	ID         string        `json:"id,omitempty"`
	Template   string        `json:"template,omitempty"`
	Border     string        `json:"border,omitempty"`
	InProgress bool          `json:"in_progress"`
	Remaining  int           `json:"remaining"`
	Grabbed    int           `json:"grabbed"`
	Frames     int           `json:"frames"`
	Artifact   *ArtifactView `json:"artifact"`
}

func (h *Handlers) sessionView() SessionView {
	st := h.Machine.Status()
	s := st.Session
	v := SessionView{
		State:      st.State.String(),
		ID:         s.ID,
		InProgress: s.InProgress,
		Remaining:  st.Remaining,
		Grabbed:    st.Grabbed,
		Frames:     s.Template.Frames,
	}
	if s.ID != "" {
		v.Template = s.Template.Name()
		v.Border = string(s.Border)
	}
	if a := s.Artifact; a != nil {
		v.Artifact = &ArtifactView{
			ID:          a.ID,
			Width:       a.Width,
			Height:      a.Height,
			Template:    a.Template.Name(),
			Border:      string(a.Border),
			BorderClass: a.Border.Class(),
			CreatedAt:   a.CreatedAt,
			URL:         "/session/artifact?id=" + a.ID,
		}
	}
	return v
}

// HandleSession handles GET /session.
func (h *Handlers) HandleSession(w http.ResponseWriter, r *http.Request) {
	if h.Machine == nil {
		writeError(w, http.StatusServiceUnavailable, "capture not available", "")
		return
	}
	writeJSON(w, http.StatusOK, h.sessionView())
}

// HandleArtifact handles GET /session/artifact: the published PNG.
func (h *Handlers) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	a := h.currentArtifact(w)
	if a == nil {
		return
	}
	w.Header().Set("Content-Type", compose.MediaTypePNG)
	w.Header().Set("Cache-Control", "no-store")
	w.Write(a.PNG)
}

// HandleClearArtifact handles DELETE /session/artifact.
func (h *Handlers) HandleClearArtifact(w http.ResponseWriter, r *http.Request) {
	if h.Machine == nil {
		writeError(w, http.StatusServiceUnavailable, "capture not available", "")
		return
	}
	if !h.Machine.ClearArtifact() {
		writeError(w, http.StatusNotFound, "no artifact", "")
		return
	}
	h.Broadcaster.Publish("cleared", nil)
	w.WriteHeader(http.StatusNoContent)
}

// HandleSessionPrint handles POST /session/print: the published artifact
// goes through the same pipeline as POST /print.
func (h *Handlers) HandleSessionPrint(w http.ResponseWriter, r *http.Request) {
	var body PrintRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<16)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	a := h.currentArtifact(w)
	if a == nil {
		return
	}
	if h.Pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "print pipeline not configured", "")
		return
	}

	payload := artifact.Payload{MediaType: compose.MediaTypePNG, Ext: "png", Data: a.PNG}
	res, err := h.Pipeline.IngestPayload(r.Context(), payload, body.options())
	h.writeIngest(w, res, err)
}

func (h *Handlers) currentArtifact(w http.ResponseWriter) *capture.Artifact {
	if h.Machine == nil {
		writeError(w, http.StatusServiceUnavailable, "capture not available", "")
		return nil
	}
	a := h.Machine.Artifact()
	if a == nil {
		writeError(w, http.StatusNotFound, "no artifact", "")
	}
	return a
}
