package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cjeanneret/photobooth/internal/artifact"
)

// PrintRequest is the body of POST /print and POST /session/print.
type PrintRequest struct {
	DataURL     string `json:"dataUrl"`
	PrinterName string `json:"printerName"`
	SavePDF     bool   `json:"savePdf"`
}

func (p PrintRequest) options() artifact.Options {
	return artifact.Options{PrinterName: p.PrinterName, SavePDF: p.SavePDF}
}

// PrintResponse is the success body of the print routes.
type PrintResponse struct {
	OK   bool   `json:"ok"`
	ID   string `json:"id"`
	File string `json:"file"`
	PDF  bool   `json:"pdf,omitempty"`
	URL  string `json:"url,omitempty"`
}

// HandlePrinters handles GET /printers. Enumeration failures yield an
// empty list, never an error.
func (h *Handlers) HandlePrinters(w http.ResponseWriter, r *http.Request) {
	printers := []string{}
	if h.Printers != nil {
		printers = h.Printers.List(r.Context())
	}
	writeJSON(w, http.StatusOK, map[string][]string{"printers": printers})
}

// HandlePrint handles POST /print {dataUrl, printerName?, savePdf?}.
func (h *Handlers) HandlePrint(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)

	var body PrintRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Payload too large", err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	if body.DataURL == "" {
		writeError(w, http.StatusBadRequest, "Missing dataUrl", "")
		return
	}
	if h.Pipeline == nil {
		writeError(w, http.StatusServiceUnavailable, "print pipeline not configured", "")
		return
	}

	res, err := h.Pipeline.Ingest(r.Context(), body.DataURL, body.options())
	h.writeIngest(w, res, err)
}

// writeIngest maps a pipeline outcome to the print routes' JSON contract.
func (h *Handlers) writeIngest(w http.ResponseWriter, res artifact.Result, err error) {
	if err == nil {
		if res.PDF {
			h.Broadcaster.Publish("pdf", res)
		} else {
			h.Broadcaster.Publish("printed", res)
		}
		writeJSON(w, http.StatusOK, PrintResponse{OK: true, ID: res.ID, File: res.File, PDF: res.PDF, URL: res.URL})
		return
	}

	details := err.Error()
	var perr *artifact.Error
	if errors.As(err, &perr) {
		details = perr.Details()
	}
	switch {
	case errors.Is(err, artifact.ErrMissingPayload):
		writeError(w, http.StatusBadRequest, "Missing dataUrl", "")
	case errors.Is(err, artifact.ErrInvalidPayload):
		writeError(w, http.StatusBadRequest, "Invalid dataUrl", "")
	case errors.Is(err, artifact.ErrPrintFailed):
		writeError(w, http.StatusInternalServerError, "Print failed", details)
	case errors.Is(err, artifact.ErrPdfGenerationFailed):
		writeError(w, http.StatusInternalServerError, "PDF generation failed", details)
	default:
		writeError(w, http.StatusInternalServerError, "Server error", details)
	}
}

// HandleArtifactFile serves a generated artifact for download.
func (h *Handlers) HandleArtifactFile(w http.ResponseWriter, r *http.Request) {
	if h.Pipeline == nil {
		http.NotFound(w, r)
		return
	}
	name := r.PathValue("name")
	f, err := h.Pipeline.Open(name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}
	http.ServeContent(w, r, name, info.ModTime(), f)
}
