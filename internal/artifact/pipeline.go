// Package artifact persists finished images and hands them to the
// print command or to the PDF writer.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/metrics"
	"github.com/google/uuid"
)

// Options select the branch of an ingest request.
type Options struct {
	PrinterName string // empty: default printer
	SavePDF     bool   // export a PDF instead of printing
}

// Result references the persisted artifact.
type Result struct {
	ID   string // unique identifier shared by the image and its PDF
	File string // path of the persisted image, or of the PDF when PDF is set
	PDF  bool
	URL  string // download URL of the PDF
}

// Pipeline turns an encoded image into a file and dispatches it.
type Pipeline struct {
	Dir       string // where artifacts are written
	URLPrefix string // URL path under which Dir is served
	Printer   Printer
}

// Ingest parses dataURL and runs IngestPayload.
func (p *Pipeline) Ingest(ctx context.Context, dataURL string, opts Options) (Result, error) {
	payload, err := ParseDataURL(dataURL)
	if err != nil {
		metrics.RecordArtifact(kindOf(opts), "invalid", 0)
		return Result{}, err
	}
	return p.IngestPayload(ctx, payload, opts)
}

// IngestPayload persists the image under a new unique name, then
// either prints it or renders it to a PDF with the same base name.
// Two calls with the same payload produce two distinct artifacts.
func (p *Pipeline) IngestPayload(ctx context.Context, payload Payload, opts Options) (Result, error) {
	start := time.Now()
	kind := kindOf(opts)

	res, err := p.ingest(ctx, payload, opts)
	status := "success"
	if err != nil {
		status = "error"
		debug.Error(err)
	}
	metrics.RecordArtifact(kind, status, time.Since(start).Seconds())
	return res, err
}

func (p *Pipeline) ingest(ctx context.Context, payload Payload, opts Options) (Result, error) {
	id, base, imgPath, err := p.persist(payload)
	if err != nil {
		return Result{}, wrap(ErrStorage, err)
	}
	debug.Artifact(payload.Ext, imgPath)
	metrics.RecordArtifactBytes(len(payload.Data))

	if !opts.SavePDF {
		if p.Printer == nil {
			return Result{}, wrap(ErrPrintFailed, errors.New("no printer configured"))
		}
		if err := p.Printer.Print(ctx, imgPath, opts.PrinterName); err != nil {
			var perr *Error
			if errors.As(err, &perr) {
				return Result{}, err
			}
			return Result{}, wrap(ErrPrintFailed, err)
		}
		debug.Info("Sent %s to printer %q", filepath.Base(imgPath), opts.PrinterName)
		return Result{ID: id, File: imgPath}, nil
	}

	pdfName := base + ".pdf"
	pdfPath := filepath.Join(p.Dir, pdfName)
	if err := p.exportPDF(pdfPath, pdfName, payload); err != nil {
		return Result{}, wrap(ErrPdfGenerationFailed, err)
	}
	debug.Artifact("pdf", pdfPath)
	return Result{ID: id, File: pdfPath, PDF: true, URL: p.URL(pdfName)}, nil
}

// URL returns the download URL of an artifact file name.
func (p *Pipeline) URL(name string) string {
	prefix := p.URLPrefix
	if prefix == "" {
		prefix = "/"
	}
	return path.Join(prefix, name)
}

// persist writes the image to a new file. The name embeds a millisecond
// timestamp and a random UUID and is created exclusively, so concurrent
// requests never overwrite each other.
func (p *Pipeline) persist(payload Payload) (id, base, filePath string, err error) {
	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		return "", "", "", fmt.Errorf("create artifact dir: %w", err)
	}

	for attempt := 0; attempt < 3; attempt++ {
		id = uuid.NewString()
		base = fmt.Sprintf("capture_%d_%s", time.Now().UnixMilli(), id)
		filePath = filepath.Join(p.Dir, base+"."+payload.Ext)

		f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", "", fmt.Errorf("create image: %w", err)
		}
		if _, err := f.Write(payload.Data); err != nil {
			f.Close()
			return "", "", "", fmt.Errorf("write image: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", "", "", fmt.Errorf("close image: %w", err)
		}
		return id, base, filePath, nil
	}
	return "", "", "", errors.New("could not allocate a unique artifact name")
}

func (p *Pipeline) exportPDF(pdfPath, name string, payload Payload) error {
	f, err := os.OpenFile(pdfPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create pdf: %w", err)
	}
	if err := writePDF(f, name, payload); err != nil {
		f.Close()
		os.Remove(pdfPath)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close pdf: %w", err)
	}
	return nil
}

// Open returns the artifact file called name, refusing anything that
// is not a plain file name inside Dir.
func (p *Pipeline) Open(name string) (*os.File, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, os.ErrNotExist
	}
	return os.OpenInRoot(p.Dir, name)
}

func kindOf(opts Options) string {
	if opts.SavePDF {
		return "pdf"
	}
	return "print"
}
