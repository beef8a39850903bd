package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/photobooth/internal/artifact"
	"github.com/cjeanneret/photobooth/internal/config"
	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/gpio"
	"github.com/cjeanneret/photobooth/internal/logic/capture"
	"github.com/cjeanneret/photobooth/internal/logic/compose"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
)

var errNoArtifact = errors.New("capture produced no artifact")

// captureOptions are the flags of the capture subcommand.
type captureOptions struct {
	template string
	border   string
	out      string
	print    bool
	printer  string
	pdf      bool
}

func newCaptureCmd(g *globalFlags) *cobra.Command {
	o := &captureOptions{}

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Run one capture cycle without the web server",
		Long: `Runs a single countdown/grab/compose cycle and writes the composed
picture as PNG. The result can also go through the print pipeline.`,
		Example: `  # Four-up strip written to strip.png
  photobooth capture --template four --out strip.png

  # Polaroid sent to the default printer
  photobooth capture --template polaroid --print`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			res, err := runCapture(cmd.Context(), cfg, o)
			if err != nil {
				return err
			}
			for _, line := range res {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.template, "template", "t", "", "template (single, two, four, polaroid, multi-N); default from config")
	cmd.Flags().StringVarP(&o.border, "border", "b", "", "border tag stored with the artifact; default from config")
	cmd.Flags().StringVarP(&o.out, "out", "o", "capture.png", "output PNG path, empty to skip")
	cmd.Flags().BoolVar(&o.print, "print", false, "send the picture to the printer")
	cmd.Flags().StringVar(&o.printer, "printer", "", "printer name, empty for the system default")
	cmd.Flags().BoolVar(&o.pdf, "pdf", false, "export the picture as PDF instead of printing")

	return cmd
}

// request resolves the template and border flags.
func (o *captureOptions) request() (capture.Request, error) {
	var req capture.Request
	if o.template != "" {
		t, err := layout.ParseTemplate(o.template)
		if err != nil {
			return req, err
		}
		req.Template = t
	}
	if o.border != "" {
		b, err := layout.ParseBorder(o.border)
		if err != nil {
			return req, err
		}
		req.Border = b
	}
	return req, nil
}

// runCapture runs one cycle and returns a human readable report.
func runCapture(ctx context.Context, cfg *config.Config, o *captureOptions) ([]string, error) {
	req, err := o.request()
	if err != nil {
		return nil, err
	}
	gpioDriver, err := gpio.NewDriver(cfg.GPIO.Mock)
	if err != nil {
		return nil, fmt.Errorf("init GPIO: %w", err)
	}
	defer gpioDriver.Close()
	src, err := newSource(cfg, gpioDriver)
	if err != nil {
		return nil, err
	}

	machine, err := newMachine(cfg, src, newFlash(cfg, gpioDriver), capture.WithObserver(func(e capture.Event) {
		if e.Kind == capture.EventCountdown {
			fmt.Fprintf(os.Stderr, "%d...\n", e.Remaining)
		}
	}))
	if err != nil {
		return nil, err
	}

	s, err := machine.Capture(ctx, req)
	if err != nil {
		return nil, err
	}
	a := s.Artifact
	if a == nil {
		return nil, errNoArtifact
	}

	report := []string{fmt.Sprintf("captured %s %dx%d", a.Template.Name(), a.Width, a.Height)}
	if o.out != "" {
		if err := os.MkdirAll(filepath.Dir(o.out), 0o755); err != nil {
			return nil, err
		}
		if err := os.WriteFile(o.out, a.PNG, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", o.out, err)
		}
		debug.Artifact("PNG", o.out)
		report = append(report, "wrote "+o.out)
	}

	if o.print || o.pdf {
		pipeline := newPipeline(cfg, newPrinter(cfg))
		res, err := pipeline.IngestPayload(ctx, artifact.Payload{MediaType: compose.MediaTypePNG, Ext: "png", Data: a.PNG},
			artifact.Options{PrinterName: o.printer, SavePDF: o.pdf})
		if err != nil {
			return nil, err
		}
		if res.PDF {
			report = append(report, "pdf "+res.File)
		} else {
			report = append(report, "printed "+res.File)
		}
	}
	return report, nil
}
