package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cjeanneret/photobooth/internal/artifact"
	"github.com/cjeanneret/photobooth/internal/config"
	"github.com/cjeanneret/photobooth/internal/debug"
	"github.com/cjeanneret/photobooth/internal/hw/button"
	"github.com/cjeanneret/photobooth/internal/hw/camera"
	"github.com/cjeanneret/photobooth/internal/hw/flash"
	"github.com/cjeanneret/photobooth/internal/hw/gpio"
	"github.com/cjeanneret/photobooth/internal/logic/capture"
	"github.com/cjeanneret/photobooth/internal/logic/layout"
	"github.com/cjeanneret/photobooth/internal/metrics"
	"github.com/cjeanneret/photobooth/internal/web"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the booth web server",
		Long: `Starts the booth page, the capture and print API, the status feed
(SSE and WebSocket) and the Prometheus metrics endpoint.

The port comes from --port, then the PORT environment variable, then
server.port in the config.`,
		Example: `  # Start with configs/default.yaml
  photobooth serve

  # Custom port and verbose logging
  photobooth serve --port 8080 --debug 3`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := g.load()
			if err != nil {
				return err
			}
			if port == 0 {
				if port, err = envPort(); err != nil {
					return err
				}
			}
			if port == 0 {
				port = cfg.Server.Port
			}
			return serve(cmd.Context(), cfg, port)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on")

	return cmd
}

func serve(ctx context.Context, cfg *config.Config, port int) error {
	debug.Step(1, "Initializing GPIO driver")
	debug.Value("Mock GPIO", cfg.GPIO.Mock)
	gpioDriver, err := gpio.NewDriver(cfg.GPIO.Mock)
	if err != nil {
		return fmt.Errorf("init GPIO: %w", err)
	}
	defer func() {
		if err := gpioDriver.Close(); err != nil {
			log.Printf("closing GPIO driver failed: %v", err)
		}
	}()

	debug.Step(2, "Initializing camera")
	src, err := newSource(cfg, gpioDriver)
	if err != nil {
		return err
	}
	debug.Value("Camera type", cfg.Camera.Type)

	broadcaster := web.NewStatusBroadcaster()
	debug.SetOutput(io.MultiWriter(os.Stderr, web.BroadcastWriter(broadcaster)))

	debug.Step(3, "Initializing capture machine")
	machine, err := newMachine(cfg, src, newFlash(cfg, gpioDriver), capture.WithObserver(web.CaptureObserver(broadcaster)))
	if err != nil {
		return err
	}
	debug.PrintStruct("Booth config", cfg.Booth)

	printer := newPrinter(cfg)
	pipeline := newPipeline(cfg, printer)
	debug.PrintStruct("Print config", cfg.Print)

	srv := web.NewServer(fmt.Sprintf(":%d", port), web.Deps{
		Broadcaster: broadcaster,
		Machine:     machine,
		Pipeline:    pipeline,
		Printers:    printer,
		UI: web.UIConfig{
			Template:  cfg.Booth.Template,
			Border:    cfg.Booth.Border,
			Countdown: cfg.Booth.FirstCountdown,
			TickMs:    cfg.Booth.TickMs,
		},
		Cooldown: cfg.Cooldown(),
		MaxBody:  cfg.MaxBodyBytes(),
	}, metrics.Handler(metrics.NewRegistry()))

	if cfg.GPIO.TriggerPin > 0 {
		debug.Step(4, "Watching trigger button")
		btn := button.New(gpioDriver, cfg.GPIO.TriggerPin, cfg.Debounce(), cfg.PollInterval())
		go func() {
			err := btn.Watch(ctx, func() {
				if err := srv.Handlers().StartCapture("button", capture.Request{}); err != nil {
					debug.Live("Button trigger ignored: %v", err)
				}
			})
			if err != nil {
				log.Printf("button watcher stopped: %v", err)
			}
		}()
	}

	debug.Info("Booth page available at http://localhost:%d", port)
	err = srv.Run(ctx)
	machine.Cancel()
	machine.Wait()
	return err
}

// envPort reads the PORT environment variable, 0 when unset.
func envPort() (int, error) {
	s := os.Getenv("PORT")
	if s == "" {
		return 0, nil
	}
	p, err := strconv.Atoi(s)
	if err != nil || p <= 0 || p > 65535 {
		return 0, fmt.Errorf("PORT must be 1-65535, got %q", s)
	}
	return p, nil
}

// newSource selects a frame source based on configuration.
func newSource(cfg *config.Config, g gpio.Driver) (camera.Source, error) {
	switch cfg.Camera.Type {
	case "pattern":
		return camera.NewPatternSource(cfg.Camera.WidthPx, cfg.Camera.HeightPx), nil
	case "command":
		return camera.NewCommandSource(cfg.Camera.Command, cfg.Camera.Args, cfg.CameraTimeout()), nil
	case "remote":
		fetch := camera.NewCommandSource(cfg.Camera.Command, cfg.Camera.Args, cfg.CameraTimeout())
		return camera.NewRemoteShutter(g, cfg.Camera.FocusPin, cfg.Camera.ShutterPin, cfg.FocusDelay(), cfg.ShutterDelay(), fetch), nil
	default:
		return nil, fmt.Errorf("unsupported camera type: %s", cfg.Camera.Type)
	}
}

// newFlash returns the GPIO flash when a pin is wired.
func newFlash(cfg *config.Config, g gpio.Driver) flash.Flash {
	if cfg.GPIO.FlashPin <= 0 {
		return flash.Nop{}
	}
	return flash.NewGPIOFlash(g, cfg.GPIO.FlashPin, cfg.FlashDuration())
}

func newMachine(cfg *config.Config, src camera.Source, fl flash.Flash, opts ...capture.Option) (*capture.Machine, error) {
	t, err := layout.ParseTemplate(cfg.Booth.Template)
	if err != nil {
		return nil, err
	}
	b, err := layout.ParseBorder(cfg.Booth.Border)
	if err != nil {
		return nil, err
	}
	opts = append([]capture.Option{
		capture.WithTiming(capture.Timing{
			First: cfg.Booth.FirstCountdown,
			Next:  cfg.Booth.NextCountdown,
			Tick:  cfg.Tick(),
		}),
		capture.WithFlash(fl),
		capture.WithDefaults(t, b),
	}, opts...)
	return capture.NewMachine(src, opts...), nil
}

func newPrinter(cfg *config.Config) *artifact.CommandPrinter {
	return &artifact.CommandPrinter{
		Command:     cfg.Print.Command,
		Args:        cfg.Print.Args,
		PrinterFlag: cfg.Print.PrinterFlag,
		ListCommand: cfg.Print.ListCommand,
		ListArgs:    cfg.Print.ListArgs,
		Timeout:     cfg.PrintTimeout(),
		ListTimeout: cfg.ListTimeout(),
	}
}

func newPipeline(cfg *config.Config, p artifact.Printer) *artifact.Pipeline {
	return &artifact.Pipeline{
		Dir:       cfg.Server.ArtifactDir,
		URLPrefix: cfg.Server.URLPrefix,
		Printer:   p,
	}
}
