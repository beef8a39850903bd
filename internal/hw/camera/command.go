package camera

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os/exec"
	"strings"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
)

// CommandSource grabs stills by running an external capture tool that
// writes one PNG or JPEG image to stdout, e.g.
//
//	fswebcam --no-banner --png -1 -
//	libcamera-still -n -t 1 -e png -o -
type CommandSource struct {
	Command string
	Args    []string
	Timeout time.Duration // 0 = no timeout besides ctx
}

// NewCommandSource creates a command-backed camera.
func NewCommandSource(command string, args []string, timeout time.Duration) *CommandSource {
	return &CommandSource{
		Command: command,
		Args:    args,
		Timeout: timeout,
	}
}

func (c *CommandSource) Grab(ctx context.Context) (Frame, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	debug.Verbose("Camera: running %s %s", c.Command, strings.Join(c.Args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Command, c.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return Frame{}, ctx.Err()
		}
		return Frame{}, fmt.Errorf("%w: %s: %v: %s", ErrUnavailable, c.Command, err, strings.TrimSpace(stderr.String()))
	}

	img, format, err := image.Decode(&stdout)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: decode %s output: %v", ErrUnavailable, c.Command, err)
	}
	debug.Verbose("Camera: decoded %s frame %dx%d", format, img.Bounds().Dx(), img.Bounds().Dy())

	return Frame{Image: img, Taken: time.Now()}, nil
}
