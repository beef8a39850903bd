package camera

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/cjeanneret/photobooth/internal/hw/gpio"
)

func TestPatternSource_GrabSize(t *testing.T) {
	src := NewPatternSource(64, 48)
	f, err := src.Grab(context.Background())
	if err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if f.Width() != 64 || f.Height() != 48 {
		t.Errorf("frame = %dx%d, want 64x48", f.Width(), f.Height())
	}
	if f.Taken.IsZero() {
		t.Error("frame should carry a timestamp")
	}
}

func TestPatternSource_CyclesPalette(t *testing.T) {
	src := NewPatternSource(8, 8)
	for i := 0; i < len(Palette)+1; i++ {
		f, err := src.Grab(context.Background())
		if err != nil {
			t.Fatalf("Grab %d: %v", i, err)
		}
		want := Palette[i%len(Palette)]
		got := color.RGBAModel.Convert(f.Image.At(4, 4)).(color.RGBA)
		if got != want {
			t.Errorf("grab %d center = %v, want %v", i, got, want)
		}
	}
	if src.Grabs() != len(Palette)+1 {
		t.Errorf("Grabs() = %d, want %d", src.Grabs(), len(Palette)+1)
	}
}

func TestPatternSource_OutlineIsBlack(t *testing.T) {
	src := NewPatternSource(8, 8)
	f, _ := src.Grab(context.Background())
	got := color.RGBAModel.Convert(f.Image.At(0, 0)).(color.RGBA)
	if got != (color.RGBA{A: 0xff}) {
		t.Errorf("corner = %v, want opaque black", got)
	}
}

func TestPatternSource_ZeroSizeYieldsEmptyFrame(t *testing.T) {
	src := NewPatternSource(64, 48)
	src.SetSize(0, 0)
	f, err := src.Grab(context.Background())
	if err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if !f.Empty() {
		t.Errorf("frame = %dx%d, want empty", f.Width(), f.Height())
	}
}

func TestPatternSource_CancelledContext(t *testing.T) {
	src := NewPatternSource(8, 8)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Grab(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Grab err = %v, want context.Canceled", err)
	}
}

func TestFrame_ZeroValue(t *testing.T) {
	var f Frame
	if f.Width() != 0 || f.Height() != 0 || !f.Empty() {
		t.Error("zero Frame should be empty")
	}
}

func requireTool(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available: %v", name, err)
	}
}

func TestCommandSource_DecodesStdout(t *testing.T) {
	requireTool(t, "cat")

	path := filepath.Join(t.TempDir(), "still.png")
	img := image.NewRGBA(image.Rect(0, 0, 32, 24))
	fh, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(fh, img); err != nil {
		t.Fatal(err)
	}
	fh.Close()

	src := NewCommandSource("cat", []string{path}, time.Second)
	f, err := src.Grab(context.Background())
	if err != nil {
		t.Fatalf("Grab: %v", err)
	}
	if f.Width() != 32 || f.Height() != 24 {
		t.Errorf("frame = %dx%d, want 32x24", f.Width(), f.Height())
	}
}

func TestCommandSource_FailingCommandIsUnavailable(t *testing.T) {
	requireTool(t, "false")

	src := NewCommandSource("false", nil, time.Second)
	_, err := src.Grab(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Grab err = %v, want ErrUnavailable", err)
	}
}

func TestCommandSource_MissingBinaryIsUnavailable(t *testing.T) {
	src := NewCommandSource("definitely-not-a-camera-tool", nil, time.Second)
	_, err := src.Grab(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Grab err = %v, want ErrUnavailable", err)
	}
}

func TestCommandSource_GarbageOutputIsUnavailable(t *testing.T) {
	requireTool(t, "echo")

	src := NewCommandSource("echo", []string{"not an image"}, time.Second)
	_, err := src.Grab(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Grab err = %v, want ErrUnavailable", err)
	}
}

func TestSources_ImplementSource(t *testing.T) {
	var _ Source = NewPatternSource(1, 1)
	var _ Source = NewCommandSource("true", nil, 0)
	var _ Source = NewRemoteShutter(gpio.NewMockDriver(), 23, 24, 0, 0, nil)
}
