package artifact

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/cjeanneret/photobooth/internal/debug"
)

// Printer dispatches a persisted image to the OS print system.
type Printer interface {
	Print(ctx context.Context, file, printerName string) error
}

// Lister enumerates the printers known to the OS.
type Lister interface {
	List(ctx context.Context) []string
}

// CommandPrinter prints by running one external command per file.
//
// Args are templates: "{file}" is replaced by the file path and
// "{printer}" by the printer name. An argument that is exactly
// "{printer}" expands to PrinterFlag followed by the name, or to nothing
// when no printer is given, so the system default printer is used.
type CommandPrinter struct {
	Command     string
	Args        []string
	PrinterFlag string
	ListCommand string // empty: no enumeration, List returns an empty list
	ListArgs    []string
	Timeout     time.Duration
	ListTimeout time.Duration
}

// Arguments expands Args for one print job.
func (p *CommandPrinter) Arguments(file, printerName string) []string {
	printerName = strings.ReplaceAll(printerName, `"`, "")
	args := make([]string, 0, len(p.Args)+1)
	for _, a := range p.Args {
		if a == "{printer}" {
			if printerName == "" {
				continue
			}
			if p.PrinterFlag != "" {
				args = append(args, p.PrinterFlag)
			}
			args = append(args, printerName)
			continue
		}
		a = strings.ReplaceAll(a, "{file}", file)
		a = strings.ReplaceAll(a, "{printer}", printerName)
		args = append(args, a)
	}
	return args
}

// Print runs the print command and waits for it. A non-zero exit, a
// missing binary or the timeout all yield ErrPrintFailed with the
// command's diagnostic.
func (p *CommandPrinter) Print(ctx context.Context, file, printerName string) error {
	if p.Command == "" {
		return wrap(ErrPrintFailed, errors.New("no print command configured"))
	}
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.Timeout)
		defer cancel()
	}

	args := p.Arguments(file, printerName)
	debug.Verbose("Print: %s %s", p.Command, strings.Join(args, " "))

	cmd := exec.CommandContext(ctx, p.Command, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return wrap(ErrPrintFailed, fmt.Errorf("%s timed out after %v", p.Command, p.Timeout))
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return wrap(ErrPrintFailed, fmt.Errorf("%w: %s", err, msg))
		}
		return wrap(ErrPrintFailed, err)
	}
	if msg := strings.TrimSpace(string(out)); msg != "" {
		debug.Verbose("Print: %s", msg)
	}
	return nil
}

// List runs the enumeration command and returns its trimmed non-empty
// output lines, one printer per line. Any failure, including the
// timeout, yields an empty list.
func (p *CommandPrinter) List(ctx context.Context) []string {
	printers := []string{}
	if p.ListCommand == "" {
		return printers
	}
	if p.ListTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.ListTimeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, p.ListCommand, p.ListArgs...).Output()
	if err != nil {
		debug.Verbose("Printer list unavailable: %v", err)
		return printers
	}
	for _, line := range strings.Split(string(out), "\n") {
		if name := strings.TrimSpace(line); name != "" {
			printers = append(printers, name)
		}
	}
	return printers
}
