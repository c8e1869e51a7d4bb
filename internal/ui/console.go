// File: internal/ui/console.go
// Brief: Leveled, colored console output for olympus commands.

package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Console prints user-facing messages. Success, error and notice lines are
// colored when the output is a terminal; verbose lines only appear when
// verbose output is enabled.
type Console struct {
	out     io.Writer
	verbose bool
	tty     bool

	success *color.Color
	failure *color.Color
	notice  *color.Color
	info    *color.Color
}

// NewConsole writes to out. noColor forces plain output.
func NewConsole(out io.Writer, verbose, noColor bool) *Console {
	tty := IsTerminal(out)
	c := &Console{
		out:     out,
		verbose: verbose,
		tty:     tty,
		success: color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		notice:  color.New(color.FgYellow),
		info:    color.New(color.FgBlue),
	}
	if noColor || !tty {
		for _, col := range []*color.Color{c.success, c.failure, c.notice, c.info} {
			col.DisableColor()
		}
	}
	return c
}

func (c *Console) Success(format string, args ...any) {
	c.success.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Error(format string, args ...any) {
	c.failure.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Notice(format string, args ...any) {
	c.notice.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Info(format string, args ...any) {
	fmt.Fprintf(c.out, format+"\n", args...)
}

func (c *Console) Verbose(format string, args ...any) {
	if !c.verbose {
		return
	}
	c.info.Fprintf(c.out, format+"\n", args...)
}

// Spin shows a spinner for message on terminals. Elsewhere the message is
// printed once and the stop function prints the outcome.
func (c *Console) Spin(message string) func(success bool) {
	if c.tty {
		return StartSpinner(c.out, message, c.success, c.failure)
	}
	fmt.Fprintf(c.out, "%s...\n", message)
	return func(success bool) {
		if !success {
			c.failure.Fprintf(c.out, "%s failed\n", message)
		}
	}
}
