package cli

import (
	"fmt"
	"os"

	"github.com/fatih/color"
)

// Reporter prints progress and diagnostics for the code generation run.
type Reporter struct {
	verbose bool
	quiet   bool

	success *color.Color
	warning *color.Color
	failure *color.Color
}

// NewReporter creates a reporter.
func NewReporter(verbose, quiet bool) *Reporter {
	return &Reporter{
		verbose: verbose,
		quiet:   quiet,
		success: color.New(color.FgGreen),
		warning: color.New(color.FgYellow),
		failure: color.New(color.FgRed, color.Bold),
	}
}

// Infof prints a progress message unless quiet mode is on.
func (r *Reporter) Infof(format string, args ...any) {
	if r.quiet {
		return
	}
	fmt.Printf(format+"\n", args...)
}

// Debugf prints a message only in verbose mode.
func (r *Reporter) Debugf(format string, args ...any) {
	if r.verbose && !r.quiet {
		fmt.Printf(format+"\n", args...)
	}
}

// Successf prints a green success message unless quiet mode is on.
func (r *Reporter) Successf(format string, args ...any) {
	if r.quiet {
		return
	}
	r.success.Printf(format+"\n", args...)
}

// Warnf prints a yellow warning.
func (r *Reporter) Warnf(format string, args ...any) {
	r.warning.Fprintf(os.Stderr, format+"\n", args...)
}

// Errorf prints a red error.
func (r *Reporter) Errorf(format string, args ...any) {
	r.failure.Fprintf(os.Stderr, format+"\n", args...)
}
