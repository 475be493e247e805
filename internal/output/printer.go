// Package output renders user-facing terminal output.
//
// Everything a user is meant to read goes through a [Printer]: echoed
// commands, capability messages and the final summary. Diagnostics go to the
// logger instead. Styling uses lipgloss with a renderer bound to the
// destination writer, so output captured in a buffer is plain text.
package output

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Palette shared by every style.
const (
	colorCommand = lipgloss.Color("#3B82F6")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
	colorMuted   = lipgloss.Color("#6B7280")
)

// Printer writes styled output to a single writer.
type Printer struct {
	w io.Writer

	command lipgloss.Style
	success lipgloss.Style
	warning lipgloss.Style
	failure lipgloss.Style
	muted   lipgloss.Style
}

// NewPrinter creates a Printer writing to standard output.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a Printer writing to w. Tests pass a
// bytes.Buffer to capture output.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		command: r.NewStyle().Foreground(colorCommand),
		success: r.NewStyle().Foreground(colorSuccess),
		warning: r.NewStyle().Foreground(colorWarning),
		failure: r.NewStyle().Bold(true).Foreground(colorError),
		muted:   r.NewStyle().Foreground(colorMuted),
	}
}

// Writer returns the underlying writer, for streaming process output.
func (p *Printer) Writer() io.Writer { return p.w }

// Command echoes a command about to run as "$ <command>".
func (p *Printer) Command(command string) {
	fmt.Fprintln(p.w, p.command.Render("$ "+command))
}

// Message prints an informational line.
func (p *Printer) Message(format string, args ...any) {
	fmt.Fprintln(p.w, fmt.Sprintf(format, args...))
}

// Warning prints a line calling attention to a condition that is not an
// error.
func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.w, p.warning.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintln(p.w, p.failure.Render("Error: "+fmt.Sprintf(format, args...)))
}

// DryRun notes that actions will be announced but not executed.
func (p *Printer) DryRun() {
	fmt.Fprintln(p.w, p.warning.Render("Dry run: actions will not be executed."))
}

// Stopped reports that a guard declined the release.
func (p *Printer) Stopped(guard string) {
	fmt.Fprintln(p.w, p.muted.Render(fmt.Sprintf("Stopped: %s is false, no actions run.", guard)))
}

// Summary reports a completed run.
func (p *Printer) Summary(tag string, actions int) {
	fmt.Fprintln(p.w, p.success.Render(fmt.Sprintf("Done: %s (%d %s run)", tag, actions, plural(actions, "action", "actions"))))
}

// List prints a heading followed by one indented item per line.
func (p *Printer) List(heading string, items []string) {
	fmt.Fprintln(p.w, p.success.Render(heading+":"))
	for _, item := range items {
		fmt.Fprintln(p.w, "  "+item)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
