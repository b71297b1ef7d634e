// Package output formats run progress for the terminal.
//
// [Printer] renders step banners, per-step results, and run summaries with
// lipgloss styling. Colors degrade automatically when the writer is not a
// terminal, so tests can assert on plain text.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Printer writes formatted run progress to a writer.
type Printer struct {
	w io.Writer
	r *lipgloss.Renderer

	banner  lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	skipped lipgloss.Style
	dim     lipgloss.Style
}

// NewPrinter creates a [Printer] writing to stdout.
func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

// NewPrinterWithWriter creates a [Printer] writing to w. Color support is
// detected from the writer.
func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:       w,
		r:       r,
		banner:  r.NewStyle().Bold(true),
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		skipped: r.NewStyle().Foreground(lipgloss.Color("3")),
		dim:     r.NewStyle().Faint(true),
	}
}

// DisableColor forces plain output regardless of terminal detection.
func (p *Printer) DisableColor() {
	p.r.SetColorProfile(termenv.Ascii)
}

// RunStart prints the run banner.
func (p *Printer) RunStart(workflow, runID string) {
	fmt.Fprintf(p.w, "%s %s %s\n", p.banner.Render("●"), p.banner.Render(workflow), p.dim.Render(runID))
}

// JobStart prints a job header. variant names the matrix combination and
// may be empty for non-matrix jobs.
func (p *Printer) JobStart(job, variant string) {
	if variant != "" {
		fmt.Fprintf(p.w, "\n%s %s\n", p.banner.Render("job "+job), p.dim.Render("("+variant+")"))
		return
	}
	fmt.Fprintf(p.w, "\n%s\n", p.banner.Render("job "+job))
}

// StepStart prints the step position and label before it runs.
func (p *Printer) StepStart(index, total int, label string) {
	fmt.Fprintf(p.w, "  [%d/%d] %s\n", index, total, label)
}

// StepSuccess prints a passed step.
func (p *Printer) StepSuccess(label string, d time.Duration) {
	fmt.Fprintf(p.w, "  %s %s %s\n", p.success.Render("✓"), label, p.dim.Render(formatDuration(d)))
}

// StepFailed prints a failed step with its exit code.
func (p *Printer) StepFailed(label string, exitCode int, d time.Duration) {
	fmt.Fprintf(p.w, "  %s %s %s %s\n",
		p.failure.Render("✗"), label,
		p.failure.Render(fmt.Sprintf("(exit %d)", exitCode)),
		p.dim.Render(formatDuration(d)))
}

// StepSkipped prints a step that was not executed, with its note when one
// is set.
func (p *Printer) StepSkipped(label, note string) {
	if note != "" {
		fmt.Fprintf(p.w, "  %s %s %s\n", p.skipped.Render("○"), label, p.dim.Render("(skipped: "+note+")"))
		return
	}
	fmt.Fprintf(p.w, "  %s %s %s\n", p.skipped.Render("○"), label, p.dim.Render("(skipped)"))
}

// StepOutput prints captured command output indented under its step.
func (p *Printer) StepOutput(out string) {
	out = strings.TrimRight(out, "\n")
	if out == "" {
		return
	}
	for _, line := range strings.Split(out, "\n") {
		fmt.Fprintf(p.w, "      %s\n", p.dim.Render(line))
	}
}

// JobSuccess prints a passed job.
func (p *Printer) JobSuccess(job string, d time.Duration) {
	fmt.Fprintf(p.w, "  %s job %s complete %s\n", p.success.Render("✓"), job, p.dim.Render(formatDuration(d)))
}

// JobFailed prints a failed job and the step where it stopped.
func (p *Printer) JobFailed(job, step string, d time.Duration) {
	fmt.Fprintf(p.w, "  %s job %s failed at %s %s\n", p.failure.Render("✗"), job, step, p.dim.Render(formatDuration(d)))
}

// Success prints a green summary line.
func (p *Printer) Success(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.success.Render("✓"), fmt.Sprintf(format, args...))
}

// Failure prints a red summary line.
func (p *Printer) Failure(format string, args ...any) {
	fmt.Fprintf(p.w, "%s %s\n", p.failure.Render("✗"), fmt.Sprintf(format, args...))
}

// Info prints an unstyled line.
func (p *Printer) Info(format string, args ...any) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

// Error prints a red error line.
func (p *Printer) Error(format string, args ...any) {
	fmt.Fprintf(p.w, "%s\n", p.failure.Render(fmt.Sprintf(format, args...)))
}

func formatDuration(d time.Duration) string {
	if d >= time.Second {
		return d.Round(100 * time.Millisecond).String()
	}
	return d.Round(time.Millisecond).String()
}
