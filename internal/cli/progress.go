package cli

import (
	"sync"

	"flowci/internal/history"
	"flowci/internal/output"
)

// printerProgress adapts runner progress callbacks to the terminal
// printer. Matrix instances report concurrently, so rendering is
// serialized under a mutex.
type printerProgress struct {
	printer *output.Printer
	mu      sync.Mutex
}

func (p *printerProgress) JobStarted(job *history.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printer.JobStart(job.Name, job.Variant)
}

func (p *printerProgress) StepStarted(index, total int, step *history.Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.printer.StepStart(index, total, step.Name)
}

func (p *printerProgress) StepFinished(index, total int, step *history.Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch step.Status {
	case history.StatusSuccess:
		p.printer.StepSuccess(step.Name, step.Duration)
	case history.StatusSkipped:
		p.printer.StepSkipped(step.Name, step.Note)
	case history.StatusFailed:
		p.printer.StepFailed(step.Name, step.ExitCode, step.Duration)
		p.printer.StepOutput(step.Output)
	}
}

func (p *printerProgress) JobFinished(job *history.Job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if job.Status == history.StatusSuccess {
		p.printer.JobSuccess(job.Name, job.Duration())
		return
	}
	p.printer.JobFailed(job.Name, failedStep(job), job.Duration())
}

// failedStep names the step a failed job stopped at, or "setup" when the
// job failed before its first step ran.
func failedStep(job *history.Job) string {
	for _, step := range job.Steps {
		if step.Status == history.StatusFailed {
			return step.Name
		}
	}
	return "setup"
}
