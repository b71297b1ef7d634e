package output

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPrinter_RunStart(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.RunStart("rice-ci", "5a1b2c3d")

	assert.Contains(t, buf.String(), "rice-ci")
	assert.Contains(t, buf.String(), "5a1b2c3d")
}

func TestPrinter_JobStart(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.JobStart("test", "python=3.7")
	assert.Contains(t, buf.String(), "job test")
	assert.Contains(t, buf.String(), "python=3.7")

	buf.Reset()
	p.JobStart("build", "")
	assert.Contains(t, buf.String(), "job build")
	assert.NotContains(t, buf.String(), "(")
}

func TestPrinter_StepLifecycle(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.StepStart(1, 4, "Install dependencies")
	assert.Contains(t, buf.String(), "[1/4] Install dependencies")

	buf.Reset()
	p.StepSuccess("Install dependencies", 1500*time.Millisecond)
	assert.Contains(t, buf.String(), "✓")
	assert.Contains(t, buf.String(), "1.5s")

	buf.Reset()
	p.StepFailed("Run tests", 2, 300*time.Millisecond)
	assert.Contains(t, buf.String(), "✗")
	assert.Contains(t, buf.String(), "(exit 2)")

	buf.Reset()
	p.StepSkipped("Lint", "skipped until findings are fixed")
	assert.Contains(t, buf.String(), "○")
	assert.Contains(t, buf.String(), "skipped until findings are fixed")

	buf.Reset()
	p.StepSkipped("Lint", "")
	assert.Contains(t, buf.String(), "(skipped)")
}

func TestPrinter_StepOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.StepOutput("collected 3 items\n2 passed, 1 failed\n")
	assert.Contains(t, buf.String(), "collected 3 items")
	assert.Contains(t, buf.String(), "2 passed, 1 failed")

	buf.Reset()
	p.StepOutput("")
	assert.Empty(t, buf.String())
}

func TestPrinter_JobResults(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.JobSuccess("test", 3*time.Second)
	assert.Contains(t, buf.String(), "job test complete")

	buf.Reset()
	p.JobFailed("test", "Run tests", 3*time.Second)
	assert.Contains(t, buf.String(), "failed at Run tests")
}

func TestPrinter_Summary(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewPrinterWithWriter(buf)

	p.Success("run %s succeeded", "5a1b2c3d")
	assert.Contains(t, buf.String(), "run 5a1b2c3d succeeded")

	buf.Reset()
	p.Failure("run failed")
	assert.Contains(t, buf.String(), "run failed")

	buf.Reset()
	p.Error("no workflow at %s", "missing.yml")
	assert.Contains(t, buf.String(), "no workflow at missing.yml")
}
