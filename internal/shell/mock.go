package shell

import (
	"context"
	"strings"
	"sync"
)

// MockExecutor implements [Executor] without spawning real processes.
//
// Every call records its [Command] and returns the configured exit code
// and output. FailOn overrides the exit code for commands whose script
// contains a given substring, which lets a test fail one step of a run
// while the rest succeed.
type MockExecutor struct {
	// ExitCode is returned for every command not matched by FailOn.
	ExitCode int

	// Output is returned as every command's combined output.
	Output string

	// FailOn maps a script substring to the exit code to return when a
	// command's script contains it.
	FailOn map[string]int

	// Err, when set, is returned from every call.
	Err error

	// RecordedCommands collects every command in call order.
	RecordedCommands []Command

	mu sync.Mutex
}

// Run records cmd and returns the canned result.
func (m *MockExecutor) Run(_ context.Context, cmd Command) (Result, error) {
	m.mu.Lock()
	m.RecordedCommands = append(m.RecordedCommands, cmd)
	m.mu.Unlock()

	if m.Err != nil {
		return Result{ExitCode: -1}, m.Err
	}

	code := m.ExitCode
	for substr, failCode := range m.FailOn {
		if strings.Contains(cmd.Script, substr) {
			code = failCode
			break
		}
	}

	return Result{ExitCode: code, Output: m.Output}, nil
}

// Scripts returns the recorded command scripts in call order.
func (m *MockExecutor) Scripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	scripts := make([]string, len(m.RecordedCommands))
	for i, cmd := range m.RecordedCommands {
		scripts[i] = cmd.Script
	}
	return scripts
}
