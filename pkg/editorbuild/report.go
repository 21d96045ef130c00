package editorbuild

import (
	"time"

	"github.com/rotisserie/eris"
)

// StepResult is the outcome of one external invocation
type StepResult struct {
	Step    Step
	Command string
	// ExitStatus is -1 if the command couldn't be started or the runner failed
	ExitStatus int
	Err        error
	Skipped    bool
	Duration   time.Duration
}

// Failed reports whether the step ran and didn't exit cleanly
func (r StepResult) Failed() bool {
	return !r.Skipped && (r.ExitStatus != 0 || r.Err != nil)
}

// Error returns the failure as an error or nil
func (r StepResult) Error() error {
	if !r.Failed() {
		return nil
	}

	if r.Err != nil {
		return r.Err
	}

	return eris.Errorf("%s exited with status %d", r.Command, r.ExitStatus)
}

// Report summarises a Run
type Report struct {
	RunID         string
	StartedAt     time.Time
	ToolPath      string
	ToolPathValid bool
	// PathValue is PATH after the tool directory was appended
	PathValue string
	Steps     []StepResult
}

// Failed returns the steps that didn't succeed
func (r *Report) Failed() []StepResult {
	failed := make([]StepResult, 0)
	for _, step := range r.Steps {
		if step.Failed() {
			failed = append(failed, step)
		}
	}

	return failed
}
