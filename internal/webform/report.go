package webform

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFatal     Status = "fatal"
)

// Step names used in the report.
const (
	StepInput     = "input"
	StepLaunch    = "launch"
	StepLogin     = "login"
	StepMenu      = "menu"
	StepNewEntry  = "new_entry"
	StepPopup     = "popup"
	StepFormReady = "form_ready"
	StepFields    = "fields"
	StepHandoff   = "handoff"
	StepClose     = "close"
)

// StepResult is the outcome of one step or field write.
type StepResult struct {
	Step   string
	Status Status
	Detail string
	Err    error
}

func Succeeded(step, detail string) StepResult {
	return StepResult{Step: step, Status: StatusSucceeded, Detail: detail}
}

func Skipped(step, reason string, err error) StepResult {
	return StepResult{Step: step, Status: StatusSkipped, Detail: reason, Err: err}
}

func Fatal(step, reason string, err error) StepResult {
	return StepResult{Step: step, Status: StatusFatal, Detail: reason, Err: err}
}

func (r StepResult) OK() bool { return r.Status == StatusSucceeded }

// Report collects step results of a run in order.
type Report struct {
	Results []StepResult
}

func (r *Report) Add(res StepResult) StepResult {
	r.Results = append(r.Results, res)
	return res
}

// Get returns the last result recorded for step.
func (r *Report) Get(step string) (StepResult, bool) {
	for i := len(r.Results) - 1; i >= 0; i-- {
		if r.Results[i].Step == step {
			return r.Results[i], true
		}
	}
	return StepResult{}, false
}

func (r *Report) count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

func (r *Report) Succeeded() int { return r.count(StatusSucceeded) }
func (r *Report) Skipped() int   { return r.count(StatusSkipped) }

// Fatal returns the first fatal result, if any.
func (r *Report) Fatal() (StepResult, bool) {
	for _, res := range r.Results {
		if res.Status == StatusFatal {
			return res, true
		}
	}
	return StepResult{}, false
}

// Degraded reports whether any step was skipped.
func (r *Report) Degraded() bool { return r.Skipped() > 0 }

// Err joins the errors of every non-successful step.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Status != StatusSucceeded {
			err := res.Err
			if err == nil {
				err = errors.New(res.Detail)
			}
			errs = append(errs, fmt.Errorf("%s: %w", res.Step, err))
		}
	}
	return errors.Join(errs...)
}

// Render writes the report as a table for the operator.
func (r *Report) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Step", "Status", "Detail"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)
	for _, res := range r.Results {
		detail := res.Detail
		if res.Err != nil && res.Status != StatusSucceeded {
			detail = strings.TrimSpace(detail + " (" + firstLine(res.Err.Error()) + ")")
		}
		table.Append([]string{res.Step, string(res.Status), detail})
	}
	table.SetFooter([]string{"", "", fmt.Sprintf("%d succeeded, %d skipped", r.Succeeded(), r.Skipped())})
	table.Render()
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
