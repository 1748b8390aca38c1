// Package workflow drives the multi-step UI interaction for posting a
// reply. Each step can fail independently; the whole attempt is an explicit
// state machine so every transition is testable with a mocked render layer.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/openclaw/birdwatch/internal/records"
)

// State of a reply attempt. Verified and Failed are terminal.
type State string

const (
	StateIdle            State = "Idle"
	StateNavigated       State = "Navigated"
	StateComposerLocated State = "ComposerLocated"
	StateTextEntered     State = "TextEntered"
	StateSubmitted       State = "Submitted"
	StateVerified        State = "Verified"
	StateFailed          State = "Failed"
)

// Step names recorded on failure.
const (
	StepNavigate = "navigate"
	StepComposer = "composer"
	StepType     = "type"
	StepSubmit   = "submit"
	StepVerify   = "verify"
)

var (
	// ErrComposerNotFound means the reply control never appeared within
	// the bounded wait. Terminal for this attempt, not retried.
	ErrComposerNotFound = errors.New("workflow: composer not found")
	// ErrSubmitFailed means the submit control could not be clicked.
	ErrSubmitFailed = errors.New("workflow: submit failed")
	// ErrAlreadyReplied means the target id is already in the reply record.
	ErrAlreadyReplied = errors.New("workflow: target already attempted")
)

// Driver abstracts the rendered-page operations the workflow steps need.
type Driver interface {
	// Navigate opens the target URL in an authenticated context.
	Navigate(ctx context.Context, url string) error
	// LocateComposer opens the reply composer and waits for its text box.
	LocateComposer(ctx context.Context) error
	// EnterText types the reply text into the located composer.
	EnterText(ctx context.Context, text string) error
	// Submit clicks the submit control.
	Submit(ctx context.Context) error
	// Verify waits a settle interval and reloads to confirm. Time-based
	// only; there is no structural check that the text actually appears.
	Verify(ctx context.Context) error
	// Close releases any page held by the driver.
	Close()
}

// Result describes how an attempt ended.
type Result struct {
	State      State
	FailedStep string
}

// Workflow runs reply attempts and records each one exactly once.
type Workflow struct {
	driver Driver
	recs   *records.Store
	log    logrus.FieldLogger
}

// New creates a workflow over the given driver and reply record.
func New(driver Driver, recs *records.Store, log logrus.FieldLogger) *Workflow {
	return &Workflow{driver: driver, recs: recs, log: log}
}

// Run attempts to reply to the target. A target id already present in the
// reply record short-circuits with ErrAlreadyReplied and no new record.
// Every other outcome, success or failure, is recorded exactly once.
func (w *Workflow) Run(ctx context.Context, targetID, url, text string) (Result, error) {
	if w.recs.Has(targetID) {
		return Result{State: StateIdle}, fmt.Errorf("%w: %s", ErrAlreadyReplied, targetID)
	}

	defer w.driver.Close()

	steps := []struct {
		name string
		next State
		run  func(context.Context) error
	}{
		{StepNavigate, StateNavigated, func(ctx context.Context) error { return w.driver.Navigate(ctx, url) }},
		{StepComposer, StateComposerLocated, w.driver.LocateComposer},
		{StepType, StateTextEntered, func(ctx context.Context) error { return w.driver.EnterText(ctx, text) }},
		{StepSubmit, StateSubmitted, w.driver.Submit},
		{StepVerify, StateVerified, w.driver.Verify},
	}

	state := StateIdle
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			w.log.WithFields(logrus.Fields{"target": targetID, "step": step.name}).
				Warnf("reply attempt failed: %v", err)

			if recErr := w.recs.Record(targetID, records.Attempt{
				RepliedText: text,
				Outcome:     records.OutcomeFailure,
				FailedStep:  step.name,
			}); recErr != nil {
				w.log.Warnf("failed to record attempt for %s: %v", targetID, recErr)
			}

			return Result{State: StateFailed, FailedStep: step.name}, err
		}

		state = step.next
		w.log.WithFields(logrus.Fields{"target": targetID, "state": string(state)}).
			Debug("workflow transition")
	}

	if err := w.recs.Record(targetID, records.Attempt{
		RepliedText: text,
		Outcome:     records.OutcomeSuccess,
	}); err != nil {
		w.log.Warnf("failed to record attempt for %s: %v", targetID, err)
	}

	return Result{State: StateVerified}, nil
}
