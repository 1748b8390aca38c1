package workflow

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openclaw/birdwatch/internal/records"
)

// fakeDriver fails at a chosen step and records the call order.
type fakeDriver struct {
	failAt   string
	failWith error
	calls    []string
	closed   bool
}

func (d *fakeDriver) step(name string) error {
	d.calls = append(d.calls, name)
	if d.failAt == name {
		if d.failWith != nil {
			return d.failWith
		}
		return errors.New(name + " failed")
	}
	return nil
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error { return d.step(StepNavigate) }
func (d *fakeDriver) LocateComposer(ctx context.Context) error       { return d.step(StepComposer) }
func (d *fakeDriver) EnterText(ctx context.Context, text string) error {
	return d.step(StepType)
}
func (d *fakeDriver) Submit(ctx context.Context) error { return d.step(StepSubmit) }
func (d *fakeDriver) Verify(ctx context.Context) error { return d.step(StepVerify) }
func (d *fakeDriver) Close()                           { d.closed = true }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newRecords(t *testing.T) *records.Store {
	t.Helper()
	recs, err := records.Open(filepath.Join(t.TempDir(), "replies.json"))
	require.NoError(t, err)
	return recs
}

func TestRunSuccess(t *testing.T) {
	recs := newRecords(t)
	driver := &fakeDriver{}
	wf := New(driver, recs, quietLogger())

	result, err := wf.Run(context.Background(), "123", "https://x.com/a/status/123", "hi")
	require.NoError(t, err)
	assert.Equal(t, StateVerified, result.State)

	assert.Equal(t, []string{StepNavigate, StepComposer, StepType, StepSubmit, StepVerify}, driver.calls)
	assert.True(t, driver.closed)

	a, ok := recs.Get("123")
	require.True(t, ok)
	assert.Equal(t, records.OutcomeSuccess, a.Outcome)
	assert.Equal(t, "hi", a.RepliedText)
}

func TestRunComposerNotFound(t *testing.T) {
	recs := newRecords(t)
	driver := &fakeDriver{failAt: StepComposer, failWith: ErrComposerNotFound}
	wf := New(driver, recs, quietLogger())

	result, err := wf.Run(context.Background(), "123", "url", "hi")
	require.ErrorIs(t, err, ErrComposerNotFound)
	assert.Equal(t, StateFailed, result.State)
	assert.Equal(t, StepComposer, result.FailedStep)

	// Failure recorded; no later steps ran.
	a, ok := recs.Get("123")
	require.True(t, ok)
	assert.Equal(t, records.OutcomeFailure, a.Outcome)
	assert.Equal(t, StepComposer, a.FailedStep)
	assert.NotContains(t, driver.calls, StepType)
	assert.True(t, driver.closed)
}

func TestRunSubmitFailed(t *testing.T) {
	recs := newRecords(t)
	driver := &fakeDriver{failAt: StepSubmit, failWith: ErrSubmitFailed}
	wf := New(driver, recs, quietLogger())

	result, err := wf.Run(context.Background(), "123", "url", "hi")
	require.ErrorIs(t, err, ErrSubmitFailed)
	assert.Equal(t, StepSubmit, result.FailedStep)
}

func TestRunNeverReattempts(t *testing.T) {
	recs := newRecords(t)

	// First attempt fails at the composer.
	wf := New(&fakeDriver{failAt: StepComposer}, recs, quietLogger())
	_, err := wf.Run(context.Background(), "123", "url", "hi")
	require.Error(t, err)

	// Second attempt against the same target id is refused outright.
	second := &fakeDriver{}
	wf = New(second, recs, quietLogger())
	result, err := wf.Run(context.Background(), "123", "url", "hi")
	require.ErrorIs(t, err, ErrAlreadyReplied)
	assert.Equal(t, StateIdle, result.State)
	assert.Empty(t, second.calls)
}
