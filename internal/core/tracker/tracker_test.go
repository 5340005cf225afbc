package tracker

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	started  []Kind
	finished []Status
}

func (o *recordingObserver) RequestStarted(kind Kind) { o.started = append(o.started, kind) }
func (o *recordingObserver) RequestFinished(_ Kind, status Status, _ time.Duration) {
	o.finished = append(o.finished, status)
}

func TestNewID_DistinctPerKind(t *testing.T) {
	initial := NewID("getModelVersion", KindInitial)
	background := NewID("getModelVersion", KindBackground)

	assert.NotEqual(t, initial, background)
	assert.True(t, strings.HasPrefix(initial, "getModelVersion:initial:"))
	assert.True(t, strings.HasPrefix(background, "getModelVersion:background:"))
	assert.NotEqual(t, initial, NewID("getModelVersion", KindInitial))
}

func TestTracker_Lifecycle(t *testing.T) {
	obs := &recordingObserver{}
	tr := New(obs)

	tr.Begin("a", KindInitial)
	assert.True(t, tr.IsPending("a"))
	assert.Equal(t, 1, tr.Pending())

	tr.Fulfill("a")
	req, ok := tr.Get("a")
	require.True(t, ok)
	assert.Equal(t, StatusFulfilled, req.Status)
	assert.False(t, tr.IsPending("a"))

	boom := errors.New("boom")
	tr.Begin("b", KindBackground)
	tr.Reject("b", boom)
	req, _ = tr.Get("b")
	assert.Equal(t, StatusRejected, req.Status)
	assert.ErrorIs(t, req.Err, boom)

	assert.Equal(t, []Kind{KindInitial, KindBackground}, obs.started)
	assert.Equal(t, []Status{StatusFulfilled, StatusRejected}, obs.finished)
}

func TestTracker_FinishOnlyOnce(t *testing.T) {
	tr := New(nil)
	tr.Begin("a", KindInitial)
	tr.Reject("a", errors.New("first"))
	tr.Fulfill("a")

	req, _ := tr.Get("a")
	assert.Equal(t, StatusRejected, req.Status)
}

func TestTracker_AnyPending(t *testing.T) {
	tr := New(nil)
	assert.False(t, tr.AnyPending("a", "b"))

	tr.Begin("b", KindBackground)
	assert.True(t, tr.AnyPending("a", "b"))

	tr.Fulfill("b")
	assert.False(t, tr.AnyPending("a", "b"))
}

func TestTracker_ForgetKeepsPending(t *testing.T) {
	tr := New(nil)
	tr.Begin("a", KindInitial)
	tr.Begin("b", KindInitial)
	tr.Fulfill("b")

	tr.Forget("a", "b")

	_, ok := tr.Get("a")
	assert.True(t, ok)
	_, ok = tr.Get("b")
	assert.False(t, ok)
}

func TestTracker_Len(t *testing.T) {
	tr := New(nil)
	tr.Begin("a", KindInitial)
	tr.Begin("b", KindBackground)
	tr.Reject("b", errors.New("boom"))
	assert.Equal(t, 2, tr.Len())

	tr.Forget("b")
	assert.Equal(t, 1, tr.Len())
}
