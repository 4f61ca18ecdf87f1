package tracking

import (
	"errors"
	"testing"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/cyclopcam/overwatch/pkg/alert"
	"github.com/cyclopcam/overwatch/pkg/nn"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps every event it receives
type recordingSink struct {
	events []alert.Event
}

func (r *recordingSink) Send(ev alert.Event) {
	r.events = append(r.events, ev)
}

func (r *recordingSink) count(c alert.Category) int {
	n := 0
	for _, ev := range r.events {
		if ev.Category == c {
			n++
		}
	}
	return n
}

func (r *recordingSink) last(c alert.Category) alert.Event {
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Category == c {
			return r.events[i]
		}
	}
	return alert.Event{}
}

type fakeResolver struct {
	rec   Recognition
	err   error
	panic bool
	calls int
}

func (f *fakeResolver) Recognize(face []byte) (Recognition, error) {
	f.calls++
	if f.panic {
		panic("model not loaded")
	}
	return f.rec, f.err
}

var errResolver = errors.New("resolver offline")

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// frameTime returns the time of frame i (zero based)
func frameTime(i int) time.Time {
	return baseTime.Add(time.Duration(i) * DefaultFrameInterval)
}

func newTestTracker(t *testing.T, settings Settings, faces FaceResolver) (*Tracker, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	tr, err := NewTracker(logs.NewTestingLog(t), settings, sink, faces)
	require.NoError(t, err)
	tr.clock = func() time.Time { return baseTime }
	return tr, sink
}

func det(class string, x, y, w, h int) Detection {
	return Detection{
		Box:   nn.MakeRect(x, y, w, h),
		Class: class,
	}
}
