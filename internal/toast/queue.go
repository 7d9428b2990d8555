// Package toast maintains the ordered queue of transient notifications.
// Every entry runs its own display/hide/loop lifecycle on independent
// timers; the queue only serializes state changes.
package toast

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hlms/hlms-client/internal/models"
	"github.com/hlms/hlms-client/pkg/logger"
	"github.com/hlms/hlms-client/pkg/metrics"
	"go.uber.org/zap"
)

const (
	// DefaultDuration is how long an entry stays visible when the caller
	// does not specify one.
	DefaultDuration = 3000 * time.Millisecond
	// loopPause is the gap between hide and re-display of a looping entry.
	loopPause = 1000 * time.Millisecond
	// exitDelay covers the exit animation before an entry is removed.
	exitDelay = 300 * time.Millisecond
)

type entry struct {
	models.ToastEntry
	timer *time.Timer
}

// Queue is the toast notification queue. Entries display in insertion
// order; duplicate messages are never coalesced.
type Queue struct {
	mu      sync.Mutex
	entries []*entry
	closed  bool

	// Overridable in tests; fixed in production use.
	loopPause time.Duration
	exitDelay time.Duration
}

// NewQueue creates an empty toast queue.
func NewQueue() *Queue {
	return &Queue{
		loopPause: loopPause,
		exitDelay: exitDelay,
	}
}

// Push appends a new entry with the default duration and no looping, and
// returns its id.
func (q *Queue) Push(message string, severity models.ToastSeverity) string {
	return q.PushEntry(message, severity, DefaultDuration, false)
}

// PushEntry appends a new entry with explicit duration and loop behavior.
// Each call creates a fresh entry even when the message text matches an
// existing one.
func (q *Queue) PushEntry(message string, severity models.ToastSeverity, duration time.Duration, loop bool) string {
	if duration <= 0 {
		duration = DefaultDuration
	}

	e := &entry{
		ToastEntry: models.ToastEntry{
			ID:        uuid.NewString(),
			Message:   message,
			Severity:  severity,
			Duration:  duration,
			Loop:      loop,
			Visible:   true,
			CreatedAt: time.Now(),
		},
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return e.ID
	}

	q.entries = append(q.entries, e)
	e.timer = time.AfterFunc(duration, func() { q.hide(e.ID) })

	metrics.ToastsPushed.WithLabelValues(string(severity)).Inc()
	metrics.ToastsActive.Set(float64(len(q.entries)))
	return e.ID
}

// Dismiss hides the entry immediately and schedules its removal, ending
// any loop. Dismissing an unknown id is a no-op.
func (q *Queue) Dismiss(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.findLocked(id)
	if e == nil {
		return
	}
	e.stopTimerLocked()
	e.Visible = false
	e.Loop = false
	e.timer = time.AfterFunc(q.exitDelay, func() { q.remove(id) })
}

// Snapshot returns the queue contents in insertion order.
func (q *Queue) Snapshot() []models.ToastEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.ToastEntry, 0, len(q.entries))
	for _, e := range q.entries {
		out = append(out, e.ToastEntry)
	}
	return out
}

// Visible returns only the currently displayed entries, in order.
func (q *Queue) Visible() []models.ToastEntry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]models.ToastEntry, 0, len(q.entries))
	for _, e := range q.entries {
		if e.Visible {
			out = append(out, e.ToastEntry)
		}
	}
	return out
}

// Stop cancels all timers and drops remaining entries. The queue accepts
// no pushes afterwards.
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	for _, e := range q.entries {
		e.stopTimerLocked()
	}
	q.entries = nil
	metrics.ToastsActive.Set(0)
}

// hide ends the display phase: looping entries re-show after the pause,
// others leave after the exit delay.
func (q *Queue) hide(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.findLocked(id)
	if e == nil || !e.Visible {
		return
	}
	e.Visible = false

	if e.Loop {
		e.timer = time.AfterFunc(q.loopPause, func() { q.show(id) })
		return
	}
	e.timer = time.AfterFunc(q.exitDelay, func() { q.remove(id) })
}

// show restarts the display phase of a looping entry.
func (q *Queue) show(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	e := q.findLocked(id)
	if e == nil || !e.Loop {
		return
	}
	e.Visible = true
	e.timer = time.AfterFunc(e.Duration, func() { q.hide(id) })
}

func (q *Queue) remove(id string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.entries {
		if e.ID == id {
			e.stopTimerLocked()
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			break
		}
	}
	metrics.ToastsActive.Set(float64(len(q.entries)))
	logger.Debug("Toast removed", zap.String("id", id))
}

func (q *Queue) findLocked(id string) *entry {
	for _, e := range q.entries {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (e *entry) stopTimerLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
}
