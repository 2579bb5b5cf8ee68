package utils

import (
	"strings"
	"sync"
	"time"
)

// Phase is one timed step of an operation.
type Phase struct {
	Name     string
	Duration time.Duration
	start    time.Time
	done     bool
}

// Timer records the named phases of one operation. Phases may be started
// and stopped from several goroutines.
type Timer struct {
	mu     sync.Mutex
	name   string
	clock  Clock
	start  time.Time
	phases []*Phase
}

// TimerOption configures a Timer instance.
type TimerOption func(*Timer)

// WithClock sets a custom clock for testability.
func WithClock(clock Clock) TimerOption {
	return func(t *Timer) {
		t.clock = clock
	}
}

// NewTimer creates a new Timer with the given name and options.
func NewTimer(name string, opts ...TimerOption) *Timer {
	t := &Timer{
		name:  name,
		clock: NewRealClock(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.start = t.clock.Now()
	return t
}

// Start starts timing a phase and returns the function that stops it.
// Stopping more than once keeps the first duration.
func (t *Timer) Start(name string) func() time.Duration {
	t.mu.Lock()
	p := &Phase{Name: name, start: t.clock.Now()}
	t.phases = append(t.phases, p)
	t.mu.Unlock()

	return func() time.Duration {
		t.mu.Lock()
		defer t.mu.Unlock()
		if !p.done {
			p.Duration = t.clock.Now().Sub(p.start)
			p.done = true
		}
		return p.Duration
	}
}

// Phases returns the completed phases in start order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()

	phases := make([]Phase, 0, len(t.phases))
	for _, p := range t.phases {
		if p.done {
			phases = append(phases, Phase{Name: p.Name, Duration: p.Duration})
		}
	}
	return phases
}

// Total returns the time elapsed since the timer was created.
func (t *Timer) Total() time.Duration {
	return t.clock.Now().Sub(t.start)
}

// Summary renders the completed phases on one line.
func (t *Timer) Summary() string {
	var sb strings.Builder
	sb.WriteString(t.name)
	sb.WriteString(":")
	for _, p := range t.Phases() {
		sb.WriteString(" ")
		sb.WriteString(p.Name)
		sb.WriteString("=")
		sb.WriteString(p.Duration.String())
	}
	sb.WriteString(" total=")
	sb.WriteString(t.Total().String())
	return sb.String()
}

// Log writes the summary at debug level.
func (t *Timer) Log(logger Logger) {
	if logger != nil {
		logger.Debug("%s", t.Summary())
	}
}
