package session

import (
	"sync"
	"time"
)

// DefaultDebounceWindow is the delay between the last input change and the
// quote fetch it triggers.
const DefaultDebounceWindow = 200 * time.Millisecond

// Debouncer coalesces bursts of input changes into one trigger. A new
// trigger inside the window cancels the pending one; it never cancels work
// already started.
type Debouncer struct {
	mu     sync.Mutex
	window time.Duration
	timer  *time.Timer
}

// NewDebouncer creates a debouncer; a non-positive window falls back to the
// default.
func NewDebouncer(window time.Duration) *Debouncer {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Debouncer{window: window}
}

// Trigger schedules fn to run after the window, replacing any pending run.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, fn)
}

// Stop cancels a pending trigger, if any.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
