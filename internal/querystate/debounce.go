package querystate

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the quiet period before free text is committed.
const DefaultDebounce = 400 * time.Millisecond

// Debouncer delivers the latest pushed value once no push has happened for
// the delay. Every push cancels the pending delivery.
type Debouncer[T any] struct {
	mu      sync.Mutex
	clock   clockwork.Clock
	delay   time.Duration
	fire    func(T)
	timer   clockwork.Timer
	gen     uint64
	stopped bool
}

// NewDebouncer calls fire from a timer goroutine.
func NewDebouncer[T any](clock clockwork.Clock, delay time.Duration, fire func(T)) *Debouncer[T] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Debouncer[T]{clock: clock, delay: delay, fire: fire}
}

// Push schedules v, replacing any pending value.
func (d *Debouncer[T]) Push(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := gen == d.gen && !d.stopped
		d.mu.Unlock()
		if current {
			d.fire(v)
		}
	})
}

// Cancel drops the pending value, if any.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Stop cancels and ignores further pushes.
func (d *Debouncer[T]) Stop() {
	d.Cancel()
	d.mu.Lock()
	d.stopped = true
	d.mu.Unlock()
}
