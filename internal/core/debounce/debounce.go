// Package debounce delays a rapidly changing value until it settles.
package debounce

import (
	"sync"
	"time"
)

// Debouncer emits the last value passed to Set once no further Set has
// happened for the configured delay.
type Debouncer[T any] struct {
	mu      sync.Mutex
	delay   time.Duration
	emit    func(uint64, T)
	timer   *time.Timer
	gen     uint64
	pending bool
	stopped bool
}

// New returns a Debouncer calling emit on its own goroutine.
func New[T any](delay time.Duration, emit func(T)) *Debouncer[T] {
	return NewVersioned(delay, func(_ uint64, v T) { emit(v) })
}

// NewVersioned is New with the generation of each emission passed to emit.
// A caller that hands the value on asynchronously checks Current before
// acting on it, so a Cancel or Set issued in between still wins.
func NewVersioned[T any](delay time.Duration, emit func(gen uint64, v T)) *Debouncer[T] {
	return &Debouncer[T]{delay: delay, emit: emit}
}

// Set restarts the delay with v as the value to emit.
func (d *Debouncer[T]) Set(v T) {
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
	d.pending = true
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen, v) })
}

func (d *Debouncer[T]) fire(gen uint64, v T) {
	d.mu.Lock()
	// a timer that fired after being superseded or stopped loses its emission
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.emit(gen, v)
}

// Current reports whether gen is still the latest generation: no Set,
// Cancel or Stop has happened since the emission carrying it.
func (d *Debouncer[T]) Current(gen uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return !d.stopped && gen == d.gen
}

// Pending reports whether an emission is scheduled.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Cancel drops the pending emission but keeps the debouncer usable.
func (d *Debouncer[T]) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
}

// Stop cancels any pending emission. Later calls to Set are ignored.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
	d.pending = false
	d.stopped = true
}
