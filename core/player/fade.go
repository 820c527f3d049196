package player

import (
	"math"
	"sync"
	"time"
)

// Ramp is a linear tween from one integer volume to another in a fixed number
// of steps. Next is not safe for concurrent use; Cancel is.
type Ramp struct {
	from, to int
	steps    int
	step     int

	stop chan struct{}
	once sync.Once
}

// NewRamp builds a ramp. Fewer than one step is treated as one.
func NewRamp(from, to, steps int) *Ramp {
	if steps < 1 {
		steps = 1
	}
	return &Ramp{from: from, to: to, steps: steps, stop: make(chan struct{})}
}

// rampSteps converts a fade length into a step count for the given interval.
func rampSteps(length, interval time.Duration) int {
	if interval <= 0 {
		return 1
	}
	n := int(length / interval)
	if n < 1 {
		n = 1
	}
	return n
}

// Next advances one step and reports whether the target was reached. Values
// never leave the closed range between from and to.
func (r *Ramp) Next() (int, bool) {
	if r.step >= r.steps {
		return r.to, true
	}
	r.step++
	v := r.from + int(math.Round(float64(r.to-r.from)*float64(r.step)/float64(r.steps)))

	lo, hi := r.from, r.to
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return v, r.step >= r.steps
}

// Cancel stops Run. Safe to call more than once.
func (r *Ramp) Cancel() {
	r.once.Do(func() { close(r.stop) })
}

// Done is closed once the ramp is cancelled or finished.
func (r *Ramp) Done() <-chan struct{} {
	return r.stop
}

// Run ticks the ramp every interval and hands each value to apply until the
// target is reached, apply returns false, or the ramp is cancelled.
func (r *Ramp) Run(interval time.Duration, apply func(v int, done bool) bool) {
	defer r.Cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			v, done := r.Next()
			if !apply(v, done) || done {
				return
			}
		}
	}
}
