package editor

import (
	"sync"
	"time"
)

// FocusController defers focus restoration. Scheduling replaces any pending
// restoration, so only the latest request fires.
type FocusController struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
}

// Schedule runs fn after the configured delay unless superseded.
func (f *FocusController) Schedule(fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	f.timer = time.AfterFunc(f.delay, func() {
		f.mu.Lock()
		current := gen == f.gen
		f.mu.Unlock()
		if current {
			fn()
		}
	})
}

// Stop drops the pending restoration, if any.
func (f *FocusController) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
}
