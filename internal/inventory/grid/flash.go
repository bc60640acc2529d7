package grid

import (
	"sync"
	"time"
)

const FlashDuration = 700 * time.Millisecond

// Flash is a transient column highlight. It is cosmetic and has no effect
// on derivation.
type Flash struct {
	mu       sync.Mutex
	delay    time.Duration
	column   string
	gen      uint64
	timer    *time.Timer
	onChange func(column string)
}

func NewFlash(delay time.Duration) *Flash {
	if delay <= 0 {
		delay = FlashDuration
	}
	return &Flash{delay: delay}
}

// OnChange registers fn to be called after the highlight is set or
// cleared. fn runs without the lock held.
func (f *Flash) OnChange(fn func(column string)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Trigger highlights column until the delay elapses. A newer trigger
// replaces the pending one.
func (f *Flash) Trigger(column string) {
	f.mu.Lock()
	if f.timer != nil {
		f.timer.Stop()
	}
	f.gen++
	gen := f.gen
	f.column = column
	f.timer = time.AfterFunc(f.delay, func() { f.clear(gen) })
	notify := f.onChange
	f.mu.Unlock()

	if notify != nil {
		notify(column)
	}
}

func (f *Flash) clear(gen uint64) {
	f.mu.Lock()
	if gen != f.gen {
		f.mu.Unlock()
		return
	}
	f.column = ""
	f.timer = nil
	notify := f.onChange
	f.mu.Unlock()

	if notify != nil {
		notify("")
	}
}

func (f *Flash) Column() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.column
}

// Stop drops any pending highlight without notifying.
func (f *Flash) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.gen++
	f.column = ""
}
