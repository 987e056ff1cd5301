package async

import "sync/atomic"

// Updater coalesces triggers: however often Trigger is called before the
// loop gets to it, fn runs once.
type Updater struct {
	loop    *Loop
	fn      func()
	run     func()
	pending atomic.Bool
}

// NewUpdater returns an updater that runs fn on loop.
func NewUpdater(loop *Loop, fn func()) *Updater {
	u := &Updater{loop: loop, fn: fn}
	u.run = func() { u.handle() }

	return u
}

// Trigger schedules fn. It never blocks or allocates and is safe from the
// render thread. It returns false when the loop refused the run; nothing is
// then pending and the caller must handle the work itself or retry.
func (u *Updater) Trigger() bool {
	if !u.pending.CompareAndSwap(false, true) {
		return true
	}

	if u.loop == nil || !u.loop.Post(u.run) {
		u.pending.Store(false)
		return false
	}

	return true
}

// Pending reports whether fn is scheduled but has not run.
func (u *Updater) Pending() bool {
	return u.pending.Load()
}

// HandleNow runs fn immediately if it is pending; the queued run then does
// nothing. Control thread only.
func (u *Updater) HandleNow() bool {
	return u.handle()
}

// Cancel drops a pending run.
func (u *Updater) Cancel() {
	u.pending.Store(false)
}

func (u *Updater) handle() bool {
	if !u.pending.CompareAndSwap(true, false) {
		return false
	}

	u.fn()

	return true
}
