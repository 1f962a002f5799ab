// Package lifecycle holds process lifecycle state shared across handlers,
// used by the health probe and graceful shutdown.
package lifecycle

import "sync/atomic"

type Lifecycle struct {
	draining atomic.Bool
}

func (l *Lifecycle) SetDraining(draining bool) {
	if l == nil {
		return
	}
	l.draining.Store(draining)
}

func (l *Lifecycle) IsDraining() bool {
	if l == nil {
		return false
	}
	return l.draining.Load()
}

// Status returns the probe status string for the current state.
func (l *Lifecycle) Status() string {
	if l.IsDraining() {
		return "draining"
	}
	return "healthy"
}
