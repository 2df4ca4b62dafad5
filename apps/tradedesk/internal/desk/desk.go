// Package desk composes the reconciliation core into per-role views:
// Buyer, Trader, Supplier and the document review desk. Each desk owns its
// activity log and a set of per-action busy flags; a mutating action always
// waits for its transaction to settle before triggering the next scan.
package desk

import (
	"sync"

	"tradedesk/apps/tradedesk/internal/model"
)

// busyFlags is the single-flight discipline: one flag per action kind.
// Duplicate triggers of the same action fail fast with ErrBusy instead of
// queueing.
type busyFlags struct {
	mu       sync.Mutex
	inFlight map[string]bool
}

func newBusyFlags() *busyFlags {
	return &busyFlags{inFlight: make(map[string]bool)}
}

func (b *busyFlags) acquire(action string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.inFlight[action] {
		return model.ErrBusy
	}
	b.inFlight[action] = true
	return nil
}

func (b *busyFlags) release(action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.inFlight, action)
}
