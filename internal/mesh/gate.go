package mesh

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Gate serialises access to the single physical device. Waiters are
// admitted in arrival order.
type Gate struct {
	sem *semaphore.Weighted
}

// NewGate returns a gate admitting one holder at a time.
func NewGate() *Gate {
	return &Gate{sem: semaphore.NewWeighted(1)}
}

// Acquire blocks until the gate is free or ctx is cancelled.
func (g *Gate) Acquire(ctx context.Context) error {
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("acquiring device gate: %w", err)
	}
	return nil
}

// Release frees the gate for the next waiter.
func (g *Gate) Release() {
	g.sem.Release(1)
}
