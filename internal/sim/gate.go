package sim

import (
	"context"
	"fmt"
)

// gate lets one tick run at a time. A one-slot channel serves as the
// semaphore so waiting honors context cancellation.
type gate struct {
	slot chan struct{}
}

func newGate() *gate {
	return &gate{slot: make(chan struct{}, 1)}
}

func (g *gate) Acquire(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("acquiring turn: %w", ctx.Err())
	case g.slot <- struct{}{}:
		return nil
	}
}

// Release is safe to call without a matching Acquire.
func (g *gate) Release() {
	select {
	case <-g.slot:
	default:
	}
}
