package vertex

import "context"

// Permit is a counting semaphore bounding concurrent remote calls for one
// modality. The permit is held across retries so a herd of retried calls
// cannot exceed the cap.
type Permit struct {
	ch chan struct{}
}

// NewPermit creates a semaphore with n slots.
func NewPermit(n int) *Permit {
	return &Permit{ch: make(chan struct{}, n)}
}

// Acquire blocks until a slot is free or the context is cancelled.
func (p *Permit) Acquire(ctx context.Context) error {
	select {
	case p.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Must be called exactly once per successful Acquire.
func (p *Permit) Release() {
	<-p.ch
}

// InUse returns the number of slots currently held.
func (p *Permit) InUse() int {
	return len(p.ch)
}

// Cap returns the total slot count.
func (p *Permit) Cap() int {
	return cap(p.ch)
}
