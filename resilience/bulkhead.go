package resilience

import "context"

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead in callbacks.
	Name string
	// MaxConcurrent is the maximum number of concurrent holders. Values
	// below 1 are raised to 1.
	MaxConcurrent int
	// OnAcquire is called after a slot is taken.
	OnAcquire func(name string)
	// OnRelease is called after a slot is returned.
	OnRelease func(name string)
}

// Bulkhead is a counting semaphore with admission callbacks.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a new bulkhead.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	config.MaxConcurrent = max(config.MaxConcurrent, 1)
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire blocks until a slot is free or ctx is done. Every successful
// Acquire must be paired with one Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	if b.config.OnAcquire != nil {
		b.config.OnAcquire(b.config.Name)
	}
	return nil
}

// Release returns a slot taken by Acquire.
func (b *Bulkhead) Release() {
	<-b.sem
	if b.config.OnRelease != nil {
		b.config.OnRelease(b.config.Name)
	}
}

// InUse returns the number of slots currently in use.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the maximum concurrent holders allowed.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}
