package worker

import (
	"context"
	"log"
	"sync"
)

// Detached runs fire-and-forget tasks. Each task gets its own goroutine,
// error boundary and panic boundary: a failing task is logged and dropped,
// it never reaches the goroutine that started it.
type Detached struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	stopped bool
}

func NewDetached() *Detached {
	ctx, cancel := context.WithCancel(context.Background())
	return &Detached{ctx: ctx, cancel: cancel}
}

// Go starts task in the background. The task's context is independent of the
// caller's and is only cancelled by Stop. Returns false once Stop was called.
func (d *Detached) Go(name string, task func(ctx context.Context) error) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		log.Printf("Task %s dropped: runner stopped", name)
		return false
	}
	d.wg.Add(1)
	d.mu.Unlock()

	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Task %s panicked: %v", name, r)
			}
		}()

		if err := task(d.ctx); err != nil {
			log.Printf("Task %s failed: %v", name, err)
		}
	}()
	return true
}

// Wait blocks until every started task has returned.
func (d *Detached) Wait() {
	d.wg.Wait()
}

// Stop rejects new tasks, cancels running ones and waits for them.
func (d *Detached) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.mu.Unlock()

	d.cancel()
	d.wg.Wait()
}
