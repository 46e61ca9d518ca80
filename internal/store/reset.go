package store

import "sync"

// ResetBus broadcasts the process-wide reset signal. Each slice registers
// its own handler and goes back to its initial state when it fires.
type ResetBus struct {
	mu       sync.Mutex
	handlers []func()
}

func (b *ResetBus) Register(h func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = append(b.handlers, h)
}

func (b *ResetBus) Broadcast() {
	b.mu.Lock()
	handlers := append([]func(){}, b.handlers...)
	b.mu.Unlock()

	for _, h := range handlers {
		h()
	}
}
