package partition

import "sync"

// Bus delivers payload-less named events synchronously to subscribers.
// Observers are expected to re-read state when notified.
type Bus struct {
	mu   sync.RWMutex
	next int
	subs map[string]map[int]func()
}

func NewBus() *Bus {
	return &Bus{subs: make(map[string]map[int]func())}
}

// Subscribe registers fn for event and returns its cancel func.
func (b *Bus) Subscribe(event string, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	if b.subs[event] == nil {
		b.subs[event] = make(map[int]func())
	}
	b.subs[event][id] = fn
	return func() {
		b.mu.Lock()
		delete(b.subs[event], id)
		b.mu.Unlock()
	}
}

func (b *Bus) Publish(event string) {
	if b == nil {
		return
	}
	b.mu.RLock()
	handlers := make([]func(), 0, len(b.subs[event]))
	for _, fn := range b.subs[event] {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn()
	}
}
