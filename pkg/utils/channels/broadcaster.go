package channels

import (
	"sync"
)

// Broadcaster holds the latest published value for concurrent readers.
type Broadcaster[T any] struct {
	lock  *sync.RWMutex
	value T
}

func NewBroadcaster[T any](value T) *Broadcaster[T] {
	return &Broadcaster[T]{
		lock:  new(sync.RWMutex),
		value: value,
	}
}

func (b *Broadcaster[T]) Publish(value T) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.value = value
}

func (b *Broadcaster[T]) Value() T {
	b.lock.RLock()
	defer b.lock.RUnlock()

	return b.value
}
