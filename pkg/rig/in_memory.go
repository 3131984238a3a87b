package rig

import (
	"context"
	"sync"
)

// InMemoryBroker simulates a broker with in-process rigs. Writes take effect
// immediately.
type InMemoryBroker struct {
	rigs []*InMemoryRig
}

// NewInMemoryBroker creates one rig per given frequency, and at least two.
func NewInMemoryBroker(frequencies ...int64) *InMemoryBroker {
	for len(frequencies) < 2 {
		frequencies = append(frequencies, 0)
	}

	b := &InMemoryBroker{}
	for _, hz := range frequencies {
		b.rigs = append(b.rigs, &InMemoryRig{lock: new(sync.RWMutex), hz: hz})
	}
	return b
}

func (b *InMemoryBroker) Rig(n int) (Endpoint, error) {
	i, err := rigIndex(n, len(b.rigs))
	if err != nil {
		return nil, err
	}
	return b.rigs[i], nil
}

func (b *InMemoryBroker) Close() error {
	return nil
}

type InMemoryRig struct {
	lock   *sync.RWMutex
	hz     int64
	writes int
}

func (r *InMemoryRig) Frequency(ctx context.Context) (int64, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.hz, nil
}

func (r *InMemoryRig) SetFrequency(ctx context.Context, hz int64) error {
	if hz < 0 {
		return ErrFrequencyRange
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.hz = hz
	r.writes++
	return nil
}

// Writes returns how many times SetFrequency succeeded.
func (r *InMemoryRig) Writes() int {
	r.lock.RLock()
	defer r.lock.RUnlock()

	return r.writes
}
