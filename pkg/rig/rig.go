// Package rig provides clients for rig-control brokers: services that
// multiplex access to several configured radio control channels, each
// exposing a live tunable frequency.
package rig

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
)

var (
	ErrBrokerUnavailable = errors.New("rig broker unavailable")
	ErrBrokerClosed      = errors.New("rig broker closed")
	ErrNoSuchRig         = errors.New("no such rig")
	ErrFrequencyRange    = errors.New("frequency out of range")
)

// Endpoint is one radio control channel of a broker. Reads and writes go to
// state owned by the broker; a write is not acknowledged beyond the broker
// accepting it.
type Endpoint interface {
	Frequency(ctx context.Context) (int64, error)
	SetFrequency(ctx context.Context, hz int64) error
}

// Broker hands out endpoints by their 1-based rig number.
type Broker interface {
	Rig(n int) (Endpoint, error)
	Close() error
}

// FormatHz renders a frequency with '.' as thousands separator, e.g. 7.000.000.
func FormatHz(hz int64) string {
	return humanize.FormatInteger("#.###,", int(hz))
}

func rigIndex(n int, count int) (int, error) {
	if n < 1 || n > count {
		return 0, fmt.Errorf("%w: %d (broker has %d)", ErrNoSuchRig, n, count)
	}
	return n - 1, nil
}
