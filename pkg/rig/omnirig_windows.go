//go:build windows

package rig

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sync"

	"github.com/go-ole/go-ole"
	"github.com/go-ole/go-ole/oleutil"
	"go.uber.org/zap"
)

const sFalse = 0x00000001

// OmniRigBroker drives the OmniRig COM automation server. Every COM call is
// made from a single goroutine locked to its OS thread, since the server
// objects live in that thread's apartment.
type OmniRigBroker struct {
	logger *zap.Logger
	calls  chan func()
	done   chan struct{}
	exited chan struct{}
	once   sync.Once

	// owned by the COM goroutine
	root *ole.IDispatch
	vars []*ole.VARIANT
	rigs []*omniRig
}

func OpenOmniRig(logger *zap.Logger, progID string) (Broker, error) {
	b := &OmniRigBroker{
		logger: logger.Named("omnirig"),
		calls:  make(chan func()),
		done:   make(chan struct{}),
		exited: make(chan struct{}),
	}

	ready := make(chan error, 1)
	go b.loop(progID, ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return b, nil
}

func (b *OmniRigBroker) loop(progID string, ready chan<- error) {
	defer close(b.exited)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if err := ole.CoInitializeEx(0, ole.COINIT_APARTMENTTHREADED); err != nil {
		if oleErr, ok := err.(*ole.OleError); !ok || oleErr.Code() != sFalse {
			ready <- fmt.Errorf("%w: cannot initialize COM: %v", ErrBrokerUnavailable, err)
			return
		}
	}
	defer ole.CoUninitialize()

	if err := b.connect(progID); err != nil {
		b.release()
		ready <- err
		return
	}
	defer b.release()

	ready <- nil
	for {
		select {
		case f := <-b.calls:
			f()
		case <-b.done:
			return
		}
	}
}

func (b *OmniRigBroker) connect(progID string) error {
	unknown, err := oleutil.CreateObject(progID)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBrokerUnavailable, progID, err)
	}
	defer unknown.Release()

	root, err := unknown.QueryInterface(ole.IID_IDispatch)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBrokerUnavailable, progID, err)
	}
	b.root = root

	for _, name := range []string{"Rig1", "Rig2"} {
		v, err := oleutil.GetProperty(root, name)
		if err != nil {
			return fmt.Errorf("%w: %s.%s: %v", ErrBrokerUnavailable, progID, name, err)
		}
		b.vars = append(b.vars, v)

		disp := v.ToIDispatch()
		if disp == nil {
			return fmt.Errorf("%w: %s.%s is not an object", ErrBrokerUnavailable, progID, name)
		}
		r := &omniRig{broker: b, name: name, disp: disp}
		b.rigs = append(b.rigs, r)

		b.logger.Info("rig attached",
			zap.String("rig", name),
			zap.String("type", stringProperty(disp, "RigType")),
			zap.String("status", stringProperty(disp, "StatusStr")),
		)
	}
	return nil
}

func (b *OmniRigBroker) release() {
	for _, v := range b.vars {
		v.Clear()
	}
	b.vars = nil
	if b.root != nil {
		b.root.Release()
		b.root = nil
	}
}

// call runs f on the COM goroutine. An in-flight call cannot be cancelled.
func (b *OmniRigBroker) call(ctx context.Context, f func() error) error {
	errc := make(chan error, 1)
	select {
	case b.calls <- func() { errc <- f() }:
	case <-b.done:
		return ErrBrokerClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	return <-errc
}

func (b *OmniRigBroker) Rig(n int) (Endpoint, error) {
	i, err := rigIndex(n, len(b.rigs))
	if err != nil {
		return nil, err
	}
	return b.rigs[i], nil
}

func (b *OmniRigBroker) Close() error {
	b.once.Do(func() { close(b.done) })
	<-b.exited
	return nil
}

type omniRig struct {
	broker *OmniRigBroker
	name   string
	disp   *ole.IDispatch
}

func (r *omniRig) Frequency(ctx context.Context) (int64, error) {
	var hz int64
	err := r.broker.call(ctx, func() error {
		v, err := oleutil.GetProperty(r.disp, "FreqA")
		if err != nil {
			return fmt.Errorf("%s.FreqA: %w", r.name, err)
		}
		defer v.Clear()

		hz, err = variantInt64(v)
		if err != nil {
			return fmt.Errorf("%s.FreqA: %w", r.name, err)
		}
		return nil
	})
	return hz, err
}

func (r *omniRig) SetFrequency(ctx context.Context, hz int64) error {
	// FreqA is a 32-bit Long on the automation interface
	if hz < 0 || hz > math.MaxInt32 {
		return fmt.Errorf("%w: %d", ErrFrequencyRange, hz)
	}

	return r.broker.call(ctx, func() error {
		v, err := oleutil.PutProperty(r.disp, "FreqA", int32(hz))
		if err != nil {
			return fmt.Errorf("%s.FreqA: %w", r.name, err)
		}
		v.Clear()
		return nil
	})
}

func variantInt64(v *ole.VARIANT) (int64, error) {
	switch n := v.Value().(type) {
	case int32:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case int64:
		return n, nil
	case int16:
		return int64(n), nil
	case int:
		return int64(n), nil
	case float64:
		return int64(math.Round(n)), nil
	}
	return 0, fmt.Errorf("unexpected variant type %d", v.VT)
}

func stringProperty(disp *ole.IDispatch, name string) string {
	v, err := oleutil.GetProperty(disp, name)
	if err != nil {
		return ""
	}
	defer v.Clear()

	return fmt.Sprint(v.Value())
}
