package follower

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rigsync/rig-follower/pkg/rig"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// fakeEndpoint records writes. With lagging set, writes are recorded but the
// reported frequency does not change, like a rig that has not caught up yet.
type fakeEndpoint struct {
	lock     sync.Mutex
	hz       int64
	lagging  bool
	writes   []int64
	readErr  error
	writeErr error
}

func (e *fakeEndpoint) Frequency(ctx context.Context) (int64, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.readErr != nil {
		return 0, e.readErr
	}
	return e.hz, nil
}

func (e *fakeEndpoint) SetFrequency(ctx context.Context, hz int64) error {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.writeErr != nil {
		return e.writeErr
	}
	e.writes = append(e.writes, hz)
	if !e.lagging {
		e.hz = hz
	}
	return nil
}

func (e *fakeEndpoint) set(hz int64) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.hz = hz
}

func (e *fakeEndpoint) failReads(err error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	e.readErr = err
}

func (e *fakeEndpoint) written() []int64 {
	e.lock.Lock()
	defer e.lock.Unlock()

	return append([]int64(nil), e.writes...)
}

type fakeBroker struct {
	lock   sync.Mutex
	rigs   []*fakeEndpoint
	closed int
}

func newFakeBroker(primaryHz, secondaryHz int64) *fakeBroker {
	return &fakeBroker{rigs: []*fakeEndpoint{{hz: primaryHz}, {hz: secondaryHz}}}
}

func (b *fakeBroker) Rig(n int) (rig.Endpoint, error) {
	if n < 1 || n > len(b.rigs) {
		return nil, rig.ErrNoSuchRig
	}
	return b.rigs[n-1], nil
}

func (b *fakeBroker) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.closed++
	return nil
}

func (b *fakeBroker) closeCount() int {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.closed
}

func (b *fakeBroker) opener() Opener {
	return func(ctx context.Context) (rig.Broker, error) { return b, nil }
}

func newTestSynchronizer(open Opener, out *bytes.Buffer) *Synchronizer {
	return NewSynchronizer(zap.NewNop(), &Config{}, open, out, prometheus.NewRegistry(), TestClock{})
}

func waitEpoch(s *Synchronizer, epoch int64) bool {
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if state := s.State().Value(); state != nil && state.Epoch >= epoch {
			return true
		}
		time.Sleep(time.Millisecond)
	}
	return false
}

func TestPoll(t *testing.T) {
	Convey("Given a primary and a secondary rig", t, func() {
		ctx := context.Background()
		out := new(bytes.Buffer)
		broker := newFakeBroker(7000000, 6999000)
		primary, secondary := broker.rigs[0], broker.rigs[1]

		s := newTestSynchronizer(broker.opener(), out)
		work := &syncWork{Synchronizer: s, primary: primary, secondary: secondary}

		Convey("when they differ, one iteration copies primary to secondary", func() {
			state, err := work.do(ctx)
			So(err, ShouldBeNil)
			So(secondary.written(), ShouldResemble, []int64{7000000})
			So(*state.LastSynced, ShouldEqual, 7000000)
			So(state.Syncs, ShouldEqual, 1)
			So(out.String(), ShouldContainSubstring, "Syncing frequency to  >  7.000.000")

			Convey("and a later primary change is followed", func() {
				primary.set(7001000)
				state, err := work.do(ctx)
				So(err, ShouldBeNil)
				So(secondary.written(), ShouldResemble, []int64{7000000, 7001000})
				So(*state.LastSynced, ShouldEqual, 7001000)
				So(out.String(), ShouldContainSubstring, "Syncing frequency to  >  7.001.000")
			})

			Convey("and a secondary moved away afterwards is left alone", func() {
				secondary.set(6000000)
				state, err := work.do(ctx)
				So(err, ShouldBeNil)
				So(secondary.written(), ShouldHaveLength, 1)
				So(state.Secondary, ShouldEqual, 6000000)
				So(*state.LastSynced, ShouldEqual, 7000000)
			})
		})

		Convey("when the secondary lags behind a write, the write is not repeated", func() {
			secondary.lagging = true
			for i := 0; i < 5; i++ {
				_, err := work.do(ctx)
				So(err, ShouldBeNil)
			}
			So(secondary.written(), ShouldResemble, []int64{7000000})
		})

		Convey("when they are equal, nothing is written", func() {
			secondary.set(7000000)
			state, err := work.do(ctx)
			So(err, ShouldBeNil)
			So(secondary.written(), ShouldBeEmpty)
			So(state.LastSynced, ShouldBeNil)
			So(state.InSync(), ShouldBeTrue)
			So(out.String(), ShouldBeEmpty)
		})

		Convey("epochs count iterations", func() {
			work.do(ctx)
			state, _ := work.do(ctx)
			So(state.Epoch, ShouldEqual, 2)
		})

		Convey("a read failure is returned", func() {
			errGone := errors.New("rig disconnected")
			primary.failReads(errGone)
			_, err := work.do(ctx)
			So(errors.Is(err, errGone), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "primary")
		})

		Convey("a write failure is returned", func() {
			errBusy := errors.New("rig busy")
			secondary.writeErr = errBusy
			_, err := work.do(ctx)
			So(errors.Is(err, errBusy), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "secondary")
		})
	})
}

func TestSynchronizer(t *testing.T) {
	Convey("Given rigs already in sync", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)

		out := new(bytes.Buffer)
		broker := rig.NewInMemoryBroker(7000000, 7000000)
		s := newTestSynchronizer(func(ctx context.Context) (rig.Broker, error) { return broker, nil }, out)

		So(s.Start(ctx, g), ShouldBeNil)
		So(waitEpoch(s, 10), ShouldBeTrue)
		cancel()
		So(g.Wait(), ShouldBeNil)

		Convey("the startup reports it", func() {
			So(out.String(), ShouldContainSubstring, "Frequencies already in sync at  >  7.000.000")
		})
		Convey("nothing is ever written", func() {
			secondary, _ := broker.Rig(2)
			So(secondary.(*rig.InMemoryRig).Writes(), ShouldEqual, 0)
			So(out.String(), ShouldNotContainSubstring, "Syncing")
		})
	})

	Convey("Given rigs out of sync", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)

		out := new(bytes.Buffer)
		broker := newFakeBroker(7000000, 6999000)
		s := newTestSynchronizer(broker.opener(), out)

		So(s.Start(ctx, g), ShouldBeNil)
		So(waitEpoch(s, 3), ShouldBeTrue)

		Convey("the secondary follows the primary", func() {
			state := s.State().Value()
			So(*state.LastSynced, ShouldEqual, 7000000)
			So(broker.rigs[1].written(), ShouldResemble, []int64{7000000})

			cancel()
			So(g.Wait(), ShouldBeNil)
		})

		Convey("an interrupt ends the loop once and closes the broker", func() {
			cancel()
			So(g.Wait(), ShouldBeNil)
			So(strings.Count(out.String(), "Program ended"), ShouldEqual, 1)
			So(broker.closeCount(), ShouldEqual, 1)
		})

		Convey("a broker failure ends the loop with an error", func() {
			errGone := errors.New("rig disconnected")
			broker.rigs[1].failReads(errGone)

			err := g.Wait()
			So(errors.Is(err, errGone), ShouldBeTrue)
			So(out.String(), ShouldNotContainSubstring, "Program ended")
			So(broker.closeCount(), ShouldEqual, 1)
		})
	})

	Convey("Given a broker that cannot be acquired", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		g, ctx := errgroup.WithContext(ctx)

		out := new(bytes.Buffer)
		s := newTestSynchronizer(func(ctx context.Context) (rig.Broker, error) {
			return nil, rig.ErrBrokerUnavailable
		}, out)

		err := s.Start(ctx, g)

		Convey("startup fails and no iteration runs", func() {
			So(errors.Is(err, rig.ErrBrokerUnavailable), ShouldBeTrue)
			So(g.Wait(), ShouldBeNil)
			So(s.State().Value(), ShouldBeNil)
			So(out.String(), ShouldNotContainSubstring, "Connected")
		})
	})

	Convey("Given a rig number the broker does not have", t, func() {
		ctx := context.Background()
		g, ctx := errgroup.WithContext(ctx)

		broker := newFakeBroker(7000000, 7000000)
		three := 3
		s := NewSynchronizer(zap.NewNop(), &Config{SecondaryRig: &three}, broker.opener(),
			new(bytes.Buffer), prometheus.NewRegistry(), TestClock{})

		err := s.Start(ctx, g)

		Convey("startup fails and the broker is released", func() {
			So(errors.Is(err, rig.ErrNoSuchRig), ShouldBeTrue)
			So(broker.closeCount(), ShouldEqual, 1)
		})
	})
}

func TestConfig(t *testing.T) {
	Convey("Config defaults", t, func() {
		config := &Config{}
		So(config.GetPrimaryRig(), ShouldEqual, 1)
		So(config.GetSecondaryRig(), ShouldEqual, 2)
		So(config.GetSyncInterval(), ShouldEqual, 100*time.Millisecond)
		So(config.GetSettleDelay(), ShouldEqual, 500*time.Millisecond)
	})
}
