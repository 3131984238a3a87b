package cmd

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type testModule struct {
	startErr error
	runErr   error
	started  int32
	stopped  int32
}

func (m *testModule) Start(ctx context.Context, g *errgroup.Group) error {
	atomic.AddInt32(&m.started, 1)
	if m.startErr != nil {
		return m.startErr
	}
	g.Go(func() error {
		if m.runErr != nil {
			return m.runErr
		}
		<-ctx.Done()
		atomic.AddInt32(&m.stopped, 1)
		return nil
	})
	return nil
}

func TestRun(t *testing.T) {
	logger := zap.NewNop()

	Convey("Given running modules", t, func() {
		a, b := &testModule{}, &testModule{}
		stop := make(chan os.Signal, 1)

		Convey("a stop signal shuts all of them down cleanly", func() {
			stop <- syscall.SIGINT
			err := RunUntil(logger, []Module{a, b}, stop)
			So(err, ShouldBeNil)
			So(atomic.LoadInt32(&a.stopped), ShouldEqual, 1)
			So(atomic.LoadInt32(&b.stopped), ShouldEqual, 1)
		})

		Convey("a module failure stops the others and is returned", func() {
			errBroken := errors.New("broken")
			b.runErr = errBroken
			err := RunUntil(logger, []Module{a, b}, stop)
			So(errors.Is(err, errBroken), ShouldBeTrue)
			So(atomic.LoadInt32(&a.stopped), ShouldEqual, 1)
		})
	})

	Convey("Given a module that cannot start", t, func() {
		errUnavailable := errors.New("unavailable")
		a, b, c := &testModule{}, &testModule{startErr: errUnavailable}, &testModule{}

		err := RunUntil(logger, []Module{a, b, c}, make(chan os.Signal))

		Convey("the start error is returned", func() {
			So(errors.Is(err, errUnavailable), ShouldBeTrue)
		})
		Convey("later modules are never started", func() {
			So(atomic.LoadInt32(&c.started), ShouldEqual, 0)
		})
		Convey("earlier modules are stopped", func() {
			So(atomic.LoadInt32(&a.stopped), ShouldEqual, 1)
		})
	})
}
