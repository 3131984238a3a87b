// Package follower keeps a secondary rig tuned to the frequency of a primary
// rig by polling both through a rig-control broker.
//
// After a sync the follower remembers the value it wrote and will not write
// the same primary frequency again, even if the secondary is later moved away
// by another controller. Only a change of the primary frequency triggers the
// next write.
package follower

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rigsync/rig-follower/pkg/rig"
	"github.com/rigsync/rig-follower/pkg/utils/channels"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Opener acquires the broker. It is called once, on Start.
type Opener func(ctx context.Context) (rig.Broker, error)

type Synchronizer struct {
	logger *zap.Logger
	config *Config
	open   Opener
	out    io.Writer
	clock  Clock

	state   *channels.Broadcaster[*State]
	metrics *metrics
}

func NewSynchronizer(
	logger *zap.Logger,
	config *Config,
	open Opener,
	out io.Writer,
	registry prometheus.Registerer,
	clock Clock,
) *Synchronizer {
	return &Synchronizer{
		logger:  logger.Named("follower"),
		config:  config,
		open:    open,
		out:     out,
		clock:   clock,
		state:   channels.NewBroadcaster[*State](nil),
		metrics: newMetrics(registry),
	}
}

func (s *Synchronizer) Start(ctx context.Context, g *errgroup.Group) error {
	s.announce("Program started (press Ctrl+C to exit)")

	broker, err := s.open(ctx)
	if err != nil {
		return fmt.Errorf("follower: %w", err)
	}

	work, err := s.attach(ctx, broker)
	if err != nil {
		broker.Close()
		return fmt.Errorf("follower: %w", err)
	}

	g.Go(func() error {
		defer broker.Close()
		return s.run(ctx, work)
	})
	return nil
}

func (s *Synchronizer) State() *channels.Broadcaster[*State] {
	return s.state
}

func (s *Synchronizer) attach(ctx context.Context, broker rig.Broker) (*syncWork, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.clock.After(s.config.GetSettleDelay()):
	}

	primary, err := broker.Rig(s.config.GetPrimaryRig())
	if err != nil {
		return nil, fmt.Errorf("primary rig: %w", err)
	}
	secondary, err := broker.Rig(s.config.GetSecondaryRig())
	if err != nil {
		return nil, fmt.Errorf("secondary rig: %w", err)
	}

	s.announce("Connected to rig broker")
	s.logger.Info("connected",
		zap.Int("primaryRig", s.config.GetPrimaryRig()),
		zap.Int("secondaryRig", s.config.GetSecondaryRig()),
	)

	primaryHz, err := primary.Frequency(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary frequency: %w", err)
	}
	secondaryHz, err := secondary.Frequency(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read secondary frequency: %w", err)
	}
	if primaryHz == secondaryHz {
		s.announce("Frequencies already in sync at  >  " + rig.FormatHz(primaryHz))
	}

	return &syncWork{Synchronizer: s, primary: primary, secondary: secondary}, nil
}

func (s *Synchronizer) run(ctx context.Context, work *syncWork) error {
	syncInterval := s.config.GetSyncInterval()

	// Cancellation is only observed between iterations; a broker call in
	// flight always runs to completion.
	pollCtx := context.WithoutCancel(ctx)

	for ctx.Err() == nil {
		state, err := work.do(pollCtx)
		if err != nil {
			return fmt.Errorf("follower: %w", err)
		}
		s.state.Publish(state)
		s.metrics.update(state)

		select {
		case <-ctx.Done():
		case <-s.clock.After(syncInterval):
		}
	}

	s.logger.Info("stopped", zap.Int64("epoch", work.epoch), zap.Int64("syncs", work.syncs))
	s.announce("Program ended")
	return nil
}

func (s *Synchronizer) announce(msg string) {
	fmt.Fprintf(s.out, "%s\n\n", msg)
}

type syncWork struct {
	*Synchronizer
	primary   rig.Endpoint
	secondary rig.Endpoint

	epoch      int64
	lastSynced *int64
	syncs      int64
	lastSyncAt time.Time
}

// do runs one polling iteration.
func (w *syncWork) do(ctx context.Context) (*State, error) {
	w.epoch++

	primaryHz, err := w.primary.Frequency(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read primary frequency: %w", err)
	}
	secondaryHz, err := w.secondary.Frequency(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read secondary frequency: %w", err)
	}

	if primaryHz != secondaryHz && (w.lastSynced == nil || *w.lastSynced != primaryHz) {
		w.announce("Syncing frequency to  >  " + rig.FormatHz(primaryHz))
		w.logger.Info("syncing frequency",
			zap.Int64("hz", primaryHz),
			zap.Int64("secondaryHz", secondaryHz),
			zap.Int64("epoch", w.epoch),
		)

		synced := primaryHz
		w.lastSynced = &synced
		if err := w.secondary.SetFrequency(ctx, primaryHz); err != nil {
			return nil, fmt.Errorf("failed to set secondary frequency: %w", err)
		}
		w.syncs++
		w.lastSyncAt = w.clock.Now()
	}

	var lastSynced *int64
	if w.lastSynced != nil {
		v := *w.lastSynced
		lastSynced = &v
	}
	return &State{
		Epoch:      w.epoch,
		Primary:    primaryHz,
		Secondary:  secondaryHz,
		LastSynced: lastSynced,
		Syncs:      w.syncs,
		LastSyncAt: w.lastSyncAt,
	}, nil
}
