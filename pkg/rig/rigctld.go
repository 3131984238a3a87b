package rig

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RPRTError is a negative hamlib return code reported by rigctld.
type RPRTError int

func (e RPRTError) Error() string {
	return fmt.Sprintf("rigctld returned RPRT %d", int(e))
}

// RigctldBroker talks to hamlib rigctld daemons, one TCP connection per rig.
type RigctldBroker struct {
	rigs []*rigctldRig
}

// DialRigctld connects to every configured daemon. Any failed dial makes the
// whole broker unavailable.
func DialRigctld(ctx context.Context, logger *zap.Logger, config *RigctldConfig) (*RigctldBroker, error) {
	logger = logger.Named("rigctld")
	timeout := config.GetTimeout()

	var limit rate.Limit = rate.Inf
	if config.RPS != nil {
		limit = rate.Limit(*config.RPS)
	}

	dialer := &net.Dialer{Timeout: timeout}
	b := &RigctldBroker{}
	for i, addr := range config.GetAddrs() {
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("%w: rig %d at %s: %v", ErrBrokerUnavailable, i+1, addr, err)
		}

		logger.Info("connected", zap.Int("rig", i+1), zap.String("addr", addr))
		b.rigs = append(b.rigs, &rigctldRig{
			addr:    addr,
			timeout: timeout,
			limiter: rate.NewLimiter(limit, 1),
			lock:    new(sync.Mutex),
			conn:    conn,
			reader:  bufio.NewReader(conn),
		})
	}
	return b, nil
}

func (b *RigctldBroker) Rig(n int) (Endpoint, error) {
	i, err := rigIndex(n, len(b.rigs))
	if err != nil {
		return nil, err
	}
	return b.rigs[i], nil
}

func (b *RigctldBroker) Close() error {
	var firstErr error
	for _, r := range b.rigs {
		if err := r.conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

type rigctldRig struct {
	addr    string
	timeout time.Duration
	limiter *rate.Limiter

	lock   *sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

func (r *rigctldRig) Frequency(ctx context.Context) (int64, error) {
	resp, err := r.command(ctx, "f")
	if err != nil {
		return 0, err
	}
	if err := parseRPRT(resp); err != nil {
		return 0, err
	}

	// some hamlib versions print the frequency with a fractional part
	hz, err := strconv.ParseFloat(resp, 64)
	if err != nil {
		return 0, fmt.Errorf("rigctld %s: bad frequency %q", r.addr, resp)
	}
	return int64(math.Round(hz)), nil
}

func (r *rigctldRig) SetFrequency(ctx context.Context, hz int64) error {
	if hz < 0 {
		return fmt.Errorf("%w: %d", ErrFrequencyRange, hz)
	}

	resp, err := r.command(ctx, "F "+strconv.FormatInt(hz, 10))
	if err != nil {
		return err
	}
	if !strings.HasPrefix(resp, "RPRT ") {
		return fmt.Errorf("rigctld %s: unexpected reply %q", r.addr, resp)
	}
	return parseRPRT(resp)
}

func (r *rigctldRig) command(ctx context.Context, cmd string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	deadline := time.Now().Add(r.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := r.conn.SetDeadline(deadline); err != nil {
		return "", err
	}

	if _, err := r.conn.Write([]byte(cmd + "\n")); err != nil {
		return "", fmt.Errorf("rigctld %s: %w", r.addr, err)
	}
	line, err := r.reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("rigctld %s: %w", r.addr, err)
	}
	return strings.TrimSpace(line), nil
}

// parseRPRT returns the error carried by an "RPRT n" reply. Other replies are
// not errors.
func parseRPRT(resp string) error {
	code, ok := strings.CutPrefix(resp, "RPRT ")
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(code))
	if err != nil {
		return fmt.Errorf("rigctld: bad reply %q", resp)
	}
	if n < 0 {
		return RPRTError(n)
	}
	return nil
}
