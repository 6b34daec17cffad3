package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/banshee-data/mocap.bridge/internal/manus"
	"github.com/banshee-data/mocap.bridge/internal/monitoring"
)

// PollStatus is the outcome of a Poll. The numeric values match the C-ABI
// status codes, apart from the shim collapsing "claimed but empty frame"
// into StatusNoData for compatibility with existing consumers.
type PollStatus int

const (
	StatusOK             PollStatus = 0
	StatusNotInitialized PollStatus = -1
	StatusNoData         PollStatus = -2
	StatusInvalidArgs    PollStatus = -3
)

func (s PollStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotInitialized:
		return "not initialized"
	case StatusNoData:
		return "no data"
	case StatusInvalidArgs:
		return "invalid arguments"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

var (
	// ErrAlreadyInitialized is returned by Open when a shared bridge
	// instance already exists.
	ErrAlreadyInitialized = errors.New("bridge already initialized")
	// ErrNotInitialized is returned by Close when no shared instance exists.
	ErrNotInitialized = errors.New("bridge not initialized")
)

// RetryPolicy shapes the connect loop. Interval defaults to one second.
// MaxAttempts of zero retries forever, which matches the assumption that
// the core becoming reachable is only a matter of time; the context is the
// way out.
type RetryPolicy struct {
	Interval    time.Duration
	MaxAttempts int
}

// Config carries bridge creation options.
type Config struct {
	Retry      RetryPolicy
	HandMotion manus.HandMotion
}

// Bridge owns the assembler, slot and flattener for one source. Create it
// with Create, feed it by letting the source fire its stream callback, and
// drain it with Poll from a single consumer thread. Concurrent polls are
// not supported; the caller serialises them.
type Bridge struct {
	src  manus.Source
	slot *LatestFrameSlot
	asm  *FrameAssembler
	flat *PoseFlattener

	// lastPublish is touched only from the consumer thread, like Poll.
	lastPublish time.Time
}

// Create initialises the source, registers the frame callback and connects.
// Failures before the connect loop are fatal and leave no partial bridge.
// The connect loop itself retries at the policy interval until it succeeds,
// the context is cancelled, or MaxAttempts is exhausted.
func Create(ctx context.Context, src manus.Source, cfg Config) (*Bridge, error) {
	if src == nil {
		return nil, fmt.Errorf("nil source")
	}
	if err := src.Initialize(); err != nil {
		return nil, fmt.Errorf("source initialization failed: %w", err)
	}

	b := &Bridge{src: src, slot: NewLatestFrameSlot()}
	b.asm = NewFrameAssembler(src, b.slot)
	b.flat = NewPoseFlattener(src)

	if err := src.RegisterStreamCallback(b.asm.OnSkeletonStream); err != nil {
		return nil, fmt.Errorf("callback registration failed: %w", err)
	}
	if err := b.connect(ctx, cfg.Retry); err != nil {
		return nil, err
	}

	// Hand motion selection is best-effort, as in the reference client:
	// a failure is logged, not fatal.
	if err := src.SetHandMotion(cfg.HandMotion); err != nil {
		monitoring.Logf("bridge: failed to set hand motion mode %q: %v", cfg.HandMotion, err)
	}
	return b, nil
}

func (b *Bridge) connect(ctx context.Context, rp RetryPolicy) error {
	interval := rp.Interval
	if interval <= 0 {
		interval = time.Second
	}
	for attempt := 1; ; attempt++ {
		err := b.src.Connect(ctx)
		if err == nil {
			monitoring.Logf("bridge: connected to core after %d attempt(s)", attempt)
			return nil
		}
		if rp.MaxAttempts > 0 && attempt >= rp.MaxAttempts {
			return fmt.Errorf("connect: giving up after %d attempts: %w", attempt, err)
		}
		monitoring.Logf("bridge: could not connect (attempt %d): %v; retrying in %s", attempt, err, interval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

// Poll claims the latest pending snapshot, if any, and flattens it into out.
// It returns the number of records written and a status: StatusNoData when
// nothing was published since the last poll, StatusOK otherwise — including
// when a claimed frame flattened to zero records (source connected but
// reporting nothing). A nil buffer is rejected before any state changes.
func (b *Bridge) Poll(out []FlatPoseRecord) (int, PollStatus) {
	if out == nil {
		return 0, StatusInvalidArgs
	}
	snap := b.slot.Claim()
	if snap == nil {
		return 0, StatusNoData
	}
	b.lastPublish = snap.PublishTime
	return b.flat.Flatten(snap, out), StatusOK
}

// LastPublishTime returns the source publish time of the most recently
// claimed frame. Consumer thread only, like Poll.
func (b *Bridge) LastPublishTime() time.Time { return b.lastPublish }

// Shutdown delegates to the source. The caller must ensure the source has
// stopped delivering callbacks first; shutdown does not join an in-flight
// callback.
func (b *Bridge) Shutdown() error {
	if err := b.src.Shutdown(); err != nil {
		return fmt.Errorf("source shutdown failed: %w", err)
	}
	return nil
}

// SlotStats returns the slot traffic counters.
func (b *Bridge) SlotStats() SlotStats { return b.slot.Stats() }

// Truncations reports how many polls hit the output capacity bound.
func (b *Bridge) Truncations() uint64 { return b.flat.Truncations() }

// Shared instance registry. Only the C-ABI shim needs process-wide reach;
// Go callers should hold the *Bridge from Create directly. Open rejects a
// second instance explicitly instead of silently replacing the first.
var (
	sharedMu sync.Mutex
	shared   *Bridge
)

// Open creates the single shared bridge instance.
func Open(ctx context.Context, src manus.Source, cfg Config) (*Bridge, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared != nil {
		return nil, ErrAlreadyInitialized
	}
	b, err := Create(ctx, src, cfg)
	if err != nil {
		return nil, err
	}
	shared = b
	return b, nil
}

// Instance returns the shared bridge, or nil before Open / after Close.
func Instance() *Bridge {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	return shared
}

// Close shuts down and releases the shared instance. It reports
// ErrNotInitialized rather than faulting when no instance exists.
func Close() error {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if shared == nil {
		return ErrNotInitialized
	}
	err := shared.Shutdown()
	shared = nil
	return err
}
