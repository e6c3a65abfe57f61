package sandbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petasbytes/pr-agent/internal/telemetry"
)

// ErrReleased is returned by Ensure once the lifecycle has been released.
var ErrReleased = errors.New("sandbox: lifecycle already released")

// releaseTimeout bounds Stop; release must not hang a finished run forever.
const releaseTimeout = 30 * time.Second

// Lifecycle memoises the single sandbox of one run.
type Lifecycle struct {
	provider Provider
	handle   *Handle
	created  int
	released bool
}

// NewLifecycle returns an empty lifecycle. Nothing is provisioned until Ensure.
func NewLifecycle(p Provider) *Lifecycle {
	return &Lifecycle{provider: p}
}

// Ensure returns the run's sandbox, creating it on first use. A failed
// creation caches nothing, so a later call may try again.
func (l *Lifecycle) Ensure(ctx context.Context, repoURL string) (Handle, error) {
	if l.released {
		return Handle{}, ErrReleased
	}
	if l.handle != nil {
		return *l.handle, nil
	}

	start := time.Now()
	h, err := l.provider.CreateSandbox(ctx, repoURL)
	if err != nil {
		return Handle{}, fmt.Errorf("create sandbox: %w", err)
	}
	l.handle = &h
	l.created++

	fields := telemetry.Fields(ctx)
	fields["sandbox_id"] = h.ID
	fields["duration_ms"] = time.Since(start).Milliseconds()
	telemetry.Emit("sandbox_created", fields)
	return h, nil
}

// Release stops the sandbox if one was created. Later calls are no-ops.
// Cancellation of ctx is ignored: release runs even for abandoned callers.
func (l *Lifecycle) Release(ctx context.Context) error {
	if l.released {
		return nil
	}
	l.released = true
	if l.handle == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	err := l.provider.Stop(ctx, *l.handle)

	fields := telemetry.Fields(ctx)
	fields["sandbox_id"] = l.handle.ID
	fields["error"] = nil
	if err != nil {
		fields["error"] = "stop failed"
	}
	telemetry.Emit("sandbox_released", fields)

	if err != nil {
		return fmt.Errorf("stop sandbox %s: %w", l.handle.ID, err)
	}
	return nil
}

// Provider returns the provider sandboxes are created on.
func (l *Lifecycle) Provider() Provider { return l.provider }

// Created reports how many sandboxes this lifecycle provisioned (0 or 1).
func (l *Lifecycle) Created() int { return l.created }
