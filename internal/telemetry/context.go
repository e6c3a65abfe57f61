package telemetry

import "context"

type scopeKey struct{}

// scope identifies where in a run an event happened.
type scope struct {
	runID string
	step  int
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// WithRunID starts a run scope on ctx. The step counter starts at 0.
func WithRunID(ctx context.Context, id string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey{}, scope{runID: id})
}

// WithStep marks ctx as belonging to the given model round-trip (1-based)
// of the current run.
func WithStep(ctx context.Context, step int) context.Context {
	s := scopeFrom(ctx)
	s.step = step
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeKey{}, s)
}

// RunIDFromContext returns the run ID from ctx, if present and non-empty.
func RunIDFromContext(ctx context.Context) (string, bool) {
	s := scopeFrom(ctx)
	return s.runID, s.runID != ""
}

// StepFromContext returns the current step, or 0 outside the step loop.
func StepFromContext(ctx context.Context) int {
	return scopeFrom(ctx).step
}

// Fields returns a new event field map seeded with run_id and, inside the
// step loop, step.
func Fields(ctx context.Context) map[string]any {
	s := scopeFrom(ctx)
	f := map[string]any{"run_id": s.runID}
	if s.step > 0 {
		f["step"] = s.step
	}
	return f
}
