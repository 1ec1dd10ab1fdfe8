package scheduler

import "context"

// Trigger types reported in logs and job metadata.
const (
	TriggerScheduled = "scheduled"
	TriggerManual    = "manual"
)

// Job is a unit of maintenance work. Execute should return promptly once ctx
// is cancelled; the scheduler cancels it on shutdown.
type Job interface {
	Execute(ctx context.Context) error
}

// JobFunc adapts a function to Job.
type JobFunc func(ctx context.Context) error

// Execute calls f(ctx).
func (f JobFunc) Execute(ctx context.Context) error {
	return f(ctx)
}

type triggerKey struct{}

// TriggerType returns how the running job was started: TriggerScheduled or TriggerManual.
func TriggerType(ctx context.Context) string {
	if t, ok := ctx.Value(triggerKey{}).(string); ok {
		return t
	}
	return TriggerScheduled
}
