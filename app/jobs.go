package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/heritagehub/cms/logger"
	"github.com/heritagehub/cms/scheduler"
)

// SequenceRepairJobID identifies the scheduled sequence repair job.
const SequenceRepairJobID = "sequence-repair"

// sequenceRepairJob realigns serial sequences on the configured schedule.
// Per-table failures fail the execution so they show up in job metadata.
func sequenceRepairJob(db Database, tables []string, log logger.Logger) scheduler.Job {
	return scheduler.JobFunc(func(ctx context.Context) error {
		report := db.FixSequences(ctx, tables)
		log.Info().
			Str("trigger", scheduler.TriggerType(ctx)).
			Int("updated", report.Updated()).
			Msg("Scheduled sequence repair finished")

		if failed := report.Failed(); len(failed) > 0 {
			names := make([]string, 0, len(failed))
			errs := make([]error, 0, len(failed))
			for _, r := range failed {
				names = append(names, r.Table)
				errs = append(errs, r.Err)
			}
			return fmt.Errorf("sequence repair failed for %s: %w", strings.Join(names, ", "), errors.Join(errs...))
		}
		return nil
	})
}

func registerJobs(s *scheduler.Scheduler, expr string, db Database, tables []string, log logger.Logger) error {
	if expr == "" {
		return nil
	}
	sched, err := scheduler.ParseSchedule(expr)
	if err != nil {
		return err
	}
	return s.Register(SequenceRepairJobID, sched, sequenceRepairJob(db, tables, log))
}
