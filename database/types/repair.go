package types

// RepairOutcome classifies what happened to one table during sequence repair.
type RepairOutcome string

const (
	// RepairUpdated means the sequence was set to the table's max id.
	RepairUpdated RepairOutcome = "updated"
	// RepairSkippedMissing means the table does not exist.
	RepairSkippedMissing RepairOutcome = "missing"
	// RepairSkippedEmpty means the table has no rows; the sequence was left alone.
	RepairSkippedEmpty RepairOutcome = "empty"
	// RepairSkippedNoSequence means the table's id is not backed by a sequence.
	RepairSkippedNoSequence RepairOutcome = "no_sequence"
	// RepairFailed means an error occurred; see TableRepair.Err.
	RepairFailed RepairOutcome = "failed"
)

// TableRepair is the outcome for a single table.
type TableRepair struct {
	Table   string
	Outcome RepairOutcome
	// MaxID is the value the sequence was set to, when Outcome is RepairUpdated.
	MaxID int64
	Err   error
}

// RepairReport lists per-table outcomes in the order tables were given.
type RepairReport []TableRepair

// Failed returns the entries whose repair failed.
func (r RepairReport) Failed() []TableRepair {
	var failed []TableRepair
	for _, t := range r {
		if t.Outcome == RepairFailed {
			failed = append(failed, t)
		}
	}
	return failed
}

// Updated counts the tables whose sequence was set.
func (r RepairReport) Updated() int {
	n := 0
	for _, t := range r {
		if t.Outcome == RepairUpdated {
			n++
		}
	}
	return n
}
