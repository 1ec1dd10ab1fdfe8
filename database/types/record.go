package types

// Record is one result row keyed by column name.
type Record map[string]any

// Result is the normalised outcome of a mutating statement.
type Result struct {
	insertedID    int64
	hasInsertedID bool
	rowsAffected  int64
}

// NewResult builds a Result with no inserted id.
func NewResult(rowsAffected int64) Result {
	return Result{rowsAffected: rowsAffected}
}

// NewInsertResult builds a Result carrying the primary key of an inserted row.
func NewInsertResult(insertedID, rowsAffected int64) Result {
	return Result{insertedID: insertedID, hasInsertedID: true, rowsAffected: rowsAffected}
}

// InsertedID returns the generated primary key of the row an INSERT created.
// ok is false for updates, deletes and inserts that inserted nothing.
func (r Result) InsertedID() (id int64, ok bool) {
	return r.insertedID, r.hasInsertedID
}

// RowsAffected returns the number of rows the statement touched.
func (r Result) RowsAffected() int64 {
	return r.rowsAffected
}
