package storage

import (
	"fmt"
	"strings"
)

const resultColumns = 8

// InsertResultsQuery builds a multi-row insert for lookup results.
type InsertResultsQuery struct {
	dialect Dialect
	runID   string
	offset  int
	rows    []Row
}

// NewInsertResultsQuery creates a builder for rows starting at row index offset.
func NewInsertResultsQuery(dialect Dialect, runID string, offset int, rows []Row) *InsertResultsQuery {
	return &InsertResultsQuery{
		dialect: dialect,
		runID:   runID,
		offset:  offset,
		rows:    rows,
	}
}

// Build returns the SQL statement and its arguments, or false when there is
// nothing to insert.
func (q *InsertResultsQuery) Build() (string, []interface{}, bool) {
	if q.runID == "" || len(q.rows) == 0 {
		return "", nil, false
	}

	elements := make([]string, 0, len(q.rows))
	args := make([]interface{}, 0, len(q.rows)*resultColumns)

	for i, row := range q.rows {
		placeholders := make([]string, resultColumns)
		for c := range placeholders {
			placeholders[c] = q.dialect.Placeholder(i*resultColumns + c + 1)
		}

		elements = append(elements, "("+strings.Join(placeholders, ", ")+")")
		args = append(args,
			q.runID, q.offset+i, row.Unit, row.Original,
			row.CompanyName, row.NZBN, row.MatchedName, row.Directors)
	}

	query := `INSERT INTO lookup_results
		(run_id, row_index, unit, original, company_name, nzbn, matched_name, directors)
		VALUES ` + strings.Join(elements, ", ")

	return query, args, true
}

// RunStatusQuery builds the update that moves a run to a new status.
type RunStatusQuery struct {
	dialect    Dialect
	runID      string
	status     string
	rows       int
	matched    int
	errors     int
	failure    string
	finishedAt string
}

func NewRunStatusQuery(dialect Dialect, runID, status string) *RunStatusQuery {
	return &RunStatusQuery{
		dialect: dialect,
		runID:   runID,
		status:  status,
	}
}

func (q *RunStatusQuery) WithCounts(rows, matched, errors int) *RunStatusQuery {
	q.rows, q.matched, q.errors = rows, matched, errors
	return q
}

func (q *RunStatusQuery) WithFailure(failure string) *RunStatusQuery {
	q.failure = failure
	return q
}

func (q *RunStatusQuery) FinishedAt(ts string) *RunStatusQuery {
	q.finishedAt = ts
	return q
}

func (q *RunStatusQuery) Build() (string, []interface{}, bool) {
	if q.runID == "" || q.status == "" {
		return "", nil, false
	}

	p := q.dialect.Placeholder

	query := fmt.Sprintf(`UPDATE batch_runs
		SET status = %s, row_count = %s, matched_count = %s, error_count = %s, failure = %s, finished_at = %s
		WHERE id = %s`, p(1), p(2), p(3), p(4), p(5), p(6), p(7))

	return query, []interface{}{q.status, q.rows, q.matched, q.errors, q.failure, q.finishedAt, q.runID}, true
}
