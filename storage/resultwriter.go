package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tpgainz/nzbn-directors/batch"
)

const maxBatchSize = 50

// Row is the stored form of a batch result row.
type Row = batch.ResultRow

type ResultWriter struct {
	db     *DB
	logger *zap.Logger
}

func NewResultWriter(db *DB, logger *zap.Logger) *ResultWriter {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ResultWriter{
		db:     db,
		logger: logger,
	}
}

// Save stores rows for runID in a single transaction, maxBatchSize rows per
// statement. Row indexes follow slice order.
func (w *ResultWriter) Save(ctx context.Context, runID string, rows []Row) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	for start := 0; start < len(rows); start += maxBatchSize {
		end := min(start+maxBatchSize, len(rows))

		q, args, ok := NewInsertResultsQuery(w.db.Dialect, runID, start, rows[start:end]).Build()
		if !ok {
			continue
		}

		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("saving results %d-%d: %w", start, end, err)
		}

		w.logger.Debug("saved results batch", zap.String("run_id", runID), zap.Int("from", start), zap.Int("to", end))
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	w.logger.Info("saved results", zap.String("run_id", runID), zap.Int("rows", len(rows)))

	return nil
}

// ListResults returns the stored rows of runID in row order.
func (w *ResultWriter) ListResults(ctx context.Context, runID string) ([]Row, error) {
	p := w.db.Dialect.Placeholder

	q := `SELECT unit, original, company_name, nzbn, matched_name, directors
		FROM lookup_results WHERE run_id = ` + p(1) + ` ORDER BY row_index`

	rows, err := w.db.QueryContext(ctx, q, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row

	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Unit, &r.Original, &r.CompanyName, &r.NZBN, &r.MatchedName, &r.Directors); err != nil {
			return nil, err
		}

		out = append(out, r)
	}

	return out, rows.Err()
}
