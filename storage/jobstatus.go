package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	StatusProcessing = "processing"
	StatusDone       = "done"
	StatusFailed     = "failed"
)

var ErrRunNotFound = errors.New("batch run not found")

type Run struct {
	ID         string `json:"id"`
	Profile    string `json:"profile"`
	Source     string `json:"source"`
	Status     string `json:"status"`
	Rows       int    `json:"rows"`
	Matched    int    `json:"matched"`
	Errors     int    `json:"errors"`
	Failure    string `json:"failure,omitempty"`
	CreatedAt  string `json:"createdAt"`
	FinishedAt string `json:"finishedAt,omitempty"`
}

// StatusManager tracks the lifecycle of batch runs and announces finished
// runs through the notifier.
type StatusManager struct {
	db       *DB
	notifier *CompletionNotifier
	logger   *zap.Logger
	now      func() time.Time
}

func NewStatusManager(db *DB, notifier *CompletionNotifier, logger *zap.Logger) *StatusManager {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &StatusManager{
		db:       db,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Start records a new run in the processing state.
func (s *StatusManager) Start(ctx context.Context, profile, source string) (*Run, error) {
	run := &Run{
		ID:        uuid.New().String(),
		Profile:   profile,
		Source:    source,
		Status:    StatusProcessing,
		CreatedAt: s.timestamp(),
	}

	p := s.db.Dialect.Placeholder

	q := fmt.Sprintf(`INSERT INTO batch_runs (id, profile, source, status, created_at)
		VALUES (%s, %s, %s, %s, %s)`, p(1), p(2), p(3), p(4), p(5))

	if _, err := s.db.ExecContext(ctx, q, run.ID, run.Profile, run.Source, run.Status, run.CreatedAt); err != nil {
		return nil, fmt.Errorf("creating batch run: %w", err)
	}

	s.logger.Info("batch run started", zap.String("run_id", run.ID), zap.String("profile", profile))

	return run, nil
}

// MarkDone closes the run with its final counts.
func (s *StatusManager) MarkDone(ctx context.Context, runID string, rows, matched, errCount int) error {
	q, args, _ := NewRunStatusQuery(s.db.Dialect, runID, StatusDone).
		WithCounts(rows, matched, errCount).
		FinishedAt(s.timestamp()).
		Build()

	if err := s.update(ctx, q, args); err != nil {
		return err
	}

	s.notify(ctx, runID)

	return nil
}

// MarkFailed closes the run with a failure reason.
func (s *StatusManager) MarkFailed(ctx context.Context, runID, reason string) error {
	s.logger.Info("marking batch run as failed", zap.String("run_id", runID), zap.String("reason", reason))

	q, args, _ := NewRunStatusQuery(s.db.Dialect, runID, StatusFailed).
		WithFailure(reason).
		FinishedAt(s.timestamp()).
		Build()

	if err := s.update(ctx, q, args); err != nil {
		return err
	}

	s.notify(ctx, runID)

	return nil
}

func (s *StatusManager) GetRun(ctx context.Context, runID string) (*Run, error) {
	p := s.db.Dialect.Placeholder

	q := `SELECT id, profile, source, status, row_count, matched_count, error_count, failure, created_at, finished_at
		FROM batch_runs WHERE id = ` + p(1)

	var run Run

	err := s.db.QueryRowContext(ctx, q, runID).Scan(
		&run.ID, &run.Profile, &run.Source, &run.Status,
		&run.Rows, &run.Matched, &run.Errors, &run.Failure,
		&run.CreatedAt, &run.FinishedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	if err != nil {
		return nil, err
	}

	return &run, nil
}

func (s *StatusManager) update(ctx context.Context, q string, args []interface{}) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrRunNotFound
	}

	return nil
}

func (s *StatusManager) notify(ctx context.Context, runID string) {
	if s.notifier == nil || s.notifier.URL() == "" {
		return
	}

	run, err := s.GetRun(ctx, runID)
	if err != nil {
		s.logger.Warn("loading run for completion notice", zap.String("run_id", runID), zap.Error(err))
		return
	}

	s.notifier.Notify(ctx, run)
}

func (s *StatusManager) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
