package batchrunner

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/tpgainz/nzbn-directors/batch"
	"github.com/tpgainz/nzbn-directors/runner"
	"github.com/tpgainz/nzbn-directors/storage"
)

// exportRunner writes the CSV of a stored run without calling the registry.
type exportRunner struct {
	cfg     *runner.Config
	logger  *zap.Logger
	db      *storage.DB
	results *storage.ResultWriter
	status  *storage.StatusManager
	stdout  io.Writer
}

func NewExport(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeExport {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	db, err := storage.Open(context.Background(), cfg.Dsn)
	if err != nil {
		return nil, err
	}

	logger := cfg.Log()

	return &exportRunner{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		results: storage.NewResultWriter(db, logger),
		status:  storage.NewStatusManager(db, nil, logger),
		stdout:  os.Stdout,
	}, nil
}

func (r *exportRunner) Run(ctx context.Context) error {
	run, err := r.status.GetRun(ctx, r.cfg.RunID)
	if err != nil {
		return err
	}

	if run.Status != storage.StatusDone {
		return fmt.Errorf("run %s is %s", run.ID, run.Status)
	}

	profile, err := batch.LookupProfile(run.Profile)
	if err != nil {
		return err
	}

	rows, err := r.results.ListResults(ctx, run.ID)
	if err != nil {
		return err
	}

	data, err := (&batch.Report{Profile: profile, Rows: rows}).CSV()
	if err != nil {
		return err
	}

	r.logger.Info("exporting run", zap.String("run_id", run.ID), zap.Int("rows", len(rows)))

	if r.cfg.OutputFile == "" {
		_, err = r.stdout.Write(data)
		return err
	}

	return os.WriteFile(r.cfg.OutputFile, data, 0o644)
}

func (r *exportRunner) Close(context.Context) error {
	return r.db.Close()
}
