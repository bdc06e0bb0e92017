package batchrunner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/tpgainz/nzbn-directors/batch"
	"github.com/tpgainz/nzbn-directors/runner"
	"github.com/tpgainz/nzbn-directors/storage"
	"github.com/tpgainz/nzbn-directors/workbook"
)

type batchRunner struct {
	cfg       *runner.Config
	logger    *zap.Logger
	processor *batch.Processor
	db        *storage.DB
	results   *storage.ResultWriter
	status    *storage.StatusManager
	stdout    io.Writer
	stderr    io.Writer
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeBatch {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	ans := batchRunner{
		cfg:       cfg,
		logger:    cfg.Log(),
		processor: batch.NewProcessor(cfg.NewService(), cfg.Log()),
		stdout:    os.Stdout,
		stderr:    os.Stderr,
	}

	if cfg.Dsn != "" {
		db, err := storage.Open(context.Background(), cfg.Dsn)
		if err != nil {
			return nil, err
		}

		ans.db = db
		ans.results = storage.NewResultWriter(db, ans.logger)
		ans.status = storage.NewStatusManager(db, storage.NewCompletionNotifier(cfg.JobCompletionAPIURL, ans.logger), ans.logger)
	}

	return &ans, nil
}

func (r *batchRunner) Run(ctx context.Context) error {
	profile, err := batch.LookupProfile(r.cfg.Profile)
	if err != nil {
		return err
	}

	table, err := readTable(r.cfg.InputFile)
	if err != nil {
		return err
	}

	if err := batch.CheckColumns(table, profile); err != nil {
		return err
	}

	var run *storage.Run

	if r.status != nil {
		run, err = r.status.Start(ctx, profile.Name, filepath.Base(r.cfg.InputFile))
		if err != nil {
			return err
		}
	}

	report, err := r.processor.Process(ctx, table, profile, func(index int, _ batch.ResultRow, message string) {
		fmt.Fprintf(r.stderr, "[%d/%d] %s\n", index+1, table.Len(), message)
	})
	if err != nil {
		r.fail(ctx, run, err)
		return err
	}

	out := r.cfg.OutputFile
	if out == "" {
		out = profile.FileName
	}

	data, err := report.CSV()
	if err != nil {
		r.fail(ctx, run, err)
		return err
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		r.fail(ctx, run, err)
		return fmt.Errorf("writing results: %w", err)
	}

	for _, msg := range report.Errors {
		fmt.Fprintln(r.stderr, msg)
	}

	if run != nil {
		if err := r.results.Save(ctx, run.ID, report.Rows); err != nil {
			r.fail(ctx, run, err)
			return err
		}

		if err := r.status.MarkDone(ctx, run.ID, len(report.Rows), report.Matched(), len(report.Errors)); err != nil {
			return err
		}

		fmt.Fprintf(r.stdout, "Stored as run %s\n", run.ID)
	}

	fmt.Fprintf(r.stdout, "Processed %d rows, %d matched. Results written to %s\n",
		len(report.Rows), report.Matched(), out)

	return nil
}

func (r *batchRunner) Close(context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}

	return nil
}

func (r *batchRunner) fail(ctx context.Context, run *storage.Run, cause error) {
	if run == nil {
		return
	}

	if err := r.status.MarkFailed(context.WithoutCancel(ctx), run.ID, cause.Error()); err != nil {
		r.logger.Error("marking run failed", zap.String("run_id", run.ID), zap.Error(err))
	}
}

func readTable(path string) (*workbook.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return workbook.Read(f, filepath.Base(path))
}
