package batchrunner

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpgainz/nzbn-directors/batch"
	"github.com/tpgainz/nzbn-directors/nzbn"
	"github.com/tpgainz/nzbn-directors/nzbn/nzbntest"
	"github.com/tpgainz/nzbn-directors/runner"
	"github.com/tpgainz/nzbn-directors/storage"
)

func newRegistry(t *testing.T) *nzbntest.Registry {
	t.Helper()

	reg := nzbntest.NewRegistry(nzbntest.Entity{
		NZBN:  "9429000000001",
		Name:  "ACME LIMITED",
		Roles: []nzbn.Role{nzbntest.Director("JANE", "DOE")},
	})
	t.Cleanup(reg.Close)

	return reg
}

func newConfig(reg *nzbntest.Registry, dir string) *runner.Config {
	cfg := runner.DefaultConfig()
	cfg.RunMode = runner.RunModeBatch
	cfg.BaseURL = reg.URL
	cfg.SubscriptionKey = nzbntest.SubscriptionKey
	cfg.InputFile = filepath.Join(dir, "titles.csv")
	cfg.OutputFile = filepath.Join(dir, "out.csv")

	return cfg
}

func writeInput(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func runBatch(t *testing.T, cfg *runner.Config) (stdout, stderr *bytes.Buffer, err error) {
	t.Helper()

	r, err := New(cfg)
	require.NoError(t, err)

	br := r.(*batchRunner)
	stdout, stderr = &bytes.Buffer{}, &bytes.Buffer{}
	br.stdout, br.stderr = stdout, stderr

	err = r.Run(context.Background())
	require.NoError(t, r.Close(context.Background()))

	return stdout, stderr, err
}

func TestBatchRunnerWritesCSV(t *testing.T) {
	reg := newRegistry(t)
	dir := t.TempDir()
	cfg := newConfig(reg, dir)

	writeInput(t, cfg.InputFile, "Name on the title\n\"Jane Doe, Acme Limited\"\n\n")

	stdout, stderr, err := runBatch(t, cfg)
	require.NoError(t, err)

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	assert.Equal(t,
		"Original,Extracted Company Name,NZBN,Matched Name,Directors\n"+
			"\"Jane Doe, Acme Limited\",Acme Limited,9429000000001,ACME LIMITED,Jane Doe\n",
		string(data))

	assert.Contains(t, stderr.String(), "[1/1] Processed: Acme Limited → ACME LIMITED")
	assert.Contains(t, stdout.String(), "Processed 1 rows, 1 matched")
}

func TestBatchRunnerMissingColumn(t *testing.T) {
	reg := newRegistry(t)
	dir := t.TempDir()
	cfg := newConfig(reg, dir)
	cfg.Dsn = "sqlite://" + filepath.Join(dir, "runs.db")

	writeInput(t, cfg.InputFile, "Owners Name(s)\nAcme Limited\n")

	var hooks int

	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hooks++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer hook.Close()

	cfg.JobCompletionAPIURL = hook.URL

	_, _, err := runBatch(t, cfg)
	require.ErrorIs(t, err, batch.ErrMissingColumn)

	_, statErr := os.Stat(cfg.OutputFile)
	assert.True(t, os.IsNotExist(statErr))
	assert.Empty(t, reg.SearchTerms())
	assert.Zero(t, hooks)

	db, err := storage.Open(context.Background(), cfg.Dsn)
	require.NoError(t, err)
	defer db.Close()

	var runs int
	require.NoError(t, db.QueryRowContext(context.Background(), "SELECT COUNT(*) FROM batch_runs").Scan(&runs))
	assert.Zero(t, runs)
}

func TestBatchRunnerStoresAndExports(t *testing.T) {
	reg := newRegistry(t)
	dir := t.TempDir()
	cfg := newConfig(reg, dir)
	cfg.Profile = batch.ProfileOwners
	cfg.Dsn = "sqlite://" + filepath.Join(dir, "runs.db")

	writeInput(t, cfg.InputFile, "Unit,Owners Name(s)\n4B,\"Jane Doe, Acme Limited\"\n")

	stdout, _, err := runBatch(t, cfg)
	require.NoError(t, err)
	require.Contains(t, stdout.String(), "Stored as run ")

	var runID string
	for _, line := range bytes.Split(stdout.Bytes(), []byte("\n")) {
		if id, ok := bytes.CutPrefix(line, []byte("Stored as run ")); ok {
			runID = string(id)
		}
	}
	require.NotEmpty(t, runID)

	exportCfg := runner.DefaultConfig()
	exportCfg.RunMode = runner.RunModeExport
	exportCfg.Dsn = cfg.Dsn
	exportCfg.RunID = runID

	r, err := NewExport(exportCfg)
	require.NoError(t, err)

	var out bytes.Buffer
	r.(*exportRunner).stdout = &out

	require.NoError(t, r.Run(context.Background()))
	require.NoError(t, r.Close(context.Background()))

	written, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)

	assert.Equal(t, string(written), out.String())
	assert.Equal(t,
		"Unit,Original,Directors\n4B,\"Jane Doe, Acme Limited\",\"Jane Doe, Acme Limited - Director: JANE DOE\"\n",
		out.String())
}

func TestNewRejectsOtherModes(t *testing.T) {
	cfg := runner.DefaultConfig()
	cfg.RunMode = runner.RunModeWeb

	_, err := New(cfg)
	require.ErrorIs(t, err, runner.ErrInvalidRunMode)

	_, err = NewExport(cfg)
	require.ErrorIs(t, err, runner.ErrInvalidRunMode)
}
