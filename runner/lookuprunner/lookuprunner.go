package lookuprunner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/tpgainz/nzbn-directors/nzbn"
	"github.com/tpgainz/nzbn-directors/runner"
)

type Looker interface {
	Lookup(ctx context.Context, companyName string) *nzbn.LookupResult
}

type lookupRunner struct {
	cfg     *runner.Config
	logger  *zap.Logger
	service Looker
	stdout  io.Writer
}

// jsonResult is one line of --format json output.
type jsonResult struct {
	ID         string   `json:"id,omitempty"`
	Query      string   `json:"query"`
	NZBN       string   `json:"nzbn,omitempty"`
	EntityName string   `json:"entityName,omitempty"`
	Directors  []string `json:"directors"`
	Error      string   `json:"error,omitempty"`
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.RunMode != runner.RunModeLookup {
		return nil, fmt.Errorf("%w: %d", runner.ErrInvalidRunMode, cfg.RunMode)
	}

	return &lookupRunner{
		cfg:     cfg,
		logger:  cfg.Log(),
		service: cfg.NewService(),
		stdout:  os.Stdout,
	}, nil
}

func (r *lookupRunner) Run(ctx context.Context) error {
	queries, err := r.queries()
	if err != nil {
		return err
	}

	enc := json.NewEncoder(r.stdout)

	for _, q := range queries {
		if err := ctx.Err(); err != nil {
			return err
		}

		result := r.service.Lookup(ctx, q.Name)

		if r.cfg.Format == runner.FormatJSON {
			if err := enc.Encode(toJSON(q, result)); err != nil {
				return err
			}

			continue
		}

		writeText(r.stdout, q, result)
	}

	return nil
}

func (r *lookupRunner) Close(context.Context) error {
	return nil
}

func (r *lookupRunner) queries() ([]runner.Query, error) {
	queries := make([]runner.Query, 0, len(r.cfg.Names))
	for _, name := range r.cfg.Names {
		queries = append(queries, runner.Query{Name: name})
	}

	if r.cfg.InputFile == "" {
		return queries, nil
	}

	f, err := os.Open(r.cfg.InputFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	fromFile, err := runner.ReadQueries(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", r.cfg.InputFile, err)
	}

	r.logger.Debug("loaded lookup queries", zap.String("file", r.cfg.InputFile), zap.Int("count", len(fromFile)))

	return append(queries, fromFile...), nil
}

func toJSON(q runner.Query, result *nzbn.LookupResult) jsonResult {
	ans := jsonResult{
		ID:        q.ID,
		Query:     result.Query,
		Directors: result.DirectorNames(),
		Error:     result.Error,
	}

	if result.Match != nil && result.Error == "" {
		ans.NZBN = result.Match.NZBN
		ans.EntityName = result.Match.EntityName
	}

	return ans
}

func writeText(w io.Writer, q runner.Query, result *nzbn.LookupResult) {
	label := result.Query
	if q.ID != "" {
		label = fmt.Sprintf("%s [%s]", label, q.ID)
	}

	fmt.Fprintln(w, label)

	if result.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", result.Error)
		return
	}

	fmt.Fprintf(w, "  Company: %s (NZBN %s)\n", result.Match.EntityName, result.Match.NZBN)

	if len(result.Directors) == 0 {
		fmt.Fprintln(w, "  No directors found for this company.")
		return
	}

	fmt.Fprintf(w, "  Directors: %s\n", strings.Join(result.DirectorNames(), ", "))
}
