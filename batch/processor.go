// Package batch resolves the directors of every company named in a
// spreadsheet, one row at a time.
package batch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/tpgainz/nzbn-directors/nzbn"
	"github.com/tpgainz/nzbn-directors/workbook"
)

var ErrMissingColumn = errors.New("required column not found")

// Resolver is the part of nzbn.Service the batch needs.
type Resolver interface {
	FindCompany(ctx context.Context, name string, mode nzbn.MatchMode, pageSize int) (*nzbn.RegistryMatch, error)
	GetDirectors(ctx context.Context, nzbn string, nameCase nzbn.NameCase) ([]nzbn.Director, error)
}

var _ Resolver = (*nzbn.Service)(nil)

// ProgressFunc is called after each row with a human readable status line.
type ProgressFunc func(index int, row ResultRow, message string)

type Processor struct {
	resolver Resolver
	logger   *zap.Logger
}

func NewProcessor(resolver Resolver, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Processor{
		resolver: resolver,
		logger:   logger,
	}
}

// Process runs profile over every row of table in order. A table without the
// profile's column is rejected before any lookup. Lookup failures are
// collected in Report.Errors; only context cancellation ends the run early.
func (p *Processor) Process(ctx context.Context, table *workbook.Table, profile *Profile, progress ProgressFunc) (*Report, error) {
	if err := CheckColumns(table, profile); err != nil {
		return nil, err
	}

	report := &Report{
		Profile: profile,
		Rows:    make([]ResultRow, 0, table.Len()),
	}

	p.logger.Info("batch started",
		zap.String("profile", profile.Name),
		zap.Int("rows", table.Len()))

	for i := 0; i < table.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		row := p.processRow(ctx, profile, report, table.Value(i, ColUnit), table.Value(i, profile.Column))
		report.Rows = append(report.Rows, row)

		if progress != nil && row.Original != "" {
			progress(i, row, progressMessage(profile, row))
		}
	}

	p.logger.Info("batch finished",
		zap.String("profile", profile.Name),
		zap.Int("rows", len(report.Rows)),
		zap.Int("matched", report.Matched()),
		zap.Int("errors", len(report.Errors)))

	return report, nil
}

// CheckColumns reports ErrMissingColumn when table lacks the column profile reads.
func CheckColumns(table *workbook.Table, profile *Profile) error {
	if !table.Has(profile.Column) {
		return fmt.Errorf("%w: no '%s' column found in the uploaded file", ErrMissingColumn, profile.Column)
	}

	return nil
}

func (p *Processor) processRow(ctx context.Context, profile *Profile, report *Report, unit, cell string) ResultRow {
	raw := strings.TrimSpace(cell)

	row := ResultRow{Unit: unit, Original: raw}

	if profile.LookupExtracted {
		name := profile.Extractor.Extract(raw, nil)
		if name == "" {
			return row
		}

		row.CompanyName = name

		match, directors := p.resolve(ctx, profile, report, name)
		if match != nil {
			row.NZBN = match.NZBN
			row.MatchedName = match.EntityName
			row.Directors = directors
		}

		return row
	}

	if raw == "" {
		return row
	}

	var names, ids, matched []string

	lookup := func(name string) string {
		names = append(names, name)

		match, directors := p.resolve(ctx, profile, report, name)
		if match == nil {
			return ""
		}

		ids = append(ids, match.NZBN)
		matched = append(matched, match.EntityName)

		return directors
	}

	annotated := profile.Extractor.Extract(raw, lookup)

	if len(names) > 0 {
		row.CompanyName = strings.Join(names, ", ")
		row.NZBN = strings.Join(ids, ", ")
		row.MatchedName = strings.Join(matched, ", ")
		row.Directors = annotated
	}

	return row
}

// resolve finds the best registry match for name and, when there is one,
// its active directors formatted for export.
func (p *Processor) resolve(ctx context.Context, profile *Profile, report *Report, name string) (*nzbn.RegistryMatch, string) {
	match, err := p.resolver.FindCompany(ctx, name, nzbn.MatchFirst, nzbn.BatchPageSize)
	if err != nil {
		p.logger.Warn("batch search failed", zap.String("name", name), zap.Error(err))
		report.Errors = append(report.Errors, fmt.Sprintf("Error searching NZBN for %s: %v", name, err))

		return nil, ""
	}

	if match == nil || match.NZBN == "" {
		return nil, ""
	}

	directors, err := p.resolver.GetDirectors(ctx, match.NZBN, profile.NameCase)
	if err != nil {
		p.logger.Warn("batch directors failed", zap.String("nzbn", match.NZBN), zap.Error(err))
		report.Errors = append(report.Errors, fmt.Sprintf("Error fetching directors for NZBN %s: %v", match.NZBN, err))

		return match, ""
	}

	return match, nzbn.FormatDirectors(directors)
}

func progressMessage(profile *Profile, row ResultRow) string {
	name := row.CompanyName
	if name == "" {
		name = row.Original
	}

	matched := row.MatchedName
	if matched == "" {
		matched = "Not found"
	}

	if !profile.LookupExtracted && row.CompanyName == "" {
		matched = "no company names"
	}

	return fmt.Sprintf("Processed: %s → %s", name, matched)
}
