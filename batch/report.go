package batch

import (
	"github.com/tpgainz/nzbn-directors/workbook"
)

// ResultRow is one processed spreadsheet row.
type ResultRow struct {
	Unit        string `json:"unit,omitempty"`
	Original    string `json:"original"`
	CompanyName string `json:"companyName"`
	NZBN        string `json:"nzbn"`
	MatchedName string `json:"matchedName"`
	Directors   string `json:"directors"`
}

func (r ResultRow) Value(col string) string {
	switch col {
	case ColUnit:
		return r.Unit
	case ColOriginal:
		return r.Original
	case ColCompanyName:
		return r.CompanyName
	case ColNZBN:
		return r.NZBN
	case ColMatchedName:
		return r.MatchedName
	case ColDirectors:
		return r.Directors
	default:
		return ""
	}
}

type Report struct {
	Profile *Profile
	Rows    []ResultRow
	// Errors holds user-visible messages for lookups that failed. They never
	// stop the batch.
	Errors []string
}

func (r *Report) Headers() []string {
	return r.Profile.Columns
}

// Records returns the rows in export column order.
func (r *Report) Records() [][]string {
	records := make([][]string, 0, len(r.Rows))

	for _, row := range r.Rows {
		record := make([]string, 0, len(r.Profile.Columns))
		for _, col := range r.Profile.Columns {
			record = append(record, row.Value(col))
		}

		records = append(records, record)
	}

	return records
}

func (r *Report) CSV() ([]byte, error) {
	return workbook.EncodeCSV(r.Headers(), r.Records())
}

func (r *Report) Matched() int {
	n := 0

	for _, row := range r.Rows {
		if row.NZBN != "" {
			n++
		}
	}

	return n
}
