package batch

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpgainz/nzbn-directors/nzbn"
	"github.com/tpgainz/nzbn-directors/nzbn/nzbntest"
	"github.com/tpgainz/nzbn-directors/workbook"
)

func newRegistry(t *testing.T) *nzbntest.Registry {
	t.Helper()

	reg := nzbntest.NewRegistry(
		nzbntest.Entity{
			NZBN: "9429000000001",
			Name: "ABC TRADING LIMITED",
			Roles: []nzbn.Role{
				nzbntest.Director("JANE", "DOE"),
				nzbntest.ResignedDirector("JOHN", "SMITH"),
			},
		},
		nzbntest.Entity{
			NZBN:  "9429000000002",
			Name:  "XYZ HOLDINGS LIMITED",
			Roles: []nzbn.Role{nzbntest.Director("Mary", "Major"), nzbntest.Director("Tom", "Minor")},
		},
	)
	t.Cleanup(reg.Close)

	return reg
}

func newProcessor(reg *nzbntest.Registry) *Processor {
	return NewProcessor(nzbn.NewService(reg.NZBNClient(), nil), nil)
}

func mustProfile(t *testing.T, name string) *Profile {
	t.Helper()

	p, err := LookupProfile(name)
	require.NoError(t, err)

	return p
}

func TestProcessTitleProfile(t *testing.T) {
	reg := newRegistry(t)

	table := workbook.NewTable(
		[]string{"Unit", "Name on the title"},
		[][]string{
			{"1", " 123 Smith St, ABC Trading Limited "},
			{"2", ""},
			{"3", "John Smith, Nothing Here Limited"},
			{"4", "John Smith"},
		},
	)

	var messages []string

	report, err := newProcessor(reg).Process(context.Background(), table, mustProfile(t, ProfileTitle),
		func(_ int, _ ResultRow, message string) {
			messages = append(messages, message)
		})
	require.NoError(t, err)

	assert.Equal(t, []ResultRow{
		{
			Unit:        "1",
			Original:    "123 Smith St, ABC Trading Limited",
			CompanyName: "ABC Trading Limited",
			NZBN:        "9429000000001",
			MatchedName: "ABC TRADING LIMITED",
			Directors:   "Jane Doe",
		},
		{Unit: "2"},
		{Unit: "3", Original: "John Smith, Nothing Here Limited", CompanyName: "Nothing Here Limited"},
		{Unit: "4", Original: "John Smith", CompanyName: "John Smith"},
	}, report.Rows)

	assert.Empty(t, report.Errors)
	assert.Equal(t, 1, report.Matched())
	assert.Equal(t, []string{"ABC Trading Limited", "Nothing Here Limited", "John Smith"}, reg.SearchTerms())
	assert.Equal(t, []string{"1", "1", "1"}, reg.PageSizes())
	assert.Equal(t, []string{"9429000000001"}, reg.EntityLookups())

	assert.Equal(t, []string{
		"Processed: ABC Trading Limited → ABC TRADING LIMITED",
		"Processed: Nothing Here Limited → Not found",
		"Processed: John Smith → Not found",
	}, messages)

	assert.Equal(t, []string{"Original", "Extracted Company Name", "NZBN", "Matched Name", "Directors"}, report.Headers())
	assert.Equal(t, []string{"123 Smith St, ABC Trading Limited", "ABC Trading Limited", "9429000000001", "ABC TRADING LIMITED", "Jane Doe"}, report.Records()[0])
	assert.Equal(t, []string{"", "", "", "", ""}, report.Records()[1])
}

func TestProcessOwnersProfile(t *testing.T) {
	reg := newRegistry(t)

	table := workbook.NewTable(
		[]string{"Unit", "Owners Name(s)"},
		[][]string{
			{"1A", "Jane Doe, ABC Trading Limited, XYZ Holdings Limited"},
			{"1B", "Jane Doe, Bob Doe"},
			{"1C", "Ghost Limited"},
		},
	)

	report, err := newProcessor(reg).Process(context.Background(), table, mustProfile(t, ProfileOwners), nil)
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"1A", "Jane Doe, ABC Trading Limited, XYZ Holdings Limited", "Jane Doe, ABC Trading Limited - Director: JANE DOE, XYZ Holdings Limited - Director: Mary Major, Tom Minor"},
		{"1B", "Jane Doe, Bob Doe", ""},
		{"1C", "Ghost Limited", "Ghost Limited - Director: Not found"},
	}, report.Records())

	assert.Equal(t, "9429000000001, 9429000000002", report.Rows[0].NZBN)
	assert.Equal(t, "ABC Trading Limited, XYZ Holdings Limited", report.Rows[0].CompanyName)
	assert.Empty(t, report.Rows[2].NZBN)
	assert.Equal(t, []string{"ABC Trading Limited", "XYZ Holdings Limited", "Ghost Limited"}, reg.SearchTerms())
}

func TestProcessOwnersWithoutUnitColumn(t *testing.T) {
	reg := newRegistry(t)

	table := workbook.NewTable([]string{"Owners Name(s)"}, [][]string{{"XYZ Holdings Limited"}})

	report, err := newProcessor(reg).Process(context.Background(), table, mustProfile(t, ProfileOwners), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"", "XYZ Holdings Limited", "XYZ Holdings Limited - Director: Mary Major, Tom Minor"}, report.Records()[0])
}

func TestProcessMissingColumn(t *testing.T) {
	reg := newRegistry(t)

	table := workbook.NewTable([]string{"Owners Name(s)"}, [][]string{{"ABC Trading Limited"}})

	report, err := newProcessor(reg).Process(context.Background(), table, mustProfile(t, ProfileTitle), nil)
	require.ErrorIs(t, err, ErrMissingColumn)
	assert.Contains(t, err.Error(), "Name on the title")
	assert.Nil(t, report)
	assert.Empty(t, reg.SearchTerms())

	require.ErrorIs(t, CheckColumns(table, mustProfile(t, ProfileTitle)), ErrMissingColumn)
	require.NoError(t, CheckColumns(table, mustProfile(t, ProfileOwners)))
}

func TestProcessContinuesAfterFailures(t *testing.T) {
	t.Run("search failure", func(t *testing.T) {
		reg := newRegistry(t)
		reg.FailSearch(http.StatusInternalServerError)

		table := workbook.NewTable(
			[]string{"Name on the title"},
			[][]string{{"ABC Trading Limited"}, {"XYZ Holdings Limited"}},
		)

		report, err := newProcessor(reg).Process(context.Background(), table, mustProfile(t, ProfileTitle), nil)
		require.NoError(t, err)

		require.Len(t, report.Rows, 2)
		require.Len(t, report.Errors, 2)
		assert.Contains(t, report.Errors[0], "Error searching NZBN for ABC Trading Limited:")
		assert.Contains(t, report.Errors[0], "500")
		assert.Empty(t, report.Rows[0].Directors)
		assert.Empty(t, reg.EntityLookups())
	})

	t.Run("directors failure", func(t *testing.T) {
		reg := newRegistry(t)
		reg.FailEntity(http.StatusBadGateway)

		table := workbook.NewTable([]string{"Name on the title"}, [][]string{{"ABC Trading Limited"}})

		report, err := newProcessor(reg).Process(context.Background(), table, mustProfile(t, ProfileTitle), nil)
		require.NoError(t, err)

		require.Len(t, report.Errors, 1)
		assert.Contains(t, report.Errors[0], "Error fetching directors for NZBN 9429000000001:")
		assert.Equal(t, "9429000000001", report.Rows[0].NZBN)
		assert.Empty(t, report.Rows[0].Directors)
	})

	t.Run("missing subscription key", func(t *testing.T) {
		reg := newRegistry(t)

		client := nzbn.NewClient("", nzbn.WithBaseURL(reg.URL))
		processor := NewProcessor(nzbn.NewService(client, nil), nil)

		table := workbook.NewTable([]string{"Name on the title"}, [][]string{{"ABC Trading Limited"}, {"XYZ Holdings Limited"}})

		report, err := processor.Process(context.Background(), table, mustProfile(t, ProfileTitle), nil)
		require.NoError(t, err)

		assert.Len(t, report.Rows, 2)
		assert.Len(t, report.Errors, 2)
		assert.Contains(t, report.Errors[1], "subscription key is not configured")
		assert.Empty(t, reg.SearchTerms())
	})
}

func TestProcessCanceled(t *testing.T) {
	reg := newRegistry(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	table := workbook.NewTable([]string{"Name on the title"}, [][]string{{"ABC Trading Limited"}})

	report, err := newProcessor(reg).Process(ctx, table, mustProfile(t, ProfileTitle), nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Rows)
	assert.Empty(t, reg.SearchTerms())
}

func TestReportCSV(t *testing.T) {
	report := &Report{
		Profile: mustProfile(t, ProfileOwners),
		Rows: []ResultRow{
			{Unit: "1", Original: "Acme Limited", Directors: "Acme Limited - Director: Jane Doe, John Roe"},
		},
	}

	data, err := report.CSV()
	require.NoError(t, err)

	assert.Equal(t, "Unit,Original,Directors\n1,Acme Limited,\"Acme Limited - Director: Jane Doe, John Roe\"\n", string(data))
}

func TestLookupProfile(t *testing.T) {
	_, err := LookupProfile("nope")
	assert.Error(t, err)

	assert.Equal(t, []string{ProfileOwners, ProfileTitle}, ProfileNames())
}
