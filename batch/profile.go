package batch

import (
	"fmt"
	"sort"

	"github.com/tpgainz/nzbn-directors/nzbn"
)

const (
	ColUnit        = "Unit"
	ColOriginal    = "Original"
	ColCompanyName = "Extracted Company Name"
	ColNZBN        = "NZBN"
	ColMatchedName = "Matched Name"
	ColDirectors   = "Directors"
)

const (
	ProfileTitle  = "title"
	ProfileOwners = "owners"
)

// Profile describes one batch tool: which column it reads, how it extracts
// company names and what the export looks like.
type Profile struct {
	Name      string
	Title     string
	Column    string
	Extractor nzbn.Extractor
	// LookupExtracted resolves the extracted name itself. Annotating
	// extractors perform their own lookups per company part instead.
	LookupExtracted bool
	NameCase        nzbn.NameCase
	Columns         []string
	FileName        string
}

var profiles = map[string]*Profile{
	ProfileTitle: {
		Name:            ProfileTitle,
		Title:           "Batch NZ Company Directors Lookup",
		Column:          "Name on the title",
		Extractor:       nzbn.ExtractSimple{},
		LookupExtracted: true,
		NameCase:        nzbn.NameCaseTitle,
		Columns:         []string{ColOriginal, ColCompanyName, ColNZBN, ColMatchedName, ColDirectors},
		FileName:        "company_directors_results.csv",
	},
	ProfileOwners: {
		Name:      ProfileOwners,
		Title:     "Owners Directors Lookup",
		Column:    "Owners Name(s)",
		Extractor: nzbn.ExtractAnnotate{},
		NameCase:  nzbn.NameCaseAsIs,
		Columns:   []string{ColUnit, ColOriginal, ColDirectors},
		FileName:  "owners_directors_results.csv",
	},
}

func LookupProfile(name string) (*Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown batch profile %q", name)
	}

	return p, nil
}

func ProfileNames() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
