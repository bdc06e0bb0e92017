package nzbn

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	roleTypeDirector = "Director"
	roleStatusActive = "ACTIVE"
)

// NameCase selects how director names are presented.
type NameCase int

const (
	// NameCaseAsIs keeps the casing returned by the registry.
	NameCaseAsIs NameCase = iota
	NameCaseTitle
)

// ActiveDirectors filters roles down to active directors with a non-empty name.
func ActiveDirectors(roles []Role, nameCase NameCase) []Director {
	directors := make([]Director, 0, len(roles))

	var caser cases.Caser
	if nameCase == NameCaseTitle {
		caser = cases.Title(language.Und)
	}

	for _, role := range roles {
		if role.RoleType != roleTypeDirector || role.RoleStatus != roleStatusActive {
			continue
		}

		if role.RolePerson == nil {
			continue
		}

		first := strings.TrimSpace(role.RolePerson.FirstName)
		last := strings.TrimSpace(role.RolePerson.LastName)

		fullName := joinNonBlank(first, last)
		if fullName == "" {
			continue
		}

		if nameCase == NameCaseTitle {
			fullName = titleWords(caser, fullName)
		}

		directors = append(directors, Director{
			FirstName: first,
			LastName:  last,
			FullName:  fullName,
		})
	}

	return directors
}

// FormatDirectors joins director names with ", ".
func FormatDirectors(directors []Director) string {
	names := make([]string, 0, len(directors))
	for _, d := range directors {
		names = append(names, d.FullName)
	}

	return strings.Join(names, ", ")
}

// titleWords title-cases every run of letters on its own, so a word restarts
// after any non-letter: "O'BRIEN" becomes "O'Brien", "mary-jane" "Mary-Jane".
func titleWords(caser cases.Caser, s string) string {
	var b strings.Builder

	start := -1

	for i, r := range s {
		if unicode.IsLetter(r) {
			if start < 0 {
				start = i
			}

			continue
		}

		if start >= 0 {
			b.WriteString(caser.String(s[start:i]))
			start = -1
		}

		b.WriteRune(r)
	}

	if start >= 0 {
		b.WriteString(caser.String(s[start:]))
	}

	return b.String()
}

func joinNonBlank(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}

	return strings.Join(kept, " ")
}
