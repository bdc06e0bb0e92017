package nzbn

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func person(first, last string) *RolePerson {
	return &RolePerson{FirstName: first, LastName: last}
}

func TestActiveDirectors(t *testing.T) {
	roles := []Role{
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("Jane", "Doe")},
		{RoleType: "Director", RoleStatus: "RESIGNED", RolePerson: person("John", "Smith")},
	}

	directors := ActiveDirectors(roles, NameCaseAsIs)

	assert.Equal(t, []string{"Jane Doe"}, names(directors))
}

func TestActiveDirectorsFiltering(t *testing.T) {
	roles := []Role{
		{RoleType: "Shareholder", RoleStatus: "ACTIVE", RolePerson: person("Sam", "Share")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("", "Solo")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("Mono", "  ")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person(" ", "")},
		{RoleType: "Director", RoleStatus: "ACTIVE"},
		{RoleType: "director", RoleStatus: "ACTIVE", RolePerson: person("Lower", "Case")},
		{RoleType: "Director", RoleStatus: "Active", RolePerson: person("Mixed", "Status")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("MARY", "o'brien")},
	}

	directors := ActiveDirectors(roles, NameCaseAsIs)

	assert.Equal(t, []string{"Solo", "Mono", "MARY o'brien"}, names(directors))
}

func TestActiveDirectorsTitleCase(t *testing.T) {
	roles := []Role{
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("JANE", "DOE")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("john", "smith")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("SEAN", "O'BRIEN")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("mary-jane", "o'connor")},
		{RoleType: "Director", RoleStatus: "ACTIVE", RolePerson: person("ANNE-MARIE", "MCDONALD-SMITH")},
	}

	directors := ActiveDirectors(roles, NameCaseTitle)

	assert.Equal(t, []string{
		"Jane Doe",
		"John Smith",
		"Sean O'Brien",
		"Mary-Jane O'Connor",
		"Anne-Marie Mcdonald-Smith",
	}, names(directors))
	assert.Equal(t, "JANE", directors[0].FirstName)
}

func TestFormatDirectors(t *testing.T) {
	assert.Equal(t, "", FormatDirectors(nil))
	assert.Equal(t, "Jane Doe, John Smith", FormatDirectors([]Director{
		{FullName: "Jane Doe"},
		{FullName: "John Smith"},
	}))
}

func names(directors []Director) []string {
	out := make([]string, 0, len(directors))
	for _, d := range directors {
		out = append(out, d.FullName)
	}

	return out
}
