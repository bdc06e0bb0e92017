package nzbn

type SearchItem struct {
	NZBN                    string `json:"nzbn"`
	EntityName              string `json:"entityName"`
	EntityStatusCode        string `json:"entityStatusCode,omitempty"`
	EntityStatusDescription string `json:"entityStatusDescription,omitempty"`
	EntityTypeDescription   string `json:"entityTypeDescription,omitempty"`
}

type SearchResponse struct {
	Items      []SearchItem `json:"items"`
	TotalItems int          `json:"totalItems"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
}

type RolePerson struct {
	FirstName   string `json:"firstName"`
	MiddleNames string `json:"middleNames,omitempty"`
	LastName    string `json:"lastName"`
}

type Role struct {
	RoleType   string      `json:"roleType"`
	RoleStatus string      `json:"roleStatus"`
	StartDate  string      `json:"startDate,omitempty"`
	RolePerson *RolePerson `json:"rolePerson,omitempty"`
}

type EntityResponse struct {
	NZBN                    string `json:"nzbn"`
	EntityName              string `json:"entityName"`
	EntityStatusDescription string `json:"entityStatusDescription,omitempty"`
	Roles                   []Role `json:"roles"`
}

// RegistryMatch is the entity a company name resolved to.
type RegistryMatch struct {
	NZBN       string `json:"nzbn"`
	EntityName string `json:"entityName"`
}

type Director struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	FullName  string `json:"fullName"`
}

// Suggestion is one typeahead entry returned by the autocomplete endpoint.
type Suggestion struct {
	Name string `json:"name"`
	NZBN string `json:"nzbn"`
}

// LookupResult carries everything the interactive page renders for one query.
// Error is the single user-visible failure message; when it is set the other
// fields may be partially filled.
type LookupResult struct {
	Query     string         `json:"query"`
	Match     *RegistryMatch `json:"match,omitempty"`
	Directors []Director     `json:"directors"`
	Error     string         `json:"error,omitempty"`
}

func (r *LookupResult) DirectorNames() []string {
	names := make([]string, 0, len(r.Directors))
	for _, d := range r.Directors {
		names = append(names, d.FullName)
	}

	return names
}
