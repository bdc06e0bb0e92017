package nzbn

import (
	"fmt"
	"strings"
)

// MatchMode decides which search item a company name resolves to.
type MatchMode int

const (
	// MatchFirst always takes the first item. Batch tools pair it with a
	// page size of 1.
	MatchFirst MatchMode = iota
	// MatchStrict prefers the first item whose entity name equals the query
	// ignoring case, falling back to the first item.
	MatchStrict
)

func (m MatchMode) String() string {
	switch m {
	case MatchFirst:
		return "first"
	case MatchStrict:
		return "strict"
	default:
		return fmt.Sprintf("MatchMode(%d)", int(m))
	}
}

// SelectMatch picks an item from items according to mode. Upstream order is
// kept as-is; it returns nil when items is empty.
func SelectMatch(items []SearchItem, query string, mode MatchMode) *RegistryMatch {
	if len(items) == 0 {
		return nil
	}

	if mode == MatchStrict {
		query = strings.TrimSpace(query)

		for _, item := range items {
			if strings.EqualFold(strings.TrimSpace(item.EntityName), query) {
				return &RegistryMatch{NZBN: item.NZBN, EntityName: item.EntityName}
			}
		}
	}

	return &RegistryMatch{NZBN: items[0].NZBN, EntityName: items[0].EntityName}
}
