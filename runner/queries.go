package runner

import (
	"bufio"
	"io"
	"strings"
)

// Query is one company name read from a lookup input file. Lines may carry a
// caller label after a "#!#" separator, e.g. "Acme Limited #!# row-12".
type Query struct {
	Name string
	ID   string
}

func ReadQueries(r io.Reader) ([]Query, error) {
	var queries []Query

	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		q := Query{Name: line}

		if before, after, ok := strings.Cut(line, "#!#"); ok {
			q.Name = strings.TrimSpace(before)
			q.ID = strings.TrimSpace(after)
		}

		if q.Name == "" {
			continue
		}

		queries = append(queries, q)
	}

	return queries, scanner.Err()
}
