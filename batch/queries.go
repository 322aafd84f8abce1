package batch

import (
	"bufio"
	"io"
	"strings"

	"github.com/poiesic/medrank/catalog"
)

// Query is one line of a query file.
type Query struct {
	Line int
	Tags []string
}

// ReadQueries reads one query per line. Each line is a tag list in any form
// catalog.ParseTags accepts. Blank lines and lines starting with # are
// skipped; a line with no tags is kept as an empty query.
func ReadQueries(r io.Reader) ([]Query, error) {
	var queries []Query
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		queries = append(queries, Query{Line: line, Tags: catalog.ParseTags(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return queries, nil
}
