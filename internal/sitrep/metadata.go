package sitrep

import (
	"regexp"
	"strings"
)

// queryPrefixRe matches the sender prefix some client portals prepend to a
// query: a name, a comma, and an RFC1123-style GMT timestamp, followed by
// the actual message on the same or the next line.
//
//	"Wade Jones, Tue, 29 Oct 2024 15:34:26 GMT\nIs this expected?"
var queryPrefixRe = regexp.MustCompile(
	`^\s*([A-Za-z][A-Za-z.'\- ]*?),\s*((?:Mon|Tue|Wed|Thu|Fri|Sat|Sun),\s*\d{1,2}\s+[A-Za-z]{3}\s+\d{4}\s+\d{2}:\d{2}:\d{2}\s+GMT)\s*\n?`)

// ParseQueryMetadata splits a client query into sender metadata and message
// content. When the prefix pattern does not match, the full query becomes
// Content and Name/Timestamp stay empty. Purely positional, no oracle call.
func ParseQueryMetadata(query string) QueryMetadata {
	m := queryPrefixRe.FindStringSubmatchIndex(query)
	if m == nil {
		return QueryMetadata{Content: strings.TrimSpace(query)}
	}
	return QueryMetadata{
		Name:      strings.TrimSpace(query[m[2]:m[3]]),
		Timestamp: strings.TrimSpace(query[m[4]:m[5]]),
		Content:   strings.TrimSpace(query[m[1]:]),
	}
}
