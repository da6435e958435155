package search

import "strings"

var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true,
	"were": true, "be": true, "been": true, "of": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "with": true, "about": true,
	"what": true, "which": true, "who": true, "how": true, "why": true,
	"when": true, "where": true, "does": true, "do": true, "did": true,
	"can": true, "could": true, "would": true, "should": true, "and": true,
	"or": true, "it": true, "its": true, "this": true, "that": true,
	"explain": true, "describe": true, "tell": true, "me": true, "please": true,
}

// ExpandQuery produces a lexical variant of the literal query: question
// scaffolding and stopwords stripped, keeping the content-bearing terms.
// Running both variants improves recall for technical terminology, where
// the embedding of a full question can drift away from the embedding of
// the chunk that defines the term.
func ExpandQuery(query string) string {
	fields := strings.Fields(query)
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		normalized := strings.ToLower(strings.Trim(f, ".,;:!?\"'()"))
		if normalized == "" || stopwords[normalized] {
			continue
		}
		keywords = append(keywords, normalized)
	}
	if len(keywords) == 0 {
		return query
	}
	return strings.Join(keywords, " ")
}
