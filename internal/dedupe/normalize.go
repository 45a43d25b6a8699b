// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedupe resolves candidate records against the canonical library.
// Strong matching goes through identifiers (DOI, then source-native ids);
// weak matching compares normalized titles within a first-author/year block.
package dedupe

import (
	"strings"
	"unicode"
)

// stopWords are dropped from normalized title keys. Short connective words
// carry no identity signal and differ across citation styles.
var stopWords = map[string]bool{
	"a": true, "an": true, "the": true,
	"and": true, "or": true, "of": true,
	"on": true, "in": true, "for": true,
	"to": true, "with": true, "at": true,
	"by": true, "from": true, "as": true,
	"its": true, "is": true, "are": true,
}

// NormalizeTitle returns the lowercased, punctuation-stripped, stop-word-free
// key used for weak matching. It is never shown to users.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// FirstAuthorSurname extracts the lowercased surname of the first author.
// Both "Jane Doe" and "Doe, Jane" forms are handled; an empty author list
// yields "".
func FirstAuthorSurname(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	name := strings.TrimSpace(authors[0])
	if name == "" {
		return ""
	}
	if i := strings.IndexByte(name, ','); i >= 0 {
		return strings.ToLower(strings.TrimSpace(name[:i]))
	}
	fields := strings.Fields(name)
	return strings.ToLower(fields[len(fields)-1])
}
