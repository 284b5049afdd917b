package source

import (
	"net/url"
	"strings"
	"unicode"
)

// contractions repairs the most common apostrophes lost by title-casing.
var contractions = [][2]string{
	{" S ", "'s "},
	{" T ", "'t "},
	{" D ", "'d "},
	{" Ve ", "'ve "},
	{" Ll ", "'ll "},
	{" Re ", "'re "},
	{" M ", "'m "},
}

// FormatName turns a raw track path into a presentable display name: the
// last path segment, URL-decoded, with the extension and any leading track
// numbers stripped, then title-cased.
func FormatName(path string) string {
	segment := path
	if idx := strings.LastIndex(segment, "/"); idx >= 0 {
		segment = segment[idx+1:]
	}

	if idx := strings.LastIndex(segment, "."); idx > 0 {
		segment = segment[:idx]
	}

	// PathUnescape, not QueryUnescape: these are URL path segments, where a
	// literal "+" is just a plus.
	if decoded, err := url.PathUnescape(segment); err == nil {
		segment = decoded
	}

	name := titleCase(segment)
	for _, c := range contractions {
		name = strings.ReplaceAll(name, c[0], c[1])
	}

	// Strip leading digits unless the whole name is numeric
	stripped := strings.TrimLeft(name, "0123456789")
	if stripped != "" {
		name = strings.TrimSpace(stripped)
	}

	return name
}

// titleCase lowercases the input, then capitalizes each word, treating
// dashes and underscores as word separators.
func titleCase(s string) string {
	s = strings.ToLower(s)
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_'
	})

	for i, word := range words {
		r := []rune(word)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}

	return strings.Join(words, " ")
}
