package reference

import (
	"path/filepath"
	"strings"
)

const maxTitleLength = 60

// canonicalTitles maps filename substrings to the proper book titles of
// the reference corpus. Matching is case-insensitive on the source name.
var canonicalTitles = []struct {
	pattern string
	title   string
}{
	{"harrison", "Harrison's Principles of Internal Medicine"},
	{"davidson", "Davidson's Principles and Practice of Medicine"},
	{"oxford_handbook", "Oxford Handbook of Clinical Medicine"},
	{"current_medical", "CURRENT Medical Diagnosis and Treatment"},
	{"merck", "The Merck Manual of Diagnosis and Therapy"},
	{"gray", "Gray's Anatomy"},
	{"nelson", "Nelson Textbook of Pediatrics"},
	{"robbins", "Robbins and Cotran Pathologic Basis of Disease"},
	{"goodman", "Goodman and Gilman's Pharmacological Basis of Therapeutics"},
}

// lowercase words kept lowercase when title-casing unknown filenames
var smallWords = map[string]bool{
	"a": true, "an": true, "and": true, "at": true, "by": true,
	"for": true, "in": true, "of": true, "on": true, "or": true,
	"the": true, "to": true, "with": true,
}

// DisplayTitle derives a citation title from a corpus source filename.
// Known filenames map to canonical book titles; anything else is
// title-cased word by word and truncated for display.
func DisplayTitle(source string) string {
	if source == "" {
		return "Medical Reference"
	}

	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	lower := strings.ToLower(base)

	for _, entry := range canonicalTitles {
		if strings.Contains(lower, entry.pattern) {
			return truncateTitle(entry.title)
		}
	}

	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, word := range words {
		lw := strings.ToLower(word)
		if i > 0 && smallWords[lw] {
			words[i] = lw
			continue
		}
		words[i] = capitalize(lw)
	}

	return truncateTitle(strings.Join(words, " "))
}

func capitalize(word string) string {
	if word == "" {
		return word
	}
	return strings.ToUpper(word[:1]) + word[1:]
}

func truncateTitle(title string) string {
	if len(title) <= maxTitleLength {
		return title
	}
	return title[:maxTitleLength-3] + "..."
}
