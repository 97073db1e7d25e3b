package docmodel

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// fallbackSlug is used when a heading has no sluggable characters.
const fallbackSlug = "section"

// Slugify derives an anchor id from heading text: lowercase, whitespace and
// underscores become hyphens, punctuation is dropped, accents are folded.
func Slugify(s string) string {
	folder := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	hyphen := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			hyphen = false
		case unicode.IsSpace(r) || r == '-' || r == '_':
			if !hyphen && b.Len() > 0 {
				b.WriteByte('-')
				hyphen = true
			}
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		return fallbackSlug
	}
	return slug
}

// idSet hands out unique ids within one document.
type idSet map[string]int

// reserve claims id for line without suffixing. It reports false when id was already taken.
func (s idSet) reserve(id string, line int) bool {
	if _, taken := s[id]; taken {
		return false
	}
	s[id] = line
	return true
}

// unique claims base, or base-1, base-2 ... skipping any id already taken.
func (s idSet) unique(base string, line int) string {
	if s.reserve(base, line) {
		return base
	}
	for i := 1; ; i++ {
		candidate := base + "-" + strconv.Itoa(i)
		if s.reserve(candidate, line) {
			return candidate
		}
	}
}
