package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// Fingerprint hashes the canonical form of fields together with content.
// The mdfp fingerprint field itself is never part of the hash.
func Fingerprint(fields map[string]any, content []byte) (string, error) {
	forHash := make(map[string]any, len(fields))
	for k, v := range fields {
		if k == mdfp.FingerprintField {
			continue
		}
		forHash[k] = v
	}
	canonical, err := Canonical(forHash)
	if err != nil {
		return "", err
	}
	return mdfp.CalculateFingerprintFromParts(strings.TrimSuffix(string(canonical), "\n"), string(content)), nil
}
