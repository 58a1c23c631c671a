package notebook

import (
	"github.com/gobwas/glob"
	"github.com/google/uuid"
)

// canonicalIDLength is the fixed length of an 8-4-4-4-12 identifier.
const canonicalIDLength = 36

// findCanonicalID walks a decoded positional response depth-first and
// returns the first string shaped like a canonical identifier
// (8-4-4-4-12 hex grouping, case-insensitive), or "".
func findCanonicalID(node interface{}) string {
	switch v := node.(type) {
	case string:
		if isCanonicalID(v) {
			return v
		}
	case []interface{}:
		for _, child := range v {
			if found := findCanonicalID(child); found != "" {
				return found
			}
		}
	}
	return ""
}

func isCanonicalID(s string) bool {
	// uuid.Parse also accepts urn: and braced forms; the length guard
	// restricts the match to the bare grouping.
	if len(s) != canonicalIDLength {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// findArtifactURL walks a decoded list-artifacts response depth-first and
// returns the first string matching one of the artifact URL patterns.
func findArtifactURL(node interface{}, patterns []glob.Glob) string {
	switch v := node.(type) {
	case string:
		for _, p := range patterns {
			if p.Match(v) {
				return v
			}
		}
	case []interface{}:
		for _, child := range v {
			if found := findArtifactURL(child, patterns); found != "" {
				return found
			}
		}
	}
	return ""
}
