package changelog

import (
	"fmt"
	"strings"
)

// Level is the severity of a release, ordered from least to most impactful.
type Level int

const (
	// Dependency covers releases that only bump dependencies.
	Dependency Level = iota
	Patch
	Minor
	Major
)

// levelKeywords maps the keywords searched for in changelog text to their level.
// Order is lowest to highest.
var levelKeywords = []struct {
	key   string
	level Level
}{
	{"dep", Dependency},
	{"patch", Patch},
	{"minor", Minor},
	{"major", Major},
}

// String returns the keyword for the level.
func (l Level) String() string {
	for _, kw := range levelKeywords {
		if kw.level == l {
			return kw.key
		}
	}
	return fmt.Sprintf("Level(%d)", int(l))
}

// Valid reports whether l is one of the four known levels.
func (l Level) Valid() bool {
	return l >= Dependency && l <= Major
}

// ParseLevel returns the level for a keyword such as "minor".
func ParseLevel(key string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	for _, kw := range levelKeywords {
		if kw.key == normalized {
			return kw.level, nil
		}
	}
	return Dependency, fmt.Errorf("invalid release level %q", key)
}

// MaxLevel returns the higher of two levels.
func MaxLevel(a, b Level) Level {
	if a > b {
		return a
	}
	return b
}

// LevelsIn returns every level whose keyword appears in s, ignoring case,
// lowest first.
func LevelsIn(s string) []Level {
	lower := strings.ToLower(s)
	var found []Level
	for _, kw := range levelKeywords {
		if strings.Contains(lower, kw.key) {
			found = append(found, kw.level)
		}
	}
	return found
}

// HighestLevelIn returns the highest level mentioned in s and whether any was found.
func HighestLevelIn(s string) (Level, bool) {
	found := LevelsIn(s)
	if len(found) == 0 {
		return Dependency, false
	}
	return found[len(found)-1], true
}
