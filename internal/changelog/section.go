package changelog

import "strings"

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for changelog parsing.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// ExtractVersionSection returns the part of changelogText that documents version,
// together with the highest release level it mentions.
//
// The section starts after the first heading whose text equals version
// (ignoring case) and ends before the next heading of exactly the same depth.
// When no heading matches, the whole document is returned and Found is false.
func ExtractVersionSection(changelogText, version string) Section {
	return Parse(changelogText).VersionSection(version)
}

// VersionSection extracts the section for version from an already parsed document.
func (d *Document) VersionSection(version string) Section {
	bounds := d.findVersionSection(version)
	if bounds.start < 0 {
		logDebug("[changelog] no heading matches %q, using whole document", version)
		return Section{
			Content:      d.Render(0, len(d.source)),
			HighestLevel: bounds.highest,
		}
	}

	from := d.Nodes[bounds.start].BodyStart
	to := len(d.source)
	if bounds.end >= 0 {
		to = d.Nodes[bounds.end].Start
	}
	logDebug("[changelog] version %q spans nodes %d..%d (bytes %d..%d), level %s",
		version, bounds.start, bounds.end, from, to, bounds.highest)

	return Section{
		Content:      d.Render(from, to),
		HighestLevel: bounds.highest,
		Found:        true,
	}
}

// sectionBounds holds node indexes found while scanning for a version heading.
type sectionBounds struct {
	start   int // matching heading, -1 when absent
	end     int // closing heading, -1 when the section runs to the end
	highest Level
}

// findVersionSection scans nodes in order. Once the version heading is found,
// every heading and list up to the closing heading raises the level; lists
// cover older changelogs that tag bullets with "[patch]" instead of using
// "### Patch Changes" headings. Nodes outside the section never count, since
// every version in a changeset changelog carries its own category headings.
func (d *Document) findVersionSection(version string) sectionBounds {
	b := sectionBounds{start: -1, end: -1, highest: Dependency}
	target := strings.TrimSpace(version)

	for i, n := range d.Nodes {
		if n.Kind == KindHeading {
			if b.start >= 0 && n.Depth == d.Nodes[b.start].Depth {
				b.end = i
				return b
			}
			if b.start < 0 && target != "" && strings.EqualFold(n.Text, target) {
				b.start = i
			}
		}
		if b.start < 0 {
			continue
		}
		if n.Kind == KindHeading || n.Kind == KindList {
			b.highest = raiseLevel(b.highest, n.Text)
		}
	}
	return b
}

func raiseLevel(current Level, text string) Level {
	if level, ok := HighestLevelIn(text); ok {
		return MaxLevel(current, level)
	}
	return current
}
