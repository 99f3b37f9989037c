package changelog

import "strings"

// Render returns the markdown source between two byte offsets with leading blank
// lines and trailing whitespace removed. Non-empty output ends with one newline.
//
// Rendering slices the original source, so every construct inside the range
// (lists, emphasis, links, code spans, nested headings) is reproduced exactly.
func (d *Document) Render(from, to int) string {
	from = clamp(from, 0, len(d.source))
	to = clamp(to, from, len(d.source))
	return trimBlankLines(string(d.source[from:to]))
}

// RenderNodes renders the nodes in [first, last) back to markdown.
func (d *Document) RenderNodes(first, last int) string {
	if first < 0 || first >= len(d.Nodes) || last <= first {
		return ""
	}
	to := len(d.source)
	if last < len(d.Nodes) {
		to = d.Nodes[last].Start
	}
	return d.Render(d.Nodes[first].Start, to)
}

func trimBlankLines(s string) string {
	for s != "" {
		end := strings.IndexByte(s, '\n')
		if end < 0 {
			break
		}
		if strings.TrimSpace(s[:end]) != "" {
			break
		}
		s = s[end+1:]
	}
	s = strings.TrimRight(s, " \t\r\n")
	if s == "" {
		return ""
	}
	return s + "\n"
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
