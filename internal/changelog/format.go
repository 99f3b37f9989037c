package changelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"
)

// levelColors maps release levels to their badge color.
var levelColors = map[Level]*color.Color{
	Major:      color.New(color.FgRed, color.Bold),
	Minor:      color.New(color.FgYellow),
	Patch:      color.New(color.FgGreen),
	Dependency: color.New(color.FgBlue),
}

var headingColor = color.New(color.FgCyan, color.Bold)

// FormatOptions controls the terminal output formatting.
type FormatOptions struct {
	Plain    bool // Disable colors
	MaxWidth int  // Maximum line width (0 = auto-detect)
}

// FormatSection writes an extracted section to w with a title line and a level badge.
// Headings are highlighted and long list items are wrapped to the terminal width.
// Fenced code is written verbatim.
func FormatSection(w io.Writer, title string, s Section, opts FormatOptions) error {
	width := resolveWidth(opts.MaxWidth)

	if err := writeSectionHeader(w, title, s, opts); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	content := strings.TrimRight(s.Content, "\n")
	if content == "" {
		_, err := fmt.Fprintln(w, "(empty section)")
		return err
	}

	inFence := false
	for _, line := range strings.Split(content, "\n") {
		if isFenceLine([]byte(line)) {
			inFence = !inFence
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
			continue
		}
		if err := writeContentLine(w, line, inFence, opts, width); err != nil {
			return err
		}
	}
	return nil
}

// FormatLevel returns the level as a "[major]" style badge.
func FormatLevel(level Level, opts FormatOptions) string {
	badge := "[" + level.String() + "]"
	if opts.Plain {
		return badge
	}
	c, ok := levelColors[level]
	if !ok {
		return badge
	}
	return c.Sprint(badge)
}

func writeSectionHeader(w io.Writer, title string, s Section, opts FormatOptions) error {
	header := title
	if !opts.Plain {
		header = color.New(color.Bold).Sprint(title)
	}
	if _, err := fmt.Fprintf(w, "%s %s\n", header, FormatLevel(s.HighestLevel, opts)); err != nil {
		return err
	}
	if !s.Found {
		note := "(no heading for this version; showing the whole changelog)"
		if !opts.Plain {
			note = color.New(color.Faint).Sprint(note)
		}
		if _, err := fmt.Fprintln(w, note); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

func writeContentLine(w io.Writer, line string, inFence bool, opts FormatOptions, width int) error {
	if inFence {
		_, err := fmt.Fprintln(w, line)
		return err
	}

	if atxHeadingLine.MatchString(line) {
		if opts.Plain {
			_, err := fmt.Fprintln(w, line)
			return err
		}
		_, err := fmt.Fprintln(w, headingColor.Sprint(line))
		return err
	}

	indent := listIndent(line)
	_, err := fmt.Fprintln(w, wrapText(line, width, indent))
	return err
}

// listIndent returns the continuation indent for a list item line.
func listIndent(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	lead := len(line) - len(trimmed)
	for _, marker := range []string{"- ", "* ", "+ "} {
		if strings.HasPrefix(trimmed, marker) {
			return strings.Repeat(" ", lead+len(marker))
		}
	}
	return strings.Repeat(" ", lead)
}

// resolveWidth determines the output width.
func resolveWidth(maxWidth int) int {
	if maxWidth > 0 {
		return maxWidth
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}

// wrapText wraps text to fit within maxWidth, using indent for continuation lines.
func wrapText(text string, maxWidth int, indent string) string {
	if maxWidth <= 0 || len(text) <= maxWidth || maxWidth <= len(indent) {
		return text
	}

	var lines []string
	remaining := text
	limit := maxWidth

	for len(remaining) > limit {
		// Find the last space within the limit
		breakPoint := limit
		for i := limit - 1; i > 0; i-- {
			if remaining[i] == ' ' {
				breakPoint = i
				break
			}
		}

		lines = append(lines, remaining[:breakPoint])
		remaining = strings.TrimLeft(remaining[breakPoint:], " ")
		limit = maxWidth - len(indent)
	}

	if len(remaining) > 0 {
		lines = append(lines, remaining)
	}

	return strings.Join(lines, "\n"+indent)
}
