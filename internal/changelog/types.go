package changelog

// FileName is the changelog file written by the version bump tool in each package directory.
const FileName = "CHANGELOG.md"

// NodeKind identifies the type of a top-level block in a changelog document.
type NodeKind int

const (
	KindOther NodeKind = iota
	KindHeading
	KindParagraph
	KindList
	KindBlockquote
	KindCodeBlock
	KindThematicBreak
	KindHTML
)

// String returns a lower-case name for the kind.
func (k NodeKind) String() string {
	switch k {
	case KindHeading:
		return "heading"
	case KindParagraph:
		return "paragraph"
	case KindList:
		return "list"
	case KindBlockquote:
		return "blockquote"
	case KindCodeBlock:
		return "code"
	case KindThematicBreak:
		return "thematic-break"
	case KindHTML:
		return "html"
	default:
		return "other"
	}
}

// Node is a single top-level block of a changelog document.
// Nesting is implied by heading depth: a heading owns every following node
// up to the next heading of the same depth.
type Node struct {
	Kind NodeKind
	// Depth is the heading level (1-6); zero for non-heading nodes.
	Depth int
	// Text is the plain inline text of the node with surrounding whitespace removed.
	Text string
	// Start is the byte offset of the first source line of the node.
	Start int
	// BodyStart is the byte offset just past the node's own source lines.
	// For headings this is where the heading's section body begins.
	BodyStart int
}

// IsHeading reports whether the node is a heading.
func (n Node) IsHeading() bool {
	return n.Kind == KindHeading
}

// Document is a parsed changelog: its source and its top-level nodes in source order.
type Document struct {
	source []byte
	Nodes  []Node
}

// Source returns the text the document was parsed from.
func (d *Document) Source() string {
	return string(d.source)
}

// Headings returns the heading nodes of the document in order.
func (d *Document) Headings() []Node {
	var headings []Node
	for _, n := range d.Nodes {
		if n.IsHeading() {
			headings = append(headings, n)
		}
	}
	return headings
}

// Section is the changelog content that belongs to one version.
type Section struct {
	// Content is the markdown between the version heading and the next heading
	// of the same depth, or the whole document when the version was not found.
	Content string
	// HighestLevel is the most severe release level mentioned by the section.
	HighestLevel Level
	// Found is false when no heading matched the version.
	Found bool
}
