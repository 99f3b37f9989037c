package releasenote

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxCharacters keeps pull request bodies under the hosting API limit
// of 65536 characters.
const DefaultMaxCharacters = 60000

const (
	releasesHeading = "# Releases"

	omittedChangelogsNotice = "\n> The changelog information of each package has been omitted from this message, as the content exceeds the size limit.\n"
	omittedAllNotice        = "\n> All release information have been omitted from this message, as the content exceeds the size limit."

	prereleaseBanner = "⚠️⚠️⚠️⚠️⚠️⚠️"
)

// Tier reports how much of the release information a composed message kept.
type Tier int

const (
	// TierFull keeps every package header and changelog section.
	TierFull Tier = iota
	// TierHeadersOnly keeps package headers but omits changelog sections.
	TierHeadersOnly
	// TierOmitted drops all per-package information.
	TierOmitted
)

func (t Tier) String() string {
	switch t {
	case TierFull:
		return "full"
	case TierHeadersOnly:
		return "headers-only"
	case TierOmitted:
		return "omitted"
	default:
		return fmt.Sprintf("Tier(%d)", int(t))
	}
}

// Degraded reports whether content was dropped to fit the size limit.
func (t Tier) Degraded() bool {
	return t != TierFull
}

// Options configures message composition.
type Options struct {
	// HasPublishScript selects the "published automatically" wording.
	HasPublishScript bool
	// PreReleaseTag is the pre mode tag; empty outside pre mode.
	PreReleaseTag string
	// Branch is the base branch that receives new changesets.
	Branch string
	// MaxCharacters is the size budget in characters. Zero means DefaultMaxCharacters.
	MaxCharacters int
}

func (o Options) maxCharacters() int {
	if o.MaxCharacters <= 0 {
		return DefaultMaxCharacters
	}
	return o.MaxCharacters
}

// Message is a composed release pull request body.
type Message struct {
	Body string
	Tier Tier
}

// Compose sorts a copy of packages and builds the release body, dropping
// changelog sections and then all package information when the body
// exceeds the size budget. The last tier is returned even if it is still
// over budget.
func Compose(packages []PackageInfo, opts Options) Message {
	sorted := Sorted(packages)
	limit := opts.maxCharacters()
	preamble := []string{header(opts), prereleaseWarning(opts), releasesHeading}

	full := make([]string, 0, len(preamble)+len(sorted))
	full = append(full, preamble...)
	for _, p := range sorted {
		full = append(full, p.Header+"\n\n"+p.Content)
	}
	body := strings.Join(full, "\n")
	if length(body) <= limit {
		return Message{Body: body, Tier: TierFull}
	}

	headersOnly := make([]string, 0, len(preamble)+1+len(sorted))
	headersOnly = append(headersOnly, preamble...)
	headersOnly = append(headersOnly, omittedChangelogsNotice)
	for _, p := range sorted {
		headersOnly = append(headersOnly, p.Header+"\n\n")
	}
	body = strings.Join(headersOnly, "\n")
	if length(body) <= limit {
		return Message{Body: body, Tier: TierHeadersOnly}
	}

	omitted := append(preamble, omittedAllNotice)
	return Message{Body: strings.Join(omitted, "\n"), Tier: TierOmitted}
}

// Title appends the pre mode tag to a pull request title or commit message.
func Title(base, preReleaseTag string) string {
	if preReleaseTag == "" {
		return base
	}
	return fmt.Sprintf("%s (%s)", base, preReleaseTag)
}

func header(opts Options) string {
	next := "publish the packages yourself, or configure a publish script so they are published automatically"
	if opts.HasPublishScript {
		next = "the packages will be published automatically"
	}
	return fmt.Sprintf("This PR was opened by csrelease. When you're ready to do a release, you can merge this and %s. "+
		"If you're not ready to do a release yet, that's fine, whenever you add more changesets to %s, this PR will be updated.\n",
		next, opts.Branch)
}

func prereleaseWarning(opts Options) string {
	if opts.PreReleaseTag == "" {
		return ""
	}
	return fmt.Sprintf("%s\n\n`%s` is currently in **pre mode** so this branch has `%s` prereleases rather than normal releases. "+
		"If you want to exit prereleases, run `changeset pre exit` on `%s`.\n\n%s\n",
		prereleaseBanner, opts.Branch, opts.PreReleaseTag, opts.Branch, prereleaseBanner)
}

// length counts characters rather than bytes.
func length(s string) int {
	return utf8.RuneCountInString(s)
}
