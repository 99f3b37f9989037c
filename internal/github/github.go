// Package github talks to the GitHub REST API for the release workflow:
// version pull requests, releases, tags and API-side commits.
package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v66/github"
)

var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for API calls.
// Pass nil to disable debug logging.
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

const (
	fileMode       = "100644"
	executableMode = "100755"
)

// PullRequest is the subset of a pull request the release workflow reads and writes.
type PullRequest struct {
	Number int
	Title  string
	Body   string
	// Head and Base are branch names in the client's repository.
	Head string
	Base string
	URL  string
}

// Release describes a GitHub release to create for a pushed tag.
type Release struct {
	TagName    string
	Name       string
	Body       string
	Prerelease bool
}

// FileChange is a working tree change uploaded by CommitFiles.
type FileChange struct {
	Path       string
	Content    []byte
	Deleted    bool
	Executable bool
}

// Client is a GitHub API client bound to one repository.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// Option configures a Client.
type Option func(*Client) error

// WithBaseURL points the client at another API root, such as GitHub
// Enterprise or a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing base URL %q: %w", raw, err)
		}
		c.gh.BaseURL = u
		return nil
	}
}

// NewClient creates a client for repository, given as "owner/name". An
// empty token yields an unauthenticated client.
func NewClient(token, repository string, opts ...Option) (*Client, error) {
	owner, repo, err := ParseRepository(repository)
	if err != nil {
		return nil, err
	}
	gh := github.NewClient(nil)
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	c := &Client{gh: gh, owner: owner, repo: repo}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ParseRepository splits "owner/name".
func ParseRepository(repository string) (owner, repo string, err error) {
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return "", "", fmt.Errorf("invalid repository %q: expected owner/name", repository)
	}
	return owner, repo, nil
}

// Repository returns "owner/name".
func (c *Client) Repository() string {
	return c.owner + "/" + c.repo
}

// ListOpenPullRequests returns the open pull requests from head into base.
func (c *Client) ListOpenPullRequests(ctx context.Context, head, base string) ([]PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State: "open",
		Head:  c.owner + ":" + head,
		Base:  base,
	}
	prs, _, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
	if err != nil {
		return nil, fmt.Errorf("listing pull requests for %s: %w", head, err)
	}
	result := make([]PullRequest, 0, len(prs))
	for _, pr := range prs {
		result = append(result, fromPullRequest(pr))
	}
	logDebug("[github] ListOpenPullRequests %s -> %s: %d found", head, base, len(result))
	return result, nil
}

// CreatePullRequest opens a pull request from pr.Head into pr.Base.
func (c *Client) CreatePullRequest(ctx context.Context, pr PullRequest) (PullRequest, error) {
	created, _, err := c.gh.PullRequests.Create(ctx, c.owner, c.repo, &github.NewPullRequest{
		Title: github.String(pr.Title),
		Head:  github.String(pr.Head),
		Base:  github.String(pr.Base),
		Body:  github.String(pr.Body),
	})
	if err != nil {
		return PullRequest{}, fmt.Errorf("creating pull request from %s: %w", pr.Head, err)
	}
	logDebug("[github] CreatePullRequest: #%d", created.GetNumber())
	return fromPullRequest(created), nil
}

// UpdatePullRequest replaces the title and body of pull request number.
func (c *Client) UpdatePullRequest(ctx context.Context, number int, pr PullRequest) (PullRequest, error) {
	updated, _, err := c.gh.PullRequests.Edit(ctx, c.owner, c.repo, number, &github.PullRequest{
		Title: github.String(pr.Title),
		Body:  github.String(pr.Body),
	})
	if err != nil {
		return PullRequest{}, fmt.Errorf("updating pull request #%d: %w", number, err)
	}
	logDebug("[github] UpdatePullRequest: #%d", number)
	return fromPullRequest(updated), nil
}

// CreateRelease publishes a release for an existing tag.
func (c *Client) CreateRelease(ctx context.Context, r Release) error {
	_, _, err := c.gh.Repositories.CreateRelease(ctx, c.owner, c.repo, &github.RepositoryRelease{
		TagName:    github.String(r.TagName),
		Name:       github.String(r.Name),
		Body:       github.String(r.Body),
		Prerelease: github.Bool(r.Prerelease),
	})
	if err != nil {
		return fmt.Errorf("creating release %s: %w", r.TagName, err)
	}
	logDebug("[github] CreateRelease: %s (prerelease: %v)", r.TagName, r.Prerelease)
	return nil
}

// CreateTag creates refs/tags/<tag> at sha. An existing tag is not an error.
func (c *Client) CreateTag(ctx context.Context, tag, sha string) error {
	_, _, err := c.gh.Git.CreateRef(ctx, c.owner, c.repo, &github.Reference{
		Ref:    github.String("refs/tags/" + tag),
		Object: &github.GitObject{SHA: github.String(sha)},
	})
	if err != nil {
		if isStatus(err, http.StatusUnprocessableEntity) {
			logDebug("[github] CreateTag: %s already exists", tag)
			return nil
		}
		return fmt.Errorf("creating tag %s: %w", tag, err)
	}
	logDebug("[github] CreateTag: %s at %s", tag, sha)
	return nil
}

// CommitFiles commits files on top of baseSHA through the Git Data API and
// force moves branch to the new commit, creating the branch when needed.
// Commits made this way are signed by GitHub. It returns the commit SHA.
func (c *Client) CommitFiles(ctx context.Context, branch, baseSHA, message string, files []FileChange) (string, error) {
	base, _, err := c.gh.Git.GetCommit(ctx, c.owner, c.repo, baseSHA)
	if err != nil {
		return "", fmt.Errorf("reading base commit %s: %w", baseSHA, err)
	}

	entries := make([]*github.TreeEntry, 0, len(files))
	for _, f := range files {
		entry := &github.TreeEntry{
			Path: github.String(f.Path),
			Mode: github.String(fileMode),
			Type: github.String("blob"),
		}
		if f.Executable {
			entry.Mode = github.String(executableMode)
		}
		if !f.Deleted {
			sha, err := c.createBlob(ctx, f)
			if err != nil {
				return "", err
			}
			entry.SHA = github.String(sha)
		}
		entries = append(entries, entry)
	}

	tree, _, err := c.gh.Git.CreateTree(ctx, c.owner, c.repo, base.GetTree().GetSHA(), entries)
	if err != nil {
		return "", fmt.Errorf("creating tree: %w", err)
	}

	commit, _, err := c.gh.Git.CreateCommit(ctx, c.owner, c.repo, &github.Commit{
		Message: github.String(message),
		Tree:    &github.Tree{SHA: tree.SHA},
		Parents: []*github.Commit{{SHA: github.String(baseSHA)}},
	}, nil)
	if err != nil {
		return "", fmt.Errorf("creating commit: %w", err)
	}

	if err := c.setBranch(ctx, branch, commit.GetSHA()); err != nil {
		return "", err
	}
	logDebug("[github] CommitFiles: %d files on %s as %s", len(files), branch, commit.GetSHA())
	return commit.GetSHA(), nil
}

func (c *Client) createBlob(ctx context.Context, f FileChange) (string, error) {
	blob, _, err := c.gh.Git.CreateBlob(ctx, c.owner, c.repo, &github.Blob{
		Content:  github.String(base64.StdEncoding.EncodeToString(f.Content)),
		Encoding: github.String("base64"),
	})
	if err != nil {
		return "", fmt.Errorf("uploading %s: %w", f.Path, err)
	}
	return blob.GetSHA(), nil
}

func (c *Client) setBranch(ctx context.Context, branch, sha string) error {
	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(sha)},
	}
	_, _, err := c.gh.Git.GetRef(ctx, c.owner, c.repo, "heads/"+branch)
	switch {
	case err == nil:
		if _, _, err := c.gh.Git.UpdateRef(ctx, c.owner, c.repo, ref, true); err != nil {
			return fmt.Errorf("updating branch %s: %w", branch, err)
		}
	case isStatus(err, http.StatusNotFound):
		if _, _, err := c.gh.Git.CreateRef(ctx, c.owner, c.repo, ref); err != nil {
			return fmt.Errorf("creating branch %s: %w", branch, err)
		}
	default:
		return fmt.Errorf("reading branch %s: %w", branch, err)
	}
	return nil
}

func isStatus(err error, code int) bool {
	var respErr *github.ErrorResponse
	return errors.As(err, &respErr) && respErr.Response != nil && respErr.Response.StatusCode == code
}

func fromPullRequest(pr *github.PullRequest) PullRequest {
	return PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		Body:   pr.GetBody(),
		Head:   pr.GetHead().GetRef(),
		Base:   pr.GetBase().GetRef(),
		URL:    pr.GetHTMLURL(),
	}
}
