// Package git provides the repository plumbing for releases: preparing the
// version branch, committing the bump, force pushing it and pushing tags. It
// uses go-git throughout so no git CLI is required on the runner.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
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
	// DefaultRemote is the remote that branches and tags are pushed to.
	DefaultRemote = "origin"

	// DefaultUserName and DefaultUserEmail identify the GitHub Actions bot.
	DefaultUserName  = "github-actions[bot]"
	DefaultUserEmail = "41898282+github-actions[bot]@users.noreply.github.com"

	// tokenUsername is the basic auth user GitHub accepts with an installation or PAT token.
	tokenUsername = "x-access-token"
)

// ErrNotRepository is returned by Open when path is not inside a git working tree.
var ErrNotRepository = git.ErrRepositoryNotExists

// Change is a path that differs between HEAD and the working tree.
type Change struct {
	Path    string
	Deleted bool
}

// Repository wraps a go-git repository opened at a working tree.
type Repository struct {
	repo   *git.Repository
	root   string
	remote string
	token  string
}

// Option configures a Repository.
type Option func(*Repository)

// WithToken sets the token used for HTTPS pushes.
func WithToken(token string) Option {
	return func(r *Repository) { r.token = token }
}

// WithRemote overrides the remote name, "origin" by default.
func WithRemote(name string) Option {
	return func(r *Repository) { r.remote = name }
}

// Open opens the repository containing path. If path is empty, the current
// working directory is used.
func Open(path string, opts ...Option) (*Repository, error) {
	repo, err := openRepo(path)
	if err != nil {
		return nil, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	r := &Repository{repo: repo, root: worktree.Filesystem.Root(), remote: DefaultRemote}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// openRepo opens a git repository at the specified path or current working directory.
// DetectDotGit lets callers pass any directory inside the working tree.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// Root returns the absolute path of the working tree.
func (r *Repository) Root() string {
	return r.root
}

// SetupUser writes user.name and user.email into the repository config.
// Empty values fall back to the GitHub Actions bot identity.
func (r *Repository) SetupUser(name, email string) error {
	if name == "" {
		name = DefaultUserName
	}
	if email == "" {
		email = DefaultUserEmail
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return fmt.Errorf("reading git config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email
	if err := r.repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("writing git config: %w", err)
	}
	logDebug("[git] SetupUser: %s <%s>", name, email)
	return nil
}

// HeadSHA returns the commit hash HEAD points to.
func (r *Repository) HeadSHA() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	return head.Hash().String(), nil
}

// CurrentBranch returns the name of the checked out branch, or "" when HEAD
// is detached.
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("getting HEAD reference: %w", err)
	}
	if !head.Name().IsBranch() {
		logDebug("[git] CurrentBranch: detached HEAD state")
		return "", nil
	}
	return head.Name().Short(), nil
}

// PrepareBranch checks out branch, creating it when missing, and hard resets
// it to sha. Untracked and ignored files are left in place, matching git.
func (r *Repository) PrepareBranch(branch, sha string) error {
	hash, err := r.resolve(sha)
	if err != nil {
		return err
	}
	worktree, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}

	// Paths tracked before the switch must be reset too, so collect them first.
	tracked, err := r.indexPaths()
	if err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(branch)
	exists, err := r.branchExists(ref)
	if err != nil {
		return err
	}

	// Keep: true preserves untracked files/directories (node_modules, build output).
	// Without Keep, go-git deletes untracked content during checkout.
	opts := &git.CheckoutOptions{Branch: ref, Keep: true}
	if !exists {
		opts.Create = true
		opts.Hash = hash
	}
	if err := worktree.Checkout(opts); err != nil {
		return fmt.Errorf("checking out branch '%s': %w", branch, err)
	}

	target, err := r.treePaths(hash)
	if err != nil {
		return err
	}
	files := mergePaths(tracked, target)

	reset := &git.ResetOptions{Commit: hash, Mode: git.HardReset, Files: files}
	if len(files) == 0 {
		reset.Mode = git.SoftReset
	}
	if err := worktree.Reset(reset); err != nil {
		return fmt.Errorf("resetting '%s' to %s: %w", branch, sha, err)
	}

	logDebug("[git] PrepareBranch: %s at %s (created: %v)", branch, sha, !exists)
	return nil
}

// IsClean reports whether the working tree matches HEAD, ignoring files
// excluded by .gitignore.
func (r *Repository) IsClean() (bool, error) {
	changes, err := r.Changes()
	if err != nil {
		return false, err
	}
	return len(changes) == 0, nil
}

// Changes lists the paths that differ from HEAD, sorted by path.
func (r *Repository) Changes() ([]Change, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}

	changes := make([]Change, 0, len(status))
	for path, s := range status {
		if s.Worktree == git.Unmodified && s.Staging == git.Unmodified {
			continue
		}
		changes = append(changes, Change{
			Path:    path,
			Deleted: s.Worktree == git.Deleted || (s.Staging == git.Deleted && s.Worktree != git.Untracked),
		})
	}
	slices.SortFunc(changes, func(a, b Change) int { return strings.Compare(a.Path, b.Path) })
	return changes, nil
}

// CommitAll stages every change, including deletions and new files, and
// commits it. It returns the new commit hash.
func (r *Repository) CommitAll(message string) (string, error) {
	worktree, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}
	if err := worktree.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return "", fmt.Errorf("staging changes: %w", err)
	}

	sig, err := r.signature()
	if err != nil {
		return "", err
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	logDebug("[git] CommitAll: %s", hash)
	return hash.String(), nil
}

// PushChanges commits pending changes when the tree is dirty and force
// pushes branch to the remote.
func (r *Repository) PushChanges(ctx context.Context, branch, message string) error {
	clean, err := r.IsClean()
	if err != nil {
		return err
	}
	if !clean {
		if _, err := r.CommitAll(message); err != nil {
			return err
		}
	}

	ref := plumbing.NewBranchReferenceName(branch)
	spec := config.RefSpec(fmt.Sprintf("+%s:%s", ref, ref))
	if err := r.push(ctx, spec); err != nil {
		return fmt.Errorf("pushing branch '%s': %w", branch, err)
	}
	logDebug("[git] PushChanges: pushed %s", branch)
	return nil
}

// PushTag creates a lightweight tag at HEAD unless it already exists and
// pushes it to the remote.
func (r *Repository) PushTag(ctx context.Context, tag string) error {
	head, err := r.repo.Head()
	if err != nil {
		return fmt.Errorf("getting HEAD reference: %w", err)
	}
	if _, err := r.repo.CreateTag(tag, head.Hash(), nil); err != nil && !errors.Is(err, git.ErrTagExists) {
		return fmt.Errorf("creating tag '%s': %w", tag, err)
	}

	ref := plumbing.NewTagReferenceName(tag)
	spec := config.RefSpec(fmt.Sprintf("%s:%s", ref, ref))
	if err := r.push(ctx, spec); err != nil {
		return fmt.Errorf("pushing tag '%s': %w", tag, err)
	}
	logDebug("[git] PushTag: pushed %s", tag)
	return nil
}

// DefaultPushTimeout bounds a single push when the caller's context has no deadline.
const DefaultPushTimeout = 2 * time.Minute

func (r *Repository) push(ctx context.Context, spec config.RefSpec) error {
	remote, err := r.repo.Remote(r.remote)
	if err != nil {
		return fmt.Errorf("getting remote '%s': %w", r.remote, err)
	}
	urls := remote.Config().URLs
	if len(urls) == 0 {
		return fmt.Errorf("remote '%s' has no URL", r.remote)
	}
	url := urls[0]
	if isSSHURL(url) && !isSSHAgentAvailable() {
		return fmt.Errorf("remote '%s' uses SSH but no SSH agent is available", r.remote)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultPushTimeout)
		defer cancel()
	}

	logDebug("[git] pushing %s to '%s' (%s)", spec, r.remote, url)
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: r.remote,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       r.authForURL(url),
	})
	// "already up-to-date" is not an error
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	return err
}

// authForURL returns the authentication method for a remote URL.
// SSH URLs use SSH agent auth, HTTPS URLs use the token, if any.
func (r *Repository) authForURL(url string) transport.AuthMethod {
	if isSSHURL(url) {
		auth, err := ssh.NewSSHAgentAuth("git")
		if err != nil {
			logDebug("[git] SSH agent auth failed: %v", err)
			return nil
		}
		return auth
	}
	if r.token == "" || !isHTTPURL(url) {
		return nil
	}
	return &http.BasicAuth{Username: tokenUsername, Password: r.token}
}

// isSSHURL checks if a URL is an SSH URL.
// Detects git@ (SCP-style), ssh://, and git+ssh:// schemes.
func isSSHURL(url string) bool {
	return strings.HasPrefix(url, "git@") ||
		strings.HasPrefix(url, "ssh://") ||
		strings.HasPrefix(url, "git+ssh://")
}

func isHTTPURL(url string) bool {
	return strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "http://")
}

// isSSHAgentAvailable checks if an SSH agent is available.
// Returns true only if SSH_AUTH_SOCK is set and non-empty.
func isSSHAgentAvailable() bool {
	sock := strings.TrimSpace(os.Getenv("SSH_AUTH_SOCK"))
	return sock != ""
}

func (r *Repository) resolve(rev string) (plumbing.Hash, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolving %s: %w", rev, err)
	}
	return *hash, nil
}

func (r *Repository) branchExists(ref plumbing.ReferenceName) (bool, error) {
	_, err := r.repo.Reference(ref, false)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	}
	return false, fmt.Errorf("checking branch existence: %w", err)
}

func (r *Repository) indexPaths() ([]string, error) {
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("reading index: %w", err)
	}
	paths := make([]string, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		paths = append(paths, e.Name)
	}
	return paths, nil
}

func (r *Repository) treePaths(hash plumbing.Hash) ([]string, error) {
	commit, err := r.repo.CommitObject(hash)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", hash, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", hash, err)
	}
	var paths []string
	err = tree.Files().ForEach(func(f *object.File) error {
		paths = append(paths, f.Name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing files of %s: %w", hash, err)
	}
	return paths, nil
}

func mergePaths(a, b []string) []string {
	merged := slices.Concat(a, b)
	slices.Sort(merged)
	return slices.Compact(merged)
}

// signature builds the commit author from the repository config, falling
// back to the GitHub Actions bot.
func (r *Repository) signature() (*object.Signature, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return nil, fmt.Errorf("reading git config: %w", err)
	}
	sig := &object.Signature{Name: cfg.User.Name, Email: cfg.User.Email, When: time.Now()}
	if sig.Name == "" {
		sig.Name = DefaultUserName
	}
	if sig.Email == "" {
		sig.Email = DefaultUserEmail
	}
	return sig, nil
}
