// Package credentials writes the per-user credential files publish scripts
// rely on: ~/.netrc for GitHub over HTTPS and ~/.npmrc for the npm registry.
package credentials

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ariel-frischer/csrelease/internal/output"
)

const (
	// NpmRegistryTokenKey is the .npmrc key holding the default registry token.
	NpmRegistryTokenKey = "//registry.npmjs.org/:_authToken"

	netrcFile = ".netrc"
	npmrcFile = ".npmrc"

	netrcLogin = "github-actions[bot]"
)

// NpmrcResult reports what EnsureNpmrc did.
type NpmrcResult int

const (
	// NpmrcKept means the existing file already had a registry token.
	NpmrcKept NpmrcResult = iota
	// NpmrcAppended means the token was added to an existing file.
	NpmrcAppended
	// NpmrcCreated means a new file was written.
	NpmrcCreated
	// NpmrcSkipped means a token was needed but none was provided.
	NpmrcSkipped
)

func (r NpmrcResult) String() string {
	switch r {
	case NpmrcKept:
		return "kept"
	case NpmrcAppended:
		return "appended"
	case NpmrcCreated:
		return "created"
	case NpmrcSkipped:
		return "skipped"
	}
	return "unknown"
}

// WriteNetrc replaces home/.netrc with a github.com entry for token.
func WriteNetrc(home, token string) error {
	if token == "" {
		return errors.New("github token is required to write .netrc")
	}
	content := fmt.Sprintf("machine github.com\nlogin %s\npassword %s", netrcLogin, token)
	path := filepath.Join(home, netrcFile)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// EnsureNpmrc makes sure home/.npmrc carries a token for the default npm
// registry. An existing non-empty token is left alone. Otherwise npmToken is
// appended, or a new file is created; without npmToken a warning is printed
// to out and nothing is written.
func EnsureNpmrc(home, npmToken string, out io.Writer) (NpmrcResult, error) {
	path := filepath.Join(home, npmrcFile)
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return NpmrcSkipped, fmt.Errorf("reading %s: %w", path, err)
	}
	exists := err == nil

	if !exists {
		info(out, fmt.Sprintf("No user .npmrc file found at %s, creating one", path))
		if npmToken == "" {
			warn(out, "Missing NPM_TOKEN, skipping creation of .npmrc")
			return NpmrcSkipped, nil
		}
		if err := os.WriteFile(path, []byte(tokenLine(npmToken)), 0o600); err != nil {
			return NpmrcSkipped, fmt.Errorf("writing %s: %w", path, err)
		}
		return NpmrcCreated, nil
	}

	info(out, fmt.Sprintf("Found existing user .npmrc file at %s", path))
	if value, ok := lookupKey(data, NpmRegistryTokenKey); ok && value != "" {
		info(out, "The .npmrc file already has an auth token for the npm registry")
		return NpmrcKept, nil
	}

	if npmToken == "" {
		warn(out, "Missing NPM_TOKEN, skipping update of .npmrc")
		return NpmrcSkipped, nil
	}
	info(out, "The .npmrc file has no auth token for the npm registry, appending NPM_TOKEN")

	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		buf.WriteByte('\n')
	}
	buf.WriteString(tokenLine(npmToken))
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return NpmrcSkipped, fmt.Errorf("writing %s: %w", path, err)
	}
	return NpmrcAppended, nil
}

func tokenLine(token string) string {
	return NpmRegistryTokenKey + "=" + token + "\n"
}

// lookupKey finds key in npmrc data. Only top level "key=value" lines count;
// comments and lines inside [sections] are ignored.
func lookupKey(data []byte, key string) (string, bool) {
	var (
		value string
		found bool
	)
	inSection := false
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inSection = true
			continue
		}
		if inSection {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || strings.TrimSpace(k) != key {
			continue
		}
		// Later lines override earlier ones.
		value, found = unquote(strings.TrimSpace(v)), true
	}
	return value, found
}

func unquote(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	return v
}

func info(out io.Writer, msg string) {
	if out != nil {
		output.PrintInfo(out, msg)
	}
}

func warn(out io.Writer, msg string) {
	if out != nil {
		output.PrintWarning(out, msg)
	}
}
