package release

import "fmt"

// ScriptError is returned when a version or publish script cannot be started
// or exits with a non-zero code.
type ScriptError struct {
	Script string
	// ExitCode is -1 when the script never ran.
	ExitCode int
	Err      error
}

func (e *ScriptError) Error() string {
	if e.ExitCode >= 0 {
		return fmt.Sprintf("script %q exited with code %d", e.Script, e.ExitCode)
	}
	return fmt.Sprintf("running script %q: %v", e.Script, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ChangelogEntryError is returned when a published package's changelog has
// no entry for the released version.
type ChangelogEntryError struct {
	Package string
	Version string
	Err     error
}

func (e *ChangelogEntryError) Error() string {
	return fmt.Sprintf("could not find changelog entry for %s@%s: %v", e.Package, e.Version, e.Err)
}

func (e *ChangelogEntryError) Unwrap() error {
	return e.Err
}
