package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatErrorPlain(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  *CLIError
		want string
	}{
		"message only": {
			err:  NewRuntimeError("push rejected"),
			want: "Error [Runtime Error]: push rejected\n",
		},
		"usage and remediation": {
			err: NewArgumentErrorWithUsage("missing version", "csrelease changelog extract <path> <version>",
				"Pass the version as the second argument"),
			want: "Error [Argument Error]: missing version\n" +
				"\nUsage: csrelease changelog extract <path> <version>\n" +
				"\nTo fix this:\n  • Pass the version as the second argument\n",
		},
		"nil": {
			want: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FormatErrorPlain(tt.err))
		})
	}
}

func TestWrap_KeepsCause(t *testing.T) {
	t.Parallel()
	cause := stderrors.New("boom")

	wrapped := WrapWithMessage(cause, Runtime, "publish script failed")
	assert.Equal(t, "publish script failed: boom", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)

	assert.Nil(t, Wrap(nil, Runtime))
	assert.Nil(t, WrapWithMessage(nil, Runtime, "x"))
}

func TestAsCLIError(t *testing.T) {
	t.Parallel()
	cliErr := MissingBaseBranch()

	got := AsCLIError(fmt.Errorf("running: %w", cliErr))
	require.NotNil(t, got)
	assert.Same(t, cliErr, got)
	assert.True(t, IsCLIError(cliErr))
	assert.False(t, IsCLIError(stderrors.New("plain")))
	assert.Nil(t, AsCLIError(nil))
}

func TestMessages(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err          *CLIError
		wantCategory ErrorCategory
		wantMessage  string
	}{
		"missing token":     {err: NewMissingTokenError(), wantCategory: Configuration, wantMessage: "GITHUB_TOKEN is not set"},
		"changelog entry":   {err: NewChangelogEntryError("pkg", "1.0.0", stderrors.New("not found")), wantCategory: Runtime, wantMessage: "could not find changelog entry for pkg@1.0.0: not found"},
		"version not found": {err: VersionNotInChangelog("9.9.9", []string{"1.0.0"}), wantCategory: Argument, wantMessage: "version 9.9.9 not found in changelog"},
		"script failed":     {err: ScriptFailed("publish", stderrors.New("exit 1")), wantCategory: Runtime, wantMessage: "publish script failed: exit 1"},
		"no publish script": {err: MissingPublishScript(), wantCategory: Configuration, wantMessage: "no publish script configured"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.wantCategory, tt.err.Category)
			assert.Equal(t, tt.wantMessage, tt.err.Message)
			assert.NotEmpty(t, tt.err.Remediation)
		})
	}
}
