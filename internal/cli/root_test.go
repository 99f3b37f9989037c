package cli

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/csrelease/internal/build"
	"github.com/ariel-frischer/csrelease/internal/changelog"
	clierrors "github.com/ariel-frischer/csrelease/internal/errors"
	"github.com/ariel-frischer/csrelease/internal/git"
	"github.com/ariel-frischer/csrelease/internal/github"
	"github.com/ariel-frischer/csrelease/internal/release"
)

func TestRootCmd_Structure(t *testing.T) {
	assert.Equal(t, "csrelease", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.NotEmpty(t, rootCmd.Example)
	assert.True(t, rootCmd.SilenceErrors, "Execute reports errors itself")
}

func TestRootCmd_PersistentFlags(t *testing.T) {
	tests := map[string]struct {
		flagName string
		wantType string
		wantDef  string
	}{
		"cwd flag":    {flagName: "cwd", wantType: "string", wantDef: ""},
		"debug flag":  {flagName: "debug", wantType: "bool", wantDef: "false"},
		"config flag": {flagName: "config", wantType: "string", wantDef: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			flag := rootCmd.PersistentFlags().Lookup(tt.flagName)
			require.NotNil(t, flag, "Flag %s should exist", tt.flagName)
			assert.Equal(t, tt.wantType, flag.Value.Type())
			assert.Equal(t, tt.wantDef, flag.DefValue)
		})
	}
}

func TestRootCmd_CommandGroups(t *testing.T) {
	tests := map[string]struct {
		use       string
		wantGroup string
	}{
		"run":       {use: "run", wantGroup: GroupRelease},
		"version":   {use: "version", wantGroup: GroupRelease},
		"publish":   {use: "publish", wantGroup: GroupRelease},
		"changelog": {use: "changelog", wantGroup: GroupInspect},
		"preview":   {use: "preview", wantGroup: GroupInspect},
		"status":    {use: "status", wantGroup: GroupInspect},
		"config":    {use: "config", wantGroup: GroupConfiguration},
	}

	registered := make(map[string]string)
	for _, cmd := range rootCmd.Commands() {
		registered[cmd.Use] = cmd.GroupID
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			group, ok := registered[tt.use]
			require.True(t, ok, "%s should be registered", tt.use)
			assert.Equal(t, tt.wantGroup, group)
			assert.True(t, rootCmd.ContainsGroup(group))
		})
	}
}

func TestRootCmd_Version(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := executeCommand(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, build.Info()+"\n", stdout)
}

func TestRootCmd_Debug(t *testing.T) {
	isolateEnv(t)
	t.Cleanup(func() {
		git.SetDebugLogger(nil)
		github.SetDebugLogger(nil)
		release.SetDebugLogger(nil)
		changelog.SetDebugLogger(nil)
	})
	root := npmWorkspace(t, map[string]string{"packages/a/CHANGELOG.md": "# a\n\n## 0.9.0\n\n- old\n"})

	_, stderr, err := executeCommand(t, "preview", "--cwd", root, "--debug")
	require.NoError(t, err)
	assert.Contains(t, stderr, "[DEBUG] [release] preview:")
}

func TestRootCmd_MissingCwd(t *testing.T) {
	isolateEnv(t)

	_, _, err := executeCommand(t, "status", "--cwd", "/does/not/exist")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "directory not found")
	assert.Equal(t, ExitMissingDependencies, ExitCode(err))
}

func TestReportError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want string
	}{
		"cli error": {
			err:  clierrors.MissingPublishScript(),
			want: "no publish script configured",
		},
		"plain error": {
			err:  errors.New("boom"),
			want: "Error: boom\n",
		},
		"exit error is silent": {
			err:  NewExitError(ExitInvalidArguments),
			want: "",
		},
		"wrapped exit error is silent": {
			err:  fmt.Errorf("extract: %w", NewExitError(ExitInvalidArguments)),
			want: "",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			reportError(&buf, tt.err)
			if tt.want == "" {
				assert.Empty(t, buf.String())
				return
			}
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
