package changelog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevel_Ordering(t *testing.T) {
	t.Parallel()
	assert.Less(t, Dependency, Patch)
	assert.Less(t, Patch, Minor)
	assert.Less(t, Minor, Major)
}

func TestLevel_String(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		level Level
		want  string
	}{
		"dependency": {level: Dependency, want: "dep"},
		"patch":      {level: Patch, want: "patch"},
		"minor":      {level: Minor, want: "minor"},
		"major":      {level: Major, want: "major"},
		"unknown":    {level: Level(9), want: "Level(9)"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.level.String())
		})
	}
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		want    Level
		wantErr bool
	}{
		"dep":         {input: "dep", want: Dependency},
		"patch":       {input: "patch", want: Patch},
		"mixed case":  {input: " Minor ", want: Minor},
		"major":       {input: "MAJOR", want: Major},
		"unknown":     {input: "huge", wantErr: true},
		"empty input": {input: "", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid release level")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestHighestLevelIn(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input     string
		want      Level
		wantFound bool
	}{
		"no keyword":        {input: "Some notes", want: Dependency},
		"dependency phrase": {input: "Updated dependencies", want: Dependency, wantFound: true},
		"patch heading":     {input: "Patch Changes", want: Patch, wantFound: true},
		"tagged bullet":     {input: "[minor] abc123: add flag", want: Minor, wantFound: true},
		"several keywords":  {input: "patch, minor and MAJOR", want: Major, wantFound: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got, found := HighestLevelIn(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestMaxLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, Major, MaxLevel(Major, Patch))
	assert.Equal(t, Minor, MaxLevel(Dependency, Minor))
	assert.Equal(t, Patch, MaxLevel(Patch, Patch))
}
