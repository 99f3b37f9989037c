package release

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ariel-frischer/csrelease/internal/releasenote"
)

func TestPreview(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		extra       map[string]string
		opts        PreviewOptions
		wantNames   []string
		wantSkipped []string
		wantTier    releasenote.Tier
		wantPreTag  string
		wantBody    []string
	}{
		"current versions": {
			opts:        PreviewOptions{Branch: "main", HasPublishScript: true},
			wantNames:   []string{"@acme/a", "b"},
			wantSkipped: []string{"c@0.1.0"},
			wantTier:    releasenote.TierFull,
			wantBody:    []string{"# Releases", "## @acme/a@1.0.0", "## b@2.0.0", "published automatically"},
		},
		"stale changelog is skipped": {
			extra:       map[string]string{"packages/a/CHANGELOG.md": "# @acme/a\n\n## 0.9.0\n\n- old\n"},
			opts:        PreviewOptions{Branch: "main"},
			wantNames:   []string{"b"},
			wantSkipped: []string{"@acme/a@1.0.0", "c@0.1.0"},
			wantTier:    releasenote.TierFull,
			wantBody:    []string{"## b@2.0.0"},
		},
		"pre mode": {
			extra:       map[string]string{".changeset/pre.json": `{"mode":"pre","tag":"next","initialVersions":{},"changesets":[]}`},
			opts:        PreviewOptions{Branch: "main", Concurrency: 1},
			wantNames:   []string{"@acme/a", "b"},
			wantSkipped: []string{"c@0.1.0"},
			wantTier:    releasenote.TierFull,
			wantPreTag:  "next",
			wantBody:    []string{"`main` is currently in **pre mode**", "`next` prereleases"},
		},
		"over budget": {
			opts:        PreviewOptions{Branch: "main", MaxCharacters: 10},
			wantNames:   []string{"@acme/a", "b"},
			wantSkipped: []string{"c@0.1.0"},
			wantTier:    releasenote.TierOmitted,
			wantBody:    []string{"All release information have been omitted"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			opts := tt.opts
			opts.Cwd = monorepo(t, tt.extra)

			result, err := Preview(context.Background(), opts)
			require.NoError(t, err)

			var names []string
			for _, p := range result.Packages {
				names = append(names, p.Name)
			}
			assert.Equal(t, tt.wantNames, names)
			assert.Equal(t, tt.wantSkipped, result.Skipped)
			assert.Equal(t, tt.wantTier, result.Message.Tier)
			assert.Equal(t, tt.wantPreTag, result.PreReleaseTag)
			for _, want := range tt.wantBody {
				assert.Contains(t, result.Message.Body, want)
			}
		})
	}
}

func TestPreview_PublicBeforePrivate(t *testing.T) {
	t.Parallel()
	root := monorepo(t, nil)

	result, err := Preview(context.Background(), PreviewOptions{Cwd: root, Branch: "main"})
	require.NoError(t, err)

	body := result.Message.Body
	assert.Less(t, strings.Index(body, "## @acme/a@1.0.0"), strings.Index(body, "## b@2.0.0"))
}

func TestPreview_NoPackageJSON(t *testing.T) {
	t.Parallel()

	_, err := Preview(context.Background(), PreviewOptions{Cwd: t.TempDir()})
	assert.ErrorContains(t, err, "listing packages")
}
