package release

import "github.com/ariel-frischer/csrelease/internal/changeset"

// Action is what a release run does for the current changeset state.
type Action int

const (
	// ActionNone means there is nothing to version or publish.
	ActionNone Action = iota
	// ActionPublish runs the publish script.
	ActionPublish
	// ActionVersion opens or updates the release pull request.
	ActionVersion
)

func (a Action) String() string {
	switch a {
	case ActionNone:
		return "none"
	case ActionPublish:
		return "publish"
	case ActionVersion:
		return "version"
	}
	return "unknown"
}

// Decide picks the action for state. Without changesets the run publishes
// when a publish script is configured. Changesets that release nothing never
// open a pull request.
func Decide(state *changeset.State, hasPublishScript bool) (Action, string) {
	switch {
	case len(state.Changesets) == 0 && !hasPublishScript:
		return ActionNone, "No changesets found"
	case len(state.Changesets) == 0:
		return ActionPublish, "No changesets found, attempting to publish any unpublished packages"
	case !state.HasNonEmpty():
		return ActionNone, "All changesets are empty; not creating PR"
	default:
		return ActionVersion, "Found changesets, creating or updating the release pull request"
	}
}
