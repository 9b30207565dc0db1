package workflow

import (
	"context"
	"fmt"
)

const (
	defaultLevel    = LevelStandard
	defaultLocation = "Cairo"

	// MinimumMissingError is recorded when a forced estimate lacks the
	// project type or total area.
	MinimumMissingError = "Unable to proceed: missing minimum requirements (project_type and total_area_sqm)"
)

type roomShare struct {
	kind  string
	share float64
}

var roomShares = map[string][]roomShare{
	ProjectResidential: {
		{"living", 0.25},
		{"bedroom", 0.20},
		{"kitchen", 0.15},
		{"bathroom", 0.10},
		{"other", 0.30},
	},
	ProjectCommercial: {
		{"main space", 0.80},
		{"office", 0.10},
		{"bathroom", 0.10},
	},
	ProjectFactory: {
		{"workshop", 0.90},
		{"office", 0.10},
	},
}

// DefaultRooms splits total area into the proportional breakdown for a
// project type.
func DefaultRooms(projectType string, total float64) []Room {
	shares := roomShares[projectType]
	rooms := make([]Room, 0, len(shares))
	for _, s := range shares {
		rooms = append(rooms, Room{Type: s.kind, AreaSqm: round2(total * s.share), Count: 1})
	}
	return rooms
}

// ApplyDefaults fills the gaps a forced estimate may assume.
func ApplyDefaults(r Requirements) Requirements {
	out := r.Merge(Requirements{})
	if out.FinishingLevel == "" {
		out.FinishingLevel = defaultLevel
	}
	if out.Location == "" {
		out.Location = defaultLocation
	}
	if len(out.Rooms) == 0 && out.HasMinimum() {
		out.Rooms = DefaultRooms(out.ProjectType, out.Area())
	}
	return out
}

// ForceComplete finishes every remaining stage with defaults so the
// session can be priced. Without the minimum requirements the session fails.
func (rt *Runtime) ForceComplete(ctx context.Context, st *State) error {
	if !st.Requirements.HasMinimum() {
		st.Status = StatusError
		st.AddError(MinimumMissingError)
		st.Say(localize(st.Language,
			"I need at least the project type and the total area to prepare an estimate.",
			"محتاج على الأقل نوع المشروع والمساحة الإجمالية علشان أجهز التكلفة.",
		), rt.now())
		return nil
	}

	st.Requirements = ApplyDefaults(st.Requirements)
	st.RequirementsComplete = true
	st.Awaiting = ""

	if !st.CriticalDataComplete {
		if err := rt.runCritical(ctx, st); err != nil {
			return err
		}
		if st.Status.Terminal() {
			return nil
		}
	}

	st.KnowledgeComplete = true

	if len(st.MaterialProgress.Needed) == 0 {
		st.MaterialProgress.Needed = NeededCategories(st.Requirements.CurrentStatus)
	}
	st.MaterialProgress.RoomGroups = GroupRooms(st.Requirements.Rooms)
	st.MaterialProgress.Pending = nil

	for _, category := range RemainingCategories(st) {
		candidates := RankCandidates(category, st.ReferenceMaterials)
		if len(candidates) == 0 {
			st.MaterialProgress.Skipped = append(st.MaterialProgress.Skipped, category)
			st.AddError(fmt.Sprintf("no catalogue candidates for %s; category skipped", category))
			continue
		}
		st.Select(category, Selection{Material: candidates[0], Auto: true})
	}

	st.MaterialSelectionComplete = true
	st.Forced = true
	st.Status = StatusCalculating

	rt.Logger.InfoContext(ctx, "estimate forced with defaults",
		"session_id", st.SessionID,
		"selections", len(st.MaterialSelections),
	)
	return nil
}
