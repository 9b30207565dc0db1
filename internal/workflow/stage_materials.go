package workflow

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/JaimeStill/estimator/internal/pricing"
)

// Material categories priced by the calculation stage.
const (
	CategoryFlooring      = "flooring"
	CategoryWallPaint     = "wall_paint"
	CategoryCeilingPaint  = "ceiling_paint"
	CategoryBathroomTiles = "bathroom_tiles"
	CategoryKitchenTiles  = "kitchen_tiles"
	CategoryDoors         = "doors"
)

var allCategories = []string{
	CategoryFlooring,
	CategoryWallPaint,
	CategoryCeilingPaint,
	CategoryBathroomTiles,
	CategoryKitchenTiles,
	CategoryDoors,
}

var neededByStatus = map[string][]string{
	StatusBareConcrete: allCategories,
	StatusPlastered:    {CategoryFlooring, CategoryWallPaint, CategoryCeilingPaint, CategoryBathroomTiles, CategoryKitchenTiles},
	StatusSemiFinished: {CategoryWallPaint, CategoryCeilingPaint, CategoryBathroomTiles},
	StatusPainted:      {CategoryBathroomTiles, CategoryKitchenTiles},
}

var categoryKeywords = map[string][]string{
	CategoryFlooring:      {"floor", "flooring", "أرضية", "أرضيات", "ارضيات"},
	CategoryWallPaint:     {"paint", "emulsion", "دهان", "طلاء"},
	CategoryCeilingPaint:  {"paint", "emulsion", "ceiling", "دهان", "سقف"},
	CategoryBathroomTiles: {"tile", "tiles", "ceramic", "porcelain", "سيراميك", "بلاط"},
	CategoryKitchenTiles:  {"tile", "tiles", "ceramic", "porcelain", "سيراميك", "بلاط"},
	CategoryDoors:         {"door", "doors", "باب", "أبواب", "ابواب"},
}

const maxOptions = 5

// NeededCategories returns the categories a finishing status requires.
// An unknown status is treated as bare concrete.
func NeededCategories(status string) []string {
	if needed, ok := neededByStatus[status]; ok {
		return slices.Clone(needed)
	}
	return slices.Clone(allCategories)
}

func neededCategories(st *State) []string {
	if len(st.MaterialProgress.Needed) > 0 {
		return st.MaterialProgress.Needed
	}
	return NeededCategories(st.Requirements.CurrentStatus)
}

// RankCandidates orders catalogue materials by keyword relevance to
// category and returns at most five. Labor rows and non-matching items are
// excluded; ties keep catalogue order.
func RankCandidates(category string, materials []pricing.Material) []pricing.Material {
	keywords := categoryKeywords[category]

	type scored struct {
		m     pricing.Material
		score int
	}
	var ranked []scored
	for _, m := range materials {
		text := strings.ToLower(m.Name + " " + m.Category)
		if strings.Contains(text, "labor") || strings.Contains(text, "labour") || strings.Contains(text, "skilled worker") {
			continue
		}
		words := tokenize(text)
		score := 0
		for _, kw := range keywords {
			if slices.Contains(words, kw) || strings.Contains(text, kw) {
				score++
			}
		}
		if score > 0 {
			ranked = append(ranked, scored{m, score})
		}
	}

	slices.SortStableFunc(ranked, func(a, b scored) int { return b.score - a.score })

	out := make([]pricing.Material, 0, min(len(ranked), maxOptions))
	for i := 0; i < len(ranked) && i < maxOptions; i++ {
		out = append(out, ranked[i].m)
	}
	return out
}

var ordinalPattern = regexp.MustCompile(`\b([1-5])\b`)

// ParseSelection maps a reply to an option index. An ordinal wins, then
// the option sharing the most name words. exact is false when neither
// matched and the first option was taken.
func ParseSelection(reply string, options []pricing.Material) (index int, exact bool) {
	if len(options) == 0 {
		return -1, false
	}

	text := arabicDigits.Replace(strings.ToLower(reply))
	if m := ordinalPattern.FindStringSubmatch(text); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n >= 1 && n <= len(options) {
			return n - 1, true
		}
	}

	words := tokenize(text)
	best, bestScore := -1, 0
	for i, opt := range options {
		score := 0
		for _, w := range tokenize(opt.Name) {
			if len([]rune(w)) >= 3 && slices.Contains(words, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best >= 0 {
		return best, true
	}
	return 0, false
}

// GroupRooms aggregates the room breakdown by room type.
func GroupRooms(rooms []Room) map[string]RoomGroup {
	groups := make(map[string]RoomGroup)
	for _, r := range rooms {
		g := groups[r.Type]
		count := max(r.Count, 1)
		g.TotalAreaSqm += r.AreaSqm * float64(count)
		g.Count += count
		g.Rooms = append(g.Rooms, r)
		groups[r.Type] = g
	}
	return groups
}

// MaterialNode is a node of the material-selection subgraph.
type MaterialNode string

const (
	MatDetermineNeeded  MaterialNode = "determine_needed"
	MatCheckProgress    MaterialNode = "check_progress"
	MatValidateComplete MaterialNode = "validate_complete"
	MatPresentOptions   MaterialNode = "present_options"
	MatParseSelection   MaterialNode = "parse_selection"
	MatAwait            MaterialNode = "await"
	MatYield            MaterialNode = "yield"
	MatComplete         MaterialNode = "complete"
)

const (
	guardDetermined Guard = "determined"
	guardReply      Guard = "reply"
	guardAwaiting   Guard = "awaiting"
	guardEvaluated  Guard = "evaluated"
	guardPresented  Guard = "presented"
	guardSkipped    Guard = "skipped"
	guardParsed     Guard = "parsed"
)

// MaterialsTable drives option presentation and reply parsing until every
// needed category is selected or skipped.
var MaterialsTable = NewTable[MaterialNode]("material_selection").
	On(MatDetermineNeeded, guardDetermined, MatCheckProgress).
	On(MatCheckProgress, guardReply, MatParseSelection).
	On(MatCheckProgress, guardAwaiting, MatAwait).
	On(MatCheckProgress, guardEvaluated, MatValidateComplete).
	On(MatValidateComplete, guardComplete, MatComplete).
	On(MatValidateComplete, guardIncomplete, MatPresentOptions).
	On(MatPresentOptions, guardPresented, MatAwait).
	On(MatPresentOptions, guardSkipped, MatCheckProgress).
	On(MatParseSelection, guardParsed, MatCheckProgress).
	On(MatParseSelection, guardProceed, MatYield)

// RemainingCategories lists needed categories with neither a selection nor
// a skip, in presentation order.
func RemainingCategories(st *State) []string {
	var out []string
	for _, c := range neededCategories(st) {
		if _, ok := st.MaterialSelections[c]; ok {
			continue
		}
		if slices.Contains(st.MaterialProgress.Skipped, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}

func (rt *Runtime) runMaterials(ctx context.Context, st *State) error {
	m := &machine[MaterialNode]{
		table: MaterialsTable,
		steps: map[MaterialNode]step{
			MatDetermineNeeded: func(_ context.Context, st *State) (Guard, error) {
				p := &st.MaterialProgress
				if len(p.Needed) == 0 {
					p.Needed = NeededCategories(st.Requirements.CurrentStatus)
				}
				if p.RoomGroups == nil && len(st.Requirements.Rooms) > 0 {
					p.RoomGroups = GroupRooms(st.Requirements.Rooms)
				}
				st.Status = StatusSelectingMaterials
				return guardDetermined, nil
			},
			MatCheckProgress: func(_ context.Context, st *State) (Guard, error) {
				if st.MaterialProgress.Pending == nil {
					return guardEvaluated, nil
				}
				if st.HasNewUserMessage() {
					return guardReply, nil
				}
				return guardAwaiting, nil
			},
			MatValidateComplete: func(_ context.Context, st *State) (Guard, error) {
				if len(RemainingCategories(st)) == 0 {
					return guardComplete, nil
				}
				return guardIncomplete, nil
			},
			MatPresentOptions: rt.presentOptions,
			MatParseSelection: rt.parseSelection,
			MatAwait: func(_ context.Context, st *State) (Guard, error) {
				st.Awaiting = StageMaterialSelection
				return "", nil
			},
			MatYield: func(_ context.Context, _ *State) (Guard, error) {
				return "", nil
			},
			MatComplete: func(ctx context.Context, st *State) (Guard, error) {
				st.MaterialSelectionComplete = true
				st.MaterialProgress.Pending = nil
				st.Status = StatusCalculating
				rt.Logger.InfoContext(ctx, "materials selected",
					"session_id", st.SessionID,
					"selected", sortedKeys(st.MaterialSelections),
					"skipped", st.MaterialProgress.Skipped,
				)
				return "", nil
			},
		},
		terminal: terminals(MatAwait, MatYield, MatComplete),
		limit:    64,
	}

	_, err := m.run(ctx, st, MatDetermineNeeded)
	return err
}

func (rt *Runtime) presentOptions(ctx context.Context, st *State) (Guard, error) {
	remaining := RemainingCategories(st)
	if len(remaining) == 0 {
		return "", fmt.Errorf("%w: no category left to present", ErrNoTransition)
	}
	category := remaining[0]

	options := RankCandidates(category, st.ReferenceMaterials)
	if len(options) == 0 {
		st.MaterialProgress.Skipped = append(st.MaterialProgress.Skipped, category)
		st.AddError(fmt.Sprintf("no catalogue candidates for %s; category skipped", category))
		rt.Logger.WarnContext(ctx, "category skipped", "session_id", st.SessionID, "category", category)
		return guardSkipped, nil
	}

	st.MaterialProgress.Pending = &Presentation{Category: category, Options: options}
	st.Say(OptionsMessage(category, options, st.Language), rt.now())
	return guardPresented, nil
}

func (rt *Runtime) parseSelection(ctx context.Context, st *State) (Guard, error) {
	pending := st.MaterialProgress.Pending
	reply, _ := st.LatestUserMessage()
	st.ConsumeUserMessage()

	index, exact := ParseSelection(reply, pending.Options)
	if !exact && IsEscapePhrase(reply) {
		st.UserConfirmedProceed = true
		return guardProceed, nil
	}
	if !exact {
		rt.Logger.InfoContext(ctx, "ambiguous selection, taking first option",
			"session_id", st.SessionID,
			"category", pending.Category,
		)
	}

	st.Select(pending.Category, Selection{Material: pending.Options[index]})
	st.MaterialProgress.Pending = nil
	return guardParsed, nil
}
