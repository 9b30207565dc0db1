package workflow_test

import (
	"slices"
	"testing"

	"github.com/JaimeStill/estimator/internal/pricing"
	"github.com/JaimeStill/estimator/internal/workflow"
)

func TestNeededCategories(t *testing.T) {
	tests := []struct {
		status string
		want   []string
	}{
		{workflow.StatusBareConcrete, []string{
			workflow.CategoryFlooring, workflow.CategoryWallPaint, workflow.CategoryCeilingPaint,
			workflow.CategoryBathroomTiles, workflow.CategoryKitchenTiles, workflow.CategoryDoors,
		}},
		{workflow.StatusPlastered, []string{
			workflow.CategoryFlooring, workflow.CategoryWallPaint, workflow.CategoryCeilingPaint,
			workflow.CategoryBathroomTiles, workflow.CategoryKitchenTiles,
		}},
		{workflow.StatusSemiFinished, []string{
			workflow.CategoryWallPaint, workflow.CategoryCeilingPaint, workflow.CategoryBathroomTiles,
		}},
		{workflow.StatusPainted, []string{workflow.CategoryBathroomTiles, workflow.CategoryKitchenTiles}},
		{"", []string{
			workflow.CategoryFlooring, workflow.CategoryWallPaint, workflow.CategoryCeilingPaint,
			workflow.CategoryBathroomTiles, workflow.CategoryKitchenTiles, workflow.CategoryDoors,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := workflow.NeededCategories(tt.status); !slices.Equal(got, tt.want) {
				t.Errorf("NeededCategories(%q) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestRankCandidates(t *testing.T) {
	materials, _ := catalogue()

	names := func(ms []pricing.Material) []string {
		out := make([]string, len(ms))
		for i, m := range ms {
			out[i] = m.Name
		}
		return out
	}

	t.Run("flooring keeps catalogue order on ties", func(t *testing.T) {
		got := names(workflow.RankCandidates(workflow.CategoryFlooring, materials))
		want := []string{"Oak Laminate Flooring", "Marble Flooring", "HDF Flooring"}
		if !slices.Equal(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("stronger keyword match ranks first", func(t *testing.T) {
		got := names(workflow.RankCandidates(workflow.CategoryWallPaint, materials))
		if len(got) != 2 || got[0] != "Jotun Fenomastic Emulsion Paint" {
			t.Errorf("got %v", got)
		}
	})

	t.Run("labor rows excluded", func(t *testing.T) {
		extra := append(slices.Clone(materials), material("Door Fitting Labor", "labor", "day", 500))
		for _, m := range workflow.RankCandidates(workflow.CategoryDoors, extra) {
			if m.Category == "labor" {
				t.Errorf("labor row %q offered", m.Name)
			}
		}
	})

	t.Run("at most five", func(t *testing.T) {
		var many []pricing.Material
		for i := 0; i < 8; i++ {
			many = append(many, material("Tile "+string(rune('A'+i)), "tiles", "m2", 100))
		}
		if got := workflow.RankCandidates(workflow.CategoryKitchenTiles, many); len(got) != 5 {
			t.Errorf("len = %d, want 5", len(got))
		}
	})

	t.Run("no match", func(t *testing.T) {
		filler := []pricing.Material{material("Filler Item", "misc", "unit", 1)}
		if got := workflow.RankCandidates(workflow.CategoryDoors, filler); len(got) != 0 {
			t.Errorf("got %v, want none", names(got))
		}
	})
}

func TestParseSelection(t *testing.T) {
	options := []pricing.Material{
		material("Oak Laminate Flooring", "flooring", "m2", 400),
		material("Marble Flooring", "flooring", "m2", 1200),
		material("HDF Flooring", "flooring", "m2", 250),
	}

	tests := []struct {
		reply string
		index int
		exact bool
	}{
		{"2", 1, true},
		{"option 3 please", 2, true},
		{"٣", 2, true},
		{"the marble flooring", 1, true},
		{"Oak", 0, true},
		{"whatever is cheapest", 0, false},
		{"7", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.reply, func(t *testing.T) {
			index, exact := workflow.ParseSelection(tt.reply, options)
			if index != tt.index || exact != tt.exact {
				t.Errorf("ParseSelection(%q) = %d, %v; want %d, %v", tt.reply, index, exact, tt.index, tt.exact)
			}
		})
	}

	if index, exact := workflow.ParseSelection("1", nil); index != -1 || exact {
		t.Errorf("no options = %d, %v; want -1, false", index, exact)
	}
}

func TestGroupRooms(t *testing.T) {
	groups := workflow.GroupRooms([]workflow.Room{
		{Type: "bedroom", AreaSqm: 12, Count: 2},
		{Type: "bedroom", AreaSqm: 16, Count: 1},
		{Type: "kitchen", AreaSqm: 10, Count: 1},
	})

	bed := groups["bedroom"]
	if bed.Count != 3 || bed.TotalAreaSqm != 40 || len(bed.Rooms) != 2 {
		t.Errorf("bedroom group = %+v", bed)
	}
	if groups["kitchen"].TotalAreaSqm != 10 {
		t.Errorf("kitchen group = %+v", groups["kitchen"])
	}
}

func TestRemainingCategories(t *testing.T) {
	st := workflow.NewState("s1", testNow)
	st.MaterialProgress.Needed = []string{workflow.CategoryFlooring, workflow.CategoryDoors, workflow.CategoryWallPaint}
	st.Select(workflow.CategoryFlooring, workflow.Selection{})
	st.MaterialProgress.Skipped = []string{workflow.CategoryDoors}

	if got := workflow.RemainingCategories(st); !slices.Equal(got, []string{workflow.CategoryWallPaint}) {
		t.Errorf("RemainingCategories() = %v", got)
	}
}
