package knowledge_test

import (
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/JaimeStill/estimator/internal/knowledge"
)

func TestTermQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"basic", "bare_concrete modern finishing standards Egypt", "bare | concrete | modern | finishing | standards | egypt"},
		{"operators stripped", "codes & (regulations) | !cairo", "codes | regulations | cairo"},
		{"duplicates removed", "Egypt egypt EGYPT standards", "egypt | standards"},
		{"single letters dropped", "a b cd", "cd"},
		{"arabic", "تشطيب شقة القاهرة", "تشطيب | شقة | القاهرة"},
		{"empty", "  !! ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := knowledge.TermQuery(tt.in); got != tt.want {
				t.Errorf("TermQuery(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{knowledge.ErrNotFound, http.StatusNotFound},
		{knowledge.ErrDuplicate, http.StatusConflict},
		{knowledge.ErrInvalidQuery, http.StatusBadRequest},
		{knowledge.ErrInvalidInput, http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := knowledge.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRelativeScores(t *testing.T) {
	tests := []struct {
		name string
		raw  []float64
		want []float64
	}{
		{"best hit scores one", []float64{0.4, 0.3, 0.1}, []float64{1, 0.75, 0.25}},
		{"small unweighted ranks still pass a 0.7 floor", []float64{0.05, 0.04, 0.01}, []float64{1, 0.8, 0.2}},
		{"zero ranks", []float64{0, 0}, []float64{0, 0}},
		{"empty", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hits := make([]knowledge.Snippet, len(tt.raw))
			for i, r := range tt.raw {
				hits[i] = knowledge.Snippet{Text: "t", Score: r}
			}

			got := knowledge.RelativeScores(hits)

			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if math.Abs(got[i].Score-tt.want[i]) > 1e-9 {
					t.Errorf("score[%d] = %v, want %v", i, got[i].Score, tt.want[i])
				}
				if got[i].Text != "t" {
					t.Errorf("text[%d] = %q", i, got[i].Text)
				}
			}
			if len(hits) > 0 && hits[0].Score != tt.raw[0] {
				t.Error("input slice modified")
			}
		})
	}
}
