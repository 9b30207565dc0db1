package prompts_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/JaimeStill/estimator/internal/prompts"
	"github.com/JaimeStill/estimator/pkg/query"
)

func ptr[T any](v T) *T { return &v }

func TestMapHTTPStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{prompts.ErrNotFound, http.StatusNotFound},
		{prompts.ErrDuplicate, http.StatusConflict},
		{prompts.ErrActive, http.StatusConflict},
		{prompts.ErrInvalidStage, http.StatusBadRequest},
		{fmt.Errorf("%w: name required", prompts.ErrInvalidPrompt), http.StatusBadRequest},
		{fmt.Errorf("find: %w", prompts.ErrNotFound), http.StatusNotFound},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := prompts.MapHTTPStatus(tt.err); got != tt.want {
			t.Errorf("MapHTTPStatus(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestParseStage(t *testing.T) {
	tests := []struct {
		in   string
		want prompts.Stage
		err  error
	}{
		{"supervisor", prompts.StageSupervisor, nil},
		{"extract", prompts.StageExtract, nil},
		{"Supervisor", "", prompts.ErrInvalidStage},
		{"calculate", "", prompts.ErrInvalidStage},
		{"", "", prompts.ErrInvalidStage},
	}

	for _, tt := range tests {
		got, err := prompts.ParseStage(tt.in)
		if got != tt.want || !errors.Is(err, tt.err) {
			t.Errorf("ParseStage(%q) = %q, %v; want %q, %v", tt.in, got, err, tt.want, tt.err)
		}
	}
}

func TestStageUnmarshalJSON(t *testing.T) {
	var ok struct {
		Stage prompts.Stage `json:"stage"`
	}
	if err := json.Unmarshal([]byte(`{"stage": "extract"}`), &ok); err != nil || ok.Stage != prompts.StageExtract {
		t.Errorf("valid stage = %q, %v", ok.Stage, err)
	}

	for _, body := range []string{`{"stage": "pricing"}`, `{"stage": ""}`, `{"stage": 3}`} {
		var v struct {
			Stage prompts.Stage `json:"stage"`
		}
		if err := json.Unmarshal([]byte(body), &v); err == nil {
			t.Errorf("Unmarshal(%s) accepted %q", body, v.Stage)
		}
	}
}

func TestCommandValidate(t *testing.T) {
	valid := prompts.Command{Name: "n", Stage: prompts.StageExtract, Instructions: "x"}

	tests := []struct {
		name   string
		mutate func(c *prompts.Command)
		err    error
	}{
		{"valid", func(*prompts.Command) {}, nil},
		{"unknown stage", func(c *prompts.Command) { c.Stage = "calculate" }, prompts.ErrInvalidStage},
		{"blank name", func(c *prompts.Command) { c.Name = "  " }, prompts.ErrInvalidPrompt},
		{"long name", func(c *prompts.Command) { c.Name = strings.Repeat("ن", 101) }, prompts.ErrInvalidPrompt},
		{"arabic name at limit", func(c *prompts.Command) { c.Name = strings.Repeat("ن", 100) }, nil},
		{"blank instructions", func(c *prompts.Command) { c.Instructions = "\n\t" }, prompts.ErrInvalidPrompt},
		{"long instructions", func(c *prompts.Command) { c.Instructions = strings.Repeat("a", 8001) }, prompts.ErrInvalidPrompt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := valid
			tt.mutate(&cmd)
			cmd.Normalize()
			if err := cmd.Validate(); !errors.Is(err, tt.err) {
				t.Errorf("Validate() = %v, want %v", err, tt.err)
			}
		})
	}
}

func TestCommandNormalize(t *testing.T) {
	cmd := prompts.Command{Name: " terse ", Instructions: " Ask. ", Description: ptr("   ")}
	cmd.Normalize()

	if cmd.Name != "terse" || cmd.Instructions != "Ask." {
		t.Errorf("Normalize() = %q / %q", cmd.Name, cmd.Instructions)
	}
	if cmd.Description != nil {
		t.Errorf("blank description kept: %q", *cmd.Description)
	}
}

func TestBuiltinContent(t *testing.T) {
	for _, stage := range prompts.Stages() {
		if prompts.DefaultInstructions(stage) == "" {
			t.Errorf("DefaultInstructions(%q) is empty", stage)
		}
		if spec, err := prompts.Spec(stage); err != nil || spec == "" {
			t.Errorf("Spec(%q) = %q, %v", stage, spec, err)
		}
	}

	if got := prompts.DefaultInstructions("calculate"); got != "" {
		t.Errorf("DefaultInstructions(calculate) = %q, want empty", got)
	}
	if _, err := prompts.Spec("calculate"); !errors.Is(err, prompts.ErrInvalidStage) {
		t.Errorf("Spec(calculate) error = %v, want ErrInvalidStage", err)
	}
}

func TestCompose(t *testing.T) {
	got := prompts.Compose(prompts.StageExtract, "custom instructions")
	spec, _ := prompts.Spec(prompts.StageExtract)

	if got != "custom instructions\n\n"+spec {
		t.Errorf("Compose() = %q", got)
	}
	if got := prompts.Compose("calculate", "only"); got != "only" {
		t.Errorf("Compose(calculate) = %q, want only", got)
	}
}

func TestFiltersFromQuery(t *testing.T) {
	tests := []struct {
		query  string
		stage  *prompts.Stage
		name   *string
		active *bool
	}{
		{"stage=supervisor&name=terse&active=true", ptr(prompts.StageSupervisor), ptr("terse"), ptr(true)},
		{"active=false", nil, nil, ptr(false)},
		{"stage=calculate&active=maybe", nil, nil, nil},
		{"", nil, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			values, _ := url.ParseQuery(tt.query)
			f := prompts.FiltersFromQuery(values)

			if !equalPtr(f.Stage, tt.stage) || !equalPtr(f.Name, tt.name) || !equalPtr(f.Active, tt.active) {
				t.Errorf("FiltersFromQuery(%q) = %+v", tt.query, f)
			}
		})
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func TestFiltersApply(t *testing.T) {
	projection := query.
		NewProjectionMap("public", "prompts", "p").
		Project("stage", "Stage").
		Project("name", "Name").
		Project("active", "Active")

	b := query.NewBuilder(projection)
	prompts.Filters{
		Stage:  ptr(prompts.StageExtract),
		Name:   ptr("100%"),
		Active: ptr(false),
	}.Apply(b)

	sql, args := b.BuildCount()
	want := `SELECT COUNT(*) FROM public.prompts p WHERE p.stage = $1 AND p.name ILIKE $2 ESCAPE '\' AND p.active = $3`
	if sql != want {
		t.Errorf("sql = %q, want %q", sql, want)
	}
	if len(args) != 3 || args[1] != `%100\%%` {
		t.Errorf("args = %v", args)
	}

	empty := query.NewBuilder(projection)
	prompts.Filters{}.Apply(empty)
	if sql, args := empty.BuildCount(); sql != "SELECT COUNT(*) FROM public.prompts p" || len(args) != 0 {
		t.Errorf("empty filters = %q %v", sql, args)
	}
}
