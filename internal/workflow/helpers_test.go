package workflow_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/estimator/internal/knowledge"
	"github.com/JaimeStill/estimator/internal/llm"
	"github.com/JaimeStill/estimator/internal/pricing"
	"github.com/JaimeStill/estimator/internal/workflow"
)

var testNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

const fullMessage = "I want to finish a 100 m2 apartment in Cairo, bare concrete, standard level. 2 bedrooms, 1 bathroom, 1 living room, 1 kitchen"

var errBoom = errors.New("boom")

type fakePricing struct {
	materials []pricing.Material
	labor     []pricing.LaborRate
	err       error
	panics    bool
	calls     int
}

func (f *fakePricing) ListMaterials(context.Context) ([]pricing.Material, error) {
	f.calls++
	if f.panics {
		panic("boom")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.materials, nil
}

func (f *fakePricing) ListLaborRates(context.Context) ([]pricing.LaborRate, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.labor, nil
}

type fakeKnowledge struct {
	hits    []knowledge.Snippet
	err     error
	queries []string
}

func (f *fakeKnowledge) Search(_ context.Context, query string, _ int) ([]knowledge.Snippet, error) {
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

type fakeExporter struct {
	formats []string
}

func (f *fakeExporter) Export(_ context.Context, sessionID string, _ *workflow.Quotation, format string) (string, error) {
	f.formats = append(f.formats, format)
	return fmt.Sprintf("exports/%s/quotation.%s", sessionID, format), nil
}

// modelFunc adapts a function to llm.Client.
type modelFunc func(ctx context.Context, req llm.Request) (*llm.Response, error)

func (f modelFunc) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return f(ctx, req)
}

func material(name, category, unit string, price float64) pricing.Material {
	return pricing.Material{
		ID:        uuid.New(),
		Name:      name,
		Category:  category,
		Unit:      unit,
		UnitPrice: price,
		Currency:  "EGP",
		UpdatedAt: testNow,
	}
}

func labor(role string, rate float64) pricing.LaborRate {
	return pricing.LaborRate{ID: uuid.New(), Role: role, DailyRate: rate, Currency: "EGP", UpdatedAt: testNow}
}

// catalogue returns a reference catalogue that passes the default coverage
// thresholds with a clear first choice per category.
func catalogue() ([]pricing.Material, []pricing.LaborRate) {
	materials := []pricing.Material{
		material("Oak Laminate Flooring", "flooring", "m2", 400),
		material("Marble Flooring", "flooring", "m2", 1200),
		material("HDF Flooring", "flooring", "m2", 250),
		material("Jotun Fenomastic Emulsion Paint", "paint", "m2", 50),
		material("Sipes Ceiling Paint", "paint", "m2", 40),
		material("Cleopatra Ceramic Wall Tile", "tiles", "m2", 300),
		material("Porcelain Wall Tile", "tiles", "m2", 450),
		material("Solid Wood Door", "doors", "unit", 3000),
		material("Skilled Worker Day", "labor", "day", 600),
	}
	for i := len(materials); i < 32; i++ {
		materials = append(materials, material(fmt.Sprintf("Filler Item %02d", i), "misc", "unit", 10))
	}

	rates := []pricing.LaborRate{
		labor("mason", 700),
		labor("painter", 600),
		labor("tiler", 650),
		labor("carpenter", 750),
		labor("electrician", 800),
	}
	return materials, rates
}

func goodPricing() *fakePricing {
	m, l := catalogue()
	return &fakePricing{materials: m, labor: l}
}

func goodKnowledge() *fakeKnowledge {
	return &fakeKnowledge{hits: []knowledge.Snippet{
		{Text: "Floor screed must cure 28 days before tiling.", Score: 0.9, Source: "finishing-guide"},
		{Text: "Wet rooms require waterproofing to 1.8 m.", Score: 0.85, Source: "egyptian-code"},
		{Text: "Low relevance note.", Score: 0.2, Source: "misc"},
	}}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRuntime(p workflow.PricingStore, k workflow.KnowledgeSearcher) *workflow.Runtime {
	return &workflow.Runtime{
		Pricing:   p,
		Knowledge: k,
		Logger:    discardLogger(),
		Options:   workflow.DefaultOptions(),
		Now:       func() time.Time { return testNow },
	}
}

func send(t *testing.T, r *workflow.Router, st *workflow.State, msg string) workflow.Outcome {
	t.Helper()
	st.AddUserMessage(msg, testNow)
	out, err := r.Run(context.Background(), st, nil)
	if err != nil {
		t.Fatalf("Run(%q) error: %v", msg, err)
	}
	return out
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }
