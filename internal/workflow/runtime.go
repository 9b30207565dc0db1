package workflow

import (
	"context"
	"log/slog"
	"time"

	"github.com/JaimeStill/estimator/internal/knowledge"
	"github.com/JaimeStill/estimator/internal/llm"
	"github.com/JaimeStill/estimator/internal/pricing"
	"github.com/JaimeStill/estimator/internal/prompts"
	"github.com/JaimeStill/estimator/pkg/observability"
)

// PricingStore supplies the reference catalogue for the Critical-Data stage.
type PricingStore interface {
	ListMaterials(ctx context.Context) ([]pricing.Material, error)
	ListLaborRates(ctx context.Context) ([]pricing.LaborRate, error)
}

// KnowledgeSearcher runs relevance searches over the standards corpus.
type KnowledgeSearcher interface {
	Search(ctx context.Context, query string, topK int) ([]knowledge.Snippet, error)
}

// PromptSource resolves the instruction text for a prompt stage.
type PromptSource interface {
	Instructions(ctx context.Context, stage prompts.Stage) (string, error)
}

// Exporter persists a quotation document and returns its storage key.
type Exporter interface {
	Export(ctx context.Context, sessionID string, q *Quotation, format string) (string, error)
}

// Options holds the workflow budgets, thresholds, and rates.
type Options struct {
	MaxTurns                int
	MaxIterations           int
	MaxRequirementsAttempts int
	MaxDataAttempts         int
	MaxMaterialAttempts     int
	MaxCalculationAttempts  int
	SessionTimeout          time.Duration

	Rates     Rates
	Coverage  Coverage
	Knowledge KnowledgeQueries
}

// KnowledgeQueries tunes the standards and codes searches.
type KnowledgeQueries struct {
	StandardsTopK     int
	StandardsMinScore float64
	CodesTopK         int
	CodesMinScore     float64
}

// DefaultOptions returns the production defaults.
func DefaultOptions() Options {
	return Options{
		MaxTurns:                20,
		MaxIterations:           15,
		MaxRequirementsAttempts: 8,
		MaxDataAttempts:         3,
		MaxMaterialAttempts:     12,
		MaxCalculationAttempts:  3,
		SessionTimeout:          30 * time.Minute,
		Rates:                   DefaultRates(),
		Coverage:                DefaultCoverage(),
		Knowledge: KnowledgeQueries{
			StandardsTopK:     10,
			StandardsMinScore: 0.7,
			CodesTopK:         7,
			CodesMinScore:     0.6,
		},
	}
}

// Runtime bundles the collaborators the workflow stages require.
// Model, Prompts, Exporter, and Recorder are optional.
type Runtime struct {
	Pricing   PricingStore
	Knowledge KnowledgeSearcher
	Model     llm.Client
	Prompts   PromptSource
	Exporter  Exporter
	Recorder  observability.Recorder
	Logger    *slog.Logger
	Options   Options
	Now       func() time.Time
}

func (rt *Runtime) now() time.Time {
	if rt.Now != nil {
		return rt.Now()
	}
	return time.Now().UTC()
}

func (rt *Runtime) instructions(ctx context.Context, stage prompts.Stage) string {
	if rt.Prompts != nil {
		text, err := rt.Prompts.Instructions(ctx, stage)
		if err == nil && text != "" {
			return text
		}
		if err != nil {
			rt.Logger.WarnContext(ctx, "prompt override lookup failed", "stage", stage, "error", err)
		}
	}
	return prompts.DefaultInstructions(stage)
}
