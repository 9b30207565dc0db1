package api

import (
	"github.com/JaimeStill/estimator/internal/config"
	"github.com/JaimeStill/estimator/internal/infrastructure"
	"github.com/JaimeStill/estimator/internal/workflow"
	"github.com/JaimeStill/estimator/pkg/pagination"
)

// Runtime extends Infrastructure with API-specific configuration.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination pagination.Config
}

// NewRuntime creates an API runtime with a module-scoped logger.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	return &Runtime{
		Infrastructure: &infrastructure.Infrastructure{
			Lifecycle:     infra.Lifecycle,
			Logger:        infra.Logger.With("module", "api"),
			Database:      infra.Database,
			Storage:       infra.Storage,
			Observability: infra.Observability,
		},
		Pagination: cfg.API.Pagination,
	}
}

// WorkflowOptions converts the finalized workflow config into router options.
func WorkflowOptions(cfg *config.WorkflowConfig) workflow.Options {
	return workflow.Options{
		MaxTurns:                cfg.MaxTurns,
		MaxIterations:           cfg.MaxIterations,
		MaxRequirementsAttempts: cfg.MaxRequirementsAttempts,
		MaxDataAttempts:         cfg.MaxDataAttempts,
		MaxMaterialAttempts:     cfg.MaxMaterialAttempts,
		MaxCalculationAttempts:  cfg.MaxCalculationAttempts,
		SessionTimeout:          cfg.SessionTimeoutDuration(),
		Rates: workflow.Rates{
			ContingencyRate: cfg.ContingencyRate,
			MarkupRate:      cfg.MarkupRate,
			Currency:        cfg.Currency,
		},
		Coverage: workflow.Coverage{
			MinMaterials:  cfg.MinMaterials,
			MinLaborRates: cfg.MinLaborRates,
		},
		Knowledge: workflow.KnowledgeQueries{
			StandardsTopK:     cfg.Knowledge.StandardsTopK,
			StandardsMinScore: cfg.Knowledge.StandardsMinScore,
			CodesTopK:         cfg.Knowledge.CodesTopK,
			CodesMinScore:     cfg.Knowledge.CodesMinScore,
		},
	}
}
