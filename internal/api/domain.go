package api

import (
	"fmt"

	"github.com/JaimeStill/go-agents/pkg/agent"

	"github.com/JaimeStill/estimator/internal/chat"
	"github.com/JaimeStill/estimator/internal/config"
	"github.com/JaimeStill/estimator/internal/exports"
	"github.com/JaimeStill/estimator/internal/knowledge"
	"github.com/JaimeStill/estimator/internal/llm"
	"github.com/JaimeStill/estimator/internal/pricing"
	"github.com/JaimeStill/estimator/internal/prompts"
	"github.com/JaimeStill/estimator/internal/sessions"
	"github.com/JaimeStill/estimator/internal/workflow"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Pricing   pricing.System
	Catalogue *pricing.Cache
	Knowledge knowledge.System
	Prompts   prompts.System
	Sessions  sessions.Store
	Exports   *exports.System
	Chat      chat.System
}

// NewDomain creates all domain systems from the API runtime.
func NewDomain(runtime *Runtime, cfg *config.Config) (*Domain, error) {
	db := runtime.Database.Connection()

	pricingSystem := pricing.New(db, runtime.Logger, runtime.Pagination)
	catalogue := pricing.NewCache(pricingSystem, cfg.Pricing.CacheTTLDuration(), runtime.Logger)

	knowledgeSystem := knowledge.New(db, runtime.Logger, runtime.Pagination)
	promptsSystem := prompts.New(db, runtime.Logger, runtime.Pagination)
	exportsSystem := exports.New(runtime.Storage, cfg.Storage.Prefix, runtime.Logger)

	store, err := newSessionStore(runtime, cfg)
	if err != nil {
		return nil, err
	}

	recorder := runtime.Observability.Recorder()

	rt := &workflow.Runtime{
		Pricing:   catalogue,
		Knowledge: knowledgeSystem,
		Prompts:   promptsSystem,
		Exporter:  exportsSystem,
		Recorder:  recorder,
		Logger:    runtime.Logger.With("system", "workflow"),
		Options:   WorkflowOptions(&cfg.Workflow),
	}
	if cfg.Workflow.Supervisor == config.SupervisorAgent {
		rt.Model = llm.NewAgentClient(cfg.Agent, agent.New, recorder, runtime.Logger)
	}

	chatSystem := chat.New(chat.Config{
		Router:         workflow.NewRouter(rt),
		Store:          store,
		Logger:         runtime.Logger,
		Pagination:     runtime.Pagination,
		MaxMessageSize: cfg.API.MaxMessageSize,
	})

	return &Domain{
		Pricing:   pricingSystem,
		Catalogue: catalogue,
		Knowledge: knowledgeSystem,
		Prompts:   promptsSystem,
		Sessions:  store,
		Exports:   exportsSystem,
		Chat:      chatSystem,
	}, nil
}

func newSessionStore(runtime *Runtime, cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store

	switch cfg.Sessions.Driver {
	case config.SessionsDriverSQLite:
		lite, err := sessions.NewSQLite(cfg.Sessions.SQLitePath, runtime.Pagination)
		if err != nil {
			return nil, fmt.Errorf("sessions: %w", err)
		}
		store = lite
	case config.SessionsDriverMemory:
		store = sessions.NewMemory(runtime.Pagination)
	default:
		store = sessions.NewPostgres(runtime.Database.Connection(), runtime.Logger, runtime.Pagination)
	}

	lc := runtime.Lifecycle
	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := store.Close(); err != nil {
			runtime.Logger.Error("session store close failed", "error", err)
		}
	})

	runtime.Logger.Info("session store ready", "driver", cfg.Sessions.Driver)
	return store, nil
}
