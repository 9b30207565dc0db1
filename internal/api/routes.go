package api

import (
	"net/http"

	"github.com/JaimeStill/estimator/pkg/observability"
	"github.com/JaimeStill/estimator/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	runtime *Runtime,
) {
	groups := []routes.Group{
		domain.Chat.Handler().Routes(),
		domain.Pricing.Handler().Routes(),
		domain.Knowledge.Handler().Routes(),
		domain.Prompts.Handler().Routes(),
		domain.Exports.Handler().Routes(),
		observability.NewHandler(runtime.Observability, runtime.Logger).Routes(),
	}

	routes.Register(mux, groups...)
	runtime.Logger.Debug("api routes registered", "patterns", routes.Patterns(groups...))
}
