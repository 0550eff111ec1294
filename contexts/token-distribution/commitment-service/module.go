package commitmentservice

import (
	"log/slog"

	httpadapter "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/adapters/http"
	"github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/application"
)

// Dependencies lists everything the module needs from the outside.
type Dependencies struct {
	Logger *slog.Logger
}

// Module exposes the commitment builder behind its HTTP-facing handler.
type Module struct {
	Handler httpadapter.Handler
}

func NewModule(deps Dependencies) Module {
	builder := application.Service{Logger: deps.Logger}
	return Module{
		Handler: httpadapter.Handler{
			Builder: builder,
			Logger:  deps.Logger,
		},
	}
}
