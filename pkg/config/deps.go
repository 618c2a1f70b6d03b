package config

import (
	"log/slog"

	"github.com/cashnoteio/cashnote/pkg/eventbus"
	"github.com/cashnoteio/cashnote/pkg/provider"
	"github.com/cashnoteio/cashnote/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow        repository.UnitOfWork
	Compliance provider.ComplianceValidator
	EventBus   eventbus.Bus
	Logger     *slog.Logger
	Config     *App
}
