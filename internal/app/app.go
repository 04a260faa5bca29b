package app

import (
	"log/slog"

	"github.com/userdeck/authkit/internal/config"
	"github.com/userdeck/authkit/internal/observability"
	"github.com/userdeck/authkit/internal/session"
)

type App struct {
	Config        *config.Config
	Logger        *slog.Logger
	Session       *session.Manager
	Observability *observability.Runtime
}

func New(cfg *config.Config, logger *slog.Logger, mgr *session.Manager, runtime *observability.Runtime) *App {
	return &App{Config: cfg, Logger: logger, Session: mgr, Observability: runtime}
}
