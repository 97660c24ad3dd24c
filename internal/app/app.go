package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/bassista/go_ratebadge/internal/cache"
	"github.com/bassista/go_ratebadge/internal/config"
	"github.com/bassista/go_ratebadge/internal/games"
	"github.com/bassista/go_ratebadge/internal/logger"
	"github.com/bassista/go_ratebadge/internal/repository"
)

// Loop is a background loop bound to the application lifetime.
type Loop interface {
	Start(ctx context.Context)
}

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config   *config.Config
	Repo     repository.Repository
	Settings cache.AppSettings
	Games    *games.Service
	Injector Loop

	BaseCtx context.Context
	Cancel  context.CancelFunc

	closers []io.Closer
}

// New validates the dependencies and creates the lifecycle context.
// closers are released by Shutdown in reverse order.
func New(cfg *config.Config, repo repository.Repository, settings cache.AppSettings, svc *games.Service, loop Loop, closers ...io.Closer) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if repo == nil {
		return nil, errors.New("repo is nil")
	}
	if settings == nil {
		return nil, errors.New("settings store is nil")
	}
	if svc == nil {
		return nil, errors.New("games service is nil")
	}
	if loop == nil {
		return nil, errors.New("injector is nil")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config:   cfg,
		Repo:     repo,
		Settings: settings,
		Games:    svc,
		Injector: loop,
		BaseCtx:  ctx,
		Cancel:   cancel,
		closers:  closers,
	}, nil
}

// Shutdown stops the background loops and releases clients.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if a.closers[i] == nil {
			continue
		}
		if err := a.closers[i].Close(); err != nil {
			logger.WithComponent("app").Warnf("close: %v", err)
		}
	}
	a.closers = nil
}

// StartWatchers starts the settings file watcher and the inject loop.
func (a *App) StartWatchers() error {
	if err := a.Repo.StartWatcher(a.BaseCtx, a.Settings); err != nil {
		return fmt.Errorf("cannot start settings file watcher: %w", err)
	}
	a.Injector.Start(a.BaseCtx)
	return nil
}
