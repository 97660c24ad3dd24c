package cache

import (
	"context"

	"github.com/bassista/go_ratebadge/internal/repository"
)

// InjectFlag is the minimal settings API needed by the inject loop.
type InjectFlag interface {
	InjectEnabled() bool
}

// SettingsService is the settings API needed by the configuration handlers.
type SettingsService interface {
	InjectFlag
	SetInject(ctx context.Context, enabled bool) (bool, error)
}

// AppSettings is the settings contract the application container exposes.
// It supports handlers, the inject loop and the repository watcher.
type AppSettings interface {
	repository.SettingsCache
	SettingsService
}

// ResponseCache is the response cache API needed by the games service.
type ResponseCache interface {
	Read(ctx context.Context, entityID string, category Category) (Payload, bool, error)
	Write(ctx context.Context, entityID string, payload Payload, category Category) error
}
