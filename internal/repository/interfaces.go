package repository

import "context"

// Saver persists the settings document.
// Small interface used by the settings store on every mutation.
type Saver interface {
	Save(ctx context.Context, doc *Settings) error
}

// Repository abstracts persistence and watching of the settings file.
// JSONRepository implements this interface.
type Repository interface {
	Saver
	Load(ctx context.Context) (*Settings, error)
	StartWatcher(ctx context.Context, store SettingsCache) error
}
