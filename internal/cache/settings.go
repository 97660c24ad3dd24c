package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bassista/go_ratebadge/internal/logger"
	"github.com/bassista/go_ratebadge/internal/repository"
)

// SettingsStore keeps an in-memory copy of the settings document.
// Every mutation is persisted through the saver before it becomes visible.
type SettingsStore struct {
	mu    sync.RWMutex
	data  repository.Settings
	saver repository.Saver
}

// NewSettingsStore creates a store seeded with the document loaded at startup.
func NewSettingsStore(doc repository.Settings, saver repository.Saver) (*SettingsStore, error) {
	if saver == nil {
		return nil, errors.New("settings saver is nil")
	}
	doc.ApplyDefaults()
	return &SettingsStore{data: cloneSettings(doc), saver: saver}, nil
}

// InjectEnabled reports whether the badge should be injected.
func (s *SettingsStore) InjectEnabled() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Inject()
}

// SetInject persists the new flag synchronously and returns it.
// On save failure the in-memory value is left unchanged.
func (s *SettingsStore) SetInject(ctx context.Context, enabled bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.WithComponent("settings").Infof("setting if we should inject to game info page to [%v]", enabled)

	next := cloneSettings(s.data)
	next.InjectEnabled = &enabled
	if err := s.saver.Save(ctx, &next); err != nil {
		return s.data.Inject(), fmt.Errorf("persist settings: %w", err)
	}
	s.data = next
	return enabled, nil
}

// Snapshot returns a copy of the settings.
func (s *SettingsStore) Snapshot() (repository.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSettings(s.data), nil
}

// Reload swaps in the document returned by load when it differs from the
// in-memory one, without persisting it. load runs under the write lock, so it
// cannot interleave with SetInject.
func (s *SettingsStore) Reload(load func() (*repository.Settings, error)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := load()
	if err != nil {
		return false, err
	}
	next := cloneSettings(*doc)
	next.ApplyDefaults()
	if s.data.Equal(next) {
		return false, nil
	}
	s.data = next
	return true, nil
}

func cloneSettings(doc repository.Settings) repository.Settings {
	if doc.InjectEnabled == nil {
		return repository.Settings{}
	}
	v := *doc.InjectEnabled
	return repository.Settings{InjectEnabled: &v}
}
