package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"

	"github.com/bassista/go_ratebadge/internal/logger"
)

// SettingsCache defines the in-memory settings operations needed by the watcher callback.
// Reload must call load and swap in its result under the same lock that guards
// writes, so a concurrent save is never overwritten by an older disk read.
type SettingsCache interface {
	Snapshot() (Settings, error)
	Reload(load func() (*Settings, error)) (changed bool, err error)
}

// JSONRepository handles disk persistence and watching of the settings file.
type JSONRepository struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	mu        sync.Mutex
}

// NewJSONRepository creates a repository for the given JSON file path.
// It returns the repository interface to avoid leaking implementation details.
func NewJSONRepository(path string) (Repository, error) {
	if path == "" {
		return nil, errors.New("settings file path is required")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	if dir == "" || dir == "." {
		dir = "."
	}

	return &JSONRepository{path: path, dir: dir, base: base, validator: validator.New()}, nil
}

// Load reads the JSON file, parses and validates it.
// A missing file is created with DefaultSettings.
func (r *JSONRepository) Load(ctx context.Context) (*Settings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	doc, err := r.loadUnlocked()
	if errors.Is(err, os.ErrNotExist) {
		logger.WithComponent("settings-repo").Infof("settings file %s not found, writing defaults", r.path)
		defaults := DefaultSettings()
		if err := r.saveUnlocked(&defaults); err != nil {
			return nil, err
		}
		return &defaults, nil
	}
	return doc, err
}

// loadUnlocked reads the JSON file without acquiring the lock (caller must hold it).
func (r *JSONRepository) loadUnlocked() (*Settings, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open settings file: %w", err)
	}
	defer file.Close()

	var doc Settings
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode settings file: %w", err)
	}

	doc.ApplyDefaults()

	if err := r.validator.Struct(&doc); err != nil {
		return nil, fmt.Errorf("validate settings file: %w", err)
	}

	return &doc, nil
}

// Save validates and writes the document atomically to disk.
func (r *JSONRepository) Save(ctx context.Context, doc *Settings) error {
	if doc == nil {
		return errors.New("document is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.validator.Struct(doc); err != nil {
		return fmt.Errorf("validate before save: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveUnlocked(doc)
}

// saveUnlocked writes the document without acquiring the lock (caller must hold it).
func (r *JSONRepository) saveUnlocked(doc *Settings) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	tmpFile, err := os.CreateTemp(r.dir, r.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpFile.Name(), r.path); err != nil {
		return fmt.Errorf("replace settings file: %w", err)
	}

	return nil
}

// StartWatcher listens for changes to the settings file and reloads the store after debounce.
// It watches the parent directory (not the file) so atomic replace sequences (temp+rename)
// are still observed. Cancel ctx to stop the goroutine and close the watcher.
func (r *JSONRepository) StartWatcher(ctx context.Context, store SettingsCache) error {
	if store == nil {
		return errors.New("settings store is required")
	}
	onChange := r.MakeWatcherCallback(store)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		// debounce coalesces bursty fsnotify events (write+chmod/rename) into a single reload.
		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(200*time.Millisecond, onChange)
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != r.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("settings-repo").Warnf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// MakeWatcherCallback returns a callback for the file watcher that reloads the store from disk
// when the persisted value differs from the in-memory one.
func (r *JSONRepository) MakeWatcherCallback(store SettingsCache) func() {
	load := func() (*Settings, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		return r.loadUnlocked()
	}

	return func() {
		changed, err := store.Reload(load)
		if err != nil {
			logger.WithComponent("settings-repo").Warnf("watch reload failed: %v", err)
			return
		}
		if !changed {
			return
		}
		current, _ := store.Snapshot()
		logger.WithComponent("settings-repo").Infof("settings reloaded from disk: injectEnabled=%v", current.Inject())
	}
}
