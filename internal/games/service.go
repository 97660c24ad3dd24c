package games

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/sync/singleflight"

	"github.com/bassista/go_ratebadge/internal/cache"
	"github.com/bassista/go_ratebadge/internal/logger"
	"github.com/bassista/go_ratebadge/internal/ratings"
)

// ErrBadMetadata is returned when a metadata document lacks the expected name field.
var ErrBadMetadata = errors.New("unexpected metadata shape")

// Fetcher is the upstream API used on cache misses.
type Fetcher interface {
	Summary(ctx context.Context, appID string) (ratings.Response, error)
	AppDetails(ctx context.Context, appID string) (ratings.Response, error)
}

// Service resolves game names and rating summaries, cache first.
type Service struct {
	cache   cache.ResponseCache
	fetcher Fetcher
	group   singleflight.Group
}

// NewService creates a games service.
func NewService(c cache.ResponseCache, f Fetcher) (*Service, error) {
	if c == nil {
		return nil, errors.New("response cache is nil")
	}
	if f == nil {
		return nil, errors.New("fetcher is nil")
	}
	return &Service{cache: c, fetcher: f}, nil
}

// GetAppSummary returns the rating summary JSON for appID.
// A cached entry is returned re-encoded (cacheDate included); a fresh fetch returns the body verbatim.
// A non-200 upstream answer yields an empty string.
func (s *Service) GetAppSummary(ctx context.Context, appID string) (string, error) {
	logger.WithComponent("games").Infof("called get_app_summary %s", appID)
	return s.shared(ctx, string(cache.CategorySummary)+":"+appID, func(ctx context.Context) (string, error) {
		return s.appSummary(ctx, appID)
	})
}

func (s *Service) appSummary(ctx context.Context, appID string) (string, error) {
	cached, ok, err := s.cache.Read(ctx, appID, cache.CategorySummary)
	if err != nil {
		return "", err
	}
	if ok {
		data, err := json.Marshal(cached)
		if err != nil {
			return "", fmt.Errorf("encode cached summary %s: %w", appID, err)
		}
		return string(data), nil
	}

	resp, err := s.fetcher.Summary(ctx, appID)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		logger.WithComponent("games").Infof("summary for %s: not 200 (%d)", appID, resp.Status)
		return "", nil
	}

	var payload cache.Payload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", fmt.Errorf("parse summary %s: %w", appID, err)
	}
	if payload == nil {
		return "", fmt.Errorf("parse summary %s: not a JSON object", appID)
	}
	s.store(ctx, appID, payload, cache.CategorySummary)
	return string(resp.Body), nil
}

// GetGameName returns the store name of appID, or "" when the upstream has none.
func (s *Service) GetGameName(ctx context.Context, appID string) (string, error) {
	logger.WithComponent("games").Infof("called get_game_name %s", appID)
	return s.shared(ctx, string(cache.CategoryMetadata)+":"+appID, func(ctx context.Context) (string, error) {
		return s.gameName(ctx, appID)
	})
}

// shared collapses concurrent lookups of key into one call. The call runs detached
// from the caller's cancellation and is bounded by the HTTP client timeout; each
// caller stops waiting when its own ctx is done.
func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (string, error)) (string, error) {
	detached := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		return fn(detached)
	})
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

func (s *Service) gameName(ctx context.Context, appID string) (string, error) {
	cached, ok, err := s.cache.Read(ctx, appID, cache.CategoryMetadata)
	if err != nil {
		return "", err
	}
	if ok {
		name, _, err := metadataName(cached, appID)
		return name, err
	}

	resp, err := s.fetcher.AppDetails(ctx, appID)
	if err != nil {
		return "", err
	}
	if !resp.OK() {
		logger.WithComponent("games").Infof("metadata for %s: not 200 (%d)", appID, resp.Status)
		return "", nil
	}

	var payload cache.Payload
	if err := json.Unmarshal(resp.Body, &payload); err != nil {
		return "", fmt.Errorf("parse metadata %s: %w", appID, err)
	}
	name, success, err := metadataName(payload, appID)
	if !success {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	s.store(ctx, appID, payload, cache.CategoryMetadata)
	return name, nil
}

// metadataName digs {appID: {success, data: {name}}} out of an appdetails document.
func metadataName(doc cache.Payload, appID string) (string, bool, error) {
	entry, ok := doc[appID].(map[string]any)
	if !ok {
		return "", false, fmt.Errorf("%w: no entry for %s", ErrBadMetadata, appID)
	}
	success, _ := entry["success"].(bool)
	data, ok := entry["data"].(map[string]any)
	if !ok {
		return "", success, fmt.Errorf("%w: no data for %s", ErrBadMetadata, appID)
	}
	name, ok := data["name"].(string)
	if !ok {
		return "", success, fmt.Errorf("%w: no name for %s", ErrBadMetadata, appID)
	}
	return name, success, nil
}

// store writes through to the cache. A failed write is logged; the fetched value is still served.
func (s *Service) store(ctx context.Context, appID string, payload cache.Payload, category cache.Category) {
	if err := s.cache.Write(ctx, appID, payload, category); err != nil {
		logger.WithComponent("games").Warnf("cache write %s/%s failed: %v", appID, category, err)
	}
}
