package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"math"
	"sync"
	"time"

	"github.com/bassista/go_ratebadge/internal/logger"
)

// CacheDateField is stamped into every stored payload by the store.
const CacheDateField = "cacheDate"

// ErrCorrupt is returned when a stored entry cannot be decoded or lacks a valid cacheDate.
var ErrCorrupt = errors.New("corrupt cache entry")

// Payload is a JSON object as returned by the originating fetch.
type Payload = map[string]any

// Backend stores raw cache blobs by key.
// Get returns nil with no error when the key is missing.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Option configures a ResponseStore.
type Option func(*ResponseStore)

// WithClock overrides the time source used for stamping and ageing.
func WithClock(now func() time.Time) Option {
	return func(s *ResponseStore) { s.now = now }
}

// WithLocation sets the time zone that defines calendar days.
func WithLocation(loc *time.Location) Option {
	return func(s *ResponseStore) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// ResponseStore caches fetched JSON responses for one calendar day.
// Stale entries are reported as misses and left in place until overwritten.
type ResponseStore struct {
	backend Backend
	now     func() time.Time
	loc     *time.Location

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewResponseStore creates a store over the given backend.
func NewResponseStore(backend Backend, opts ...Option) (*ResponseStore, error) {
	if backend == nil {
		return nil, errors.New("cache backend is nil")
	}
	s := &ResponseStore{
		backend: backend,
		now:     time.Now,
		loc:     time.Local,
		locks:   map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Write stamps cacheDate on a copy of payload and overwrites the entry for (entityID, category).
func (s *ResponseStore) Write(ctx context.Context, entityID string, payload Payload, category Category) error {
	key, err := Key(entityID, category)
	if err != nil {
		return err
	}

	stamped := make(Payload, len(payload)+1)
	maps.Copy(stamped, payload)
	stamped[CacheDateField] = toEpochSeconds(s.now())

	data, err := json.Marshal(stamped)
	if err != nil {
		return fmt.Errorf("marshal cache entry %s: %w", key, err)
	}

	lock := s.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	logger.WithComponent("cache").Infof("CACHE WRITE [%s] - [%s]", entityID, category)
	if err := s.backend.Set(ctx, key, data); err != nil {
		return fmt.Errorf("write cache entry %s: %w", key, err)
	}
	return nil
}

// Read returns the stored payload (including cacheDate) when it was written today.
// The boolean is false on a miss or a stale entry; corruption is reported as ErrCorrupt.
func (s *ResponseStore) Read(ctx context.Context, entityID string, category Category) (Payload, bool, error) {
	key, err := Key(entityID, category)
	if err != nil {
		return nil, false, err
	}

	logger.WithComponent("cache").Debugf("CACHE LOOKUP: [%s] - [%s]", entityID, category)
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}
	if data == nil {
		logger.WithComponent("cache").Debugf("NO CACHE for %s", key)
		return nil, false, nil
	}

	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, false, fmt.Errorf("%w: %s: %v", ErrCorrupt, key, err)
	}
	if payload == nil {
		return nil, false, fmt.Errorf("%w: %s: not a JSON object", ErrCorrupt, key)
	}

	stamp, ok := payload[CacheDateField].(float64)
	if !ok || math.IsNaN(stamp) || math.IsInf(stamp, 0) {
		return nil, false, fmt.Errorf("%w: %s: missing or invalid %s", ErrCorrupt, key, CacheDateField)
	}

	age := calendarDaysBetween(fromEpochSeconds(stamp), s.now(), s.loc)
	logger.WithComponent("cache").Debugf("cache %s is %d days old", key, age)
	if age != 0 {
		return nil, false, nil
	}
	return payload, true, nil
}

func (s *ResponseStore) keyLock(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

// calendarDaysBetween counts calendar-date boundaries between from and to in loc,
// so 23:00 -> 01:00 is one day while 01:00 -> 21:00 is zero.
func calendarDaysBetween(from, to time.Time, loc *time.Location) int {
	fy, fm, fd := from.In(loc).Date()
	ty, tm, td := to.In(loc).Date()
	fromDay := time.Date(fy, fm, fd, 0, 0, 0, 0, time.UTC)
	toDay := time.Date(ty, tm, td, 0, 0, 0, 0, time.UTC)
	return int(toDay.Sub(fromDay).Hours() / 24)
}

func toEpochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

func fromEpochSeconds(sec float64) time.Time {
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}
