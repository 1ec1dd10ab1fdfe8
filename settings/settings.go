// Package settings stores site-wide key/value settings in the settings table,
// optionally fronted by a cache. Writes invalidate the cached entries they touch.
package settings

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/heritagehub/cms/cache"
	"github.com/heritagehub/cms/database/types"
	"github.com/heritagehub/cms/logger"
)

const (
	keyPrefix = "settings:key:"
	allKey    = "settings:all"

	timestampLayout = "2006-01-02 15:04:05"

	selectOne = "SELECT value FROM settings WHERE key = ?"
	selectAll = "SELECT key, value FROM settings ORDER BY key"
	upsert    = "INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?) " +
		"ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at"
	deleteOne = "DELETE FROM settings WHERE key = ?"
)

// ErrEmptyKey is returned for blank setting keys.
var ErrEmptyKey = errors.New("settings: key must not be empty")

// entry is the cached form of a single lookup. Absent keys are cached too.
type entry struct {
	Value string `cbor:"1,keyasint"`
	Found bool   `cbor:"2,keyasint"`
}

// Store reads and writes settings through the query gateway.
type Store struct {
	q     types.Querier
	cache cache.Cache
	ttl   time.Duration
	log   logger.Logger
	group singleflight.Group
	now   func() time.Time
}

// NewStore creates a Store. A nil cache reads straight from the database.
func NewStore(q types.Querier, c cache.Cache, ttl time.Duration, log logger.Logger) *Store {
	return &Store{q: q, cache: c, ttl: ttl, log: log, now: time.Now}
}

// Get returns the value stored under key and whether the key exists.
// A NULL value is reported as "" with ok true.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, ErrEmptyKey
	}

	if e, hit := s.cached(ctx, keyPrefix+key); hit {
		return e.Value, e.Found, nil
	}

	v, err, _ := s.group.Do(keyPrefix+key, func() (any, error) {
		row, err := s.q.Get(ctx, selectOne, key)
		if err != nil {
			return entry{}, err
		}
		e := entry{}
		if row != nil {
			e = entry{Value: text(row["value"]), Found: true}
		}
		s.store(ctx, keyPrefix+key, e)
		return e, nil
	})
	if err != nil {
		return "", false, fmt.Errorf("settings: get %s: %w", key, err)
	}
	e := v.(entry)
	return e.Value, e.Found, nil
}

// All returns every setting keyed by name. The map is the caller's to modify.
func (s *Store) All(ctx context.Context) (map[string]string, error) {
	if data, hit := s.cachedRaw(ctx, allKey); hit {
		all, err := cache.Unmarshal[map[string]string](data)
		if err == nil {
			return all, nil
		}
		s.log.Warn().Err(err).Str("key", allKey).Msg("Discarding undecodable cached settings")
	}

	v, err, _ := s.group.Do(allKey, func() (any, error) {
		rows, err := s.q.All(ctx, selectAll)
		if err != nil {
			return nil, err
		}
		all := make(map[string]string, len(rows))
		for _, row := range rows {
			all[text(row["key"])] = text(row["value"])
		}
		if data, err := cache.Marshal(all); err == nil {
			s.storeRaw(ctx, allKey, data)
		}
		return all, nil
	})
	if err != nil {
		return nil, fmt.Errorf("settings: list: %w", err)
	}
	return maps.Clone(v.(map[string]string)), nil
}

// Keys returns the setting names in order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	all, err := s.All(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Set inserts or replaces key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyKey
	}

	if _, err := s.q.Run(ctx, upsert, key, value, s.now().UTC().Format(timestampLayout)); err != nil {
		return fmt.Errorf("settings: set %s: %w", key, err)
	}
	s.invalidate(ctx, key)
	return nil
}

// Delete removes key and reports whether it existed.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return false, ErrEmptyKey
	}

	res, err := s.q.Run(ctx, deleteOne, key)
	if err != nil {
		return false, fmt.Errorf("settings: delete %s: %w", key, err)
	}
	s.invalidate(ctx, key)
	return res.RowsAffected() > 0, nil
}

func (s *Store) cached(ctx context.Context, key string) (entry, bool) {
	data, hit := s.cachedRaw(ctx, key)
	if !hit {
		return entry{}, false
	}
	e, err := cache.Unmarshal[entry](data)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Discarding undecodable cached setting")
		return entry{}, false
	}
	return e, true
}

// cachedRaw treats every cache failure as a miss.
func (s *Store) cachedRaw(ctx context.Context, key string) ([]byte, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			s.log.Warn().Err(err).Str("key", key).Msg("Settings cache read failed")
		}
		return nil, false
	}
	return data, true
}

func (s *Store) store(ctx context.Context, key string, e entry) {
	data, err := cache.Marshal(e)
	if err != nil {
		return
	}
	s.storeRaw(ctx, key, data)
}

func (s *Store) storeRaw(ctx context.Context, key string, data []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Settings cache write failed")
	}
}

func (s *Store) invalidate(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, keyPrefix+key, allKey); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("Settings cache invalidation failed")
	}
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
