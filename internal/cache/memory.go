package cache

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
)

var _ Cache = (*Memory)(nil)

// freecache refuses entries larger than 1/1024 of its size, the floor keeps
// a full forecast or timeline payload (up to 16KB) cacheable.
const minMemorySize = 16 * 1024 * 1024

// Memory is the process local driver, backed by freecache. Expiry has a one
// second granularity.
type Memory struct {
	cache      *freecache.Cache
	defaultTTL time.Duration

	hits   atomic.Uint64
	misses atomic.Uint64
	errs   atomic.Uint64
}

func NewMemory(sizeBytes int, defaultTTL time.Duration) *Memory {
	return newMemory(freecache.NewCache(normalizeSize(sizeBytes)), defaultTTL)
}

// NewMemoryWithTimer lets tests drive expiry with a fake clock.
func NewMemoryWithTimer(sizeBytes int, defaultTTL time.Duration, timer freecache.Timer) *Memory {
	return newMemory(freecache.NewCacheCustomTimer(normalizeSize(sizeBytes), timer), defaultTTL)
}

func newMemory(fc *freecache.Cache, defaultTTL time.Duration) *Memory {
	return &Memory{
		cache:      fc,
		defaultTTL: ttlOrDefault(defaultTTL, DefaultTTL),
	}
}

func normalizeSize(sizeBytes int) int {
	if sizeBytes < minMemorySize {
		return minMemorySize
	}
	return sizeBytes
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool) {
	val, err := m.cache.Get([]byte(key))
	if err != nil {
		m.misses.Add(1)
		return nil, false
	}
	m.hits.Add(1)
	return val, true
}

func (m *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) {
	if err := m.cache.Set([]byte(key), value, ttlSeconds(ttlOrDefault(ttl, m.defaultTTL))); err != nil {
		m.errs.Add(1)
		log.Errorf("memory cache, set [%s] (%d bytes): %s", key, len(value), err)
	}
}

func (m *Memory) Delete(_ context.Context, key string) {
	m.cache.Del([]byte(key))
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) int {
	p := []byte(prefix)
	var keys [][]byte
	it := m.cache.NewIterator()
	for entry := it.Next(); entry != nil; entry = it.Next() {
		if bytes.HasPrefix(entry.Key, p) {
			keys = append(keys, entry.Key)
		}
	}

	for _, k := range keys {
		m.cache.Del(k)
	}
	return len(keys)
}

func (m *Memory) tierStats() TierStats {
	return TierStats{
		Hits:    m.hits.Load(),
		Misses:  m.misses.Load(),
		Errors:  m.errs.Load(),
		Entries: m.cache.EntryCount(),
	}
}

func (m *Memory) Stats() Stats {
	return Stats{Driver: DriverMemory, TierStats: m.tierStats()}
}

func (m *Memory) Close() error {
	m.cache.Clear()
	return nil
}

// ttlSeconds rounds up, so a sub second ttl still lives for one second.
func ttlSeconds(ttl time.Duration) int {
	secs := int((ttl + time.Second - 1) / time.Second)
	if secs < 1 {
		return 1
	}
	return secs
}
