package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

const (
	DriverMemory   = "memory"
	DriverExternal = "external"
	DriverLayered  = "layered"
)

var ErrExternalStoreMissing = errors.New("cache driver needs an external store client")

type ProviderParams struct {
	Driver string
	// Layering promotes the external driver to the layered one.
	Layering        bool
	DefaultTTL      time.Duration
	L1TTL           time.Duration
	MemorySizeBytes int
	Namespace       string
	// ExternalStore is required by the external and layered drivers only.
	ExternalStore redis.Cmdable
}

// Provider is the single cache entry point, created once at startup and
// passed to every consumer.
type Provider struct {
	cache  Cache
	loader *Loader

	familiesMu sync.RWMutex
	families   map[string]*familyCounter
}

type familyCounter struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

type FamilyStats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

func (f FamilyStats) HitRate() float64 {
	return hitRate(f.Hits, f.Misses)
}

// NewProvider selects the driver described by params.
func NewProvider(params ProviderParams) (*Provider, error) {
	driver := strings.ToLower(strings.TrimSpace(params.Driver))
	if driver == "" {
		driver = DriverMemory
	}
	if driver == DriverExternal && params.Layering {
		driver = DriverLayered
	}

	var c Cache
	switch driver {
	case DriverMemory:
		c = NewMemory(params.MemorySizeBytes, params.DefaultTTL)
	case DriverExternal:
		if params.ExternalStore == nil {
			return nil, fmt.Errorf("driver %s: %w", driver, ErrExternalStoreMissing)
		}
		c = NewRedis(params.ExternalStore, params.Namespace, params.DefaultTTL)
	case DriverLayered:
		if params.ExternalStore == nil {
			return nil, fmt.Errorf("driver %s: %w", driver, ErrExternalStoreMissing)
		}
		c = NewLayered(
			NewMemory(params.MemorySizeBytes, params.L1TTL),
			NewRedis(params.ExternalStore, params.Namespace, params.DefaultTTL),
			params.L1TTL,
		)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", params.Driver)
	}

	log.Debugf("cache provider using driver [%s]", driver)
	return NewProviderWithCache(c), nil
}

func NewProviderWithCache(c Cache) *Provider {
	return &Provider{
		cache:    c,
		loader:   NewLoader(),
		families: make(map[string]*familyCounter),
	}
}

func (p *Provider) Cache() Cache {
	return p.cache
}

func (p *Provider) Loader() *Loader {
	return p.loader
}

func (p *Provider) family(name string) *familyCounter {
	p.familiesMu.RLock()
	fc, ok := p.families[name]
	p.familiesMu.RUnlock()
	if ok {
		return fc
	}

	p.familiesMu.Lock()
	defer p.familiesMu.Unlock()
	if fc, ok = p.families[name]; !ok {
		fc = &familyCounter{}
		p.families[name] = fc
	}
	return fc
}

func (p *Provider) FamilyStats(name string) FamilyStats {
	fc := p.family(name)
	return FamilyStats{Hits: fc.hits.Load(), Misses: fc.misses.Load()}
}

type ProviderStats struct {
	Cache     Stats       `json:"cache"`
	Loader    LoaderStats `json:"loader"`
	WeekGoals FamilyStats `json:"weekGoals"`
	Forecast  FamilyStats `json:"forecast"`
}

func (p *Provider) Stats() ProviderStats {
	return ProviderStats{
		Cache:     p.cache.Stats(),
		Loader:    p.loader.Stats(),
		WeekGoals: p.FamilyStats(FamilyWeekGoals),
		Forecast:  p.FamilyStats(FamilyForecast),
	}
}

// InvalidateRoutine drops every cached value derived from the routine, and
// detaches computations for it that are still running.
func (p *Provider) InvalidateRoutine(ctx context.Context, routineID string) int {
	prefixes := RoutinePrefixes(routineID)
	p.loader.Invalidate(prefixes...)
	n := 0
	for _, prefix := range prefixes {
		n += p.cache.DeletePrefix(ctx, prefix)
	}
	log.Tracef("cache invalidated for routine [%s]: %d keys", routineID, n)
	return n
}

func (p *Provider) Close(ctx context.Context) error {
	return multierr.Combine(
		p.loader.Shutdown(ctx),
		p.cache.Close(),
	)
}

// GetOrCompute returns the cached value for key, or computes, stores and
// returns it. hit reports whether the value came from the cache.
func GetOrCompute[T any](
	ctx context.Context,
	p *Provider,
	key string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (value T, hit bool, err error) {
	fc := p.family(Family(key))

	if raw, ok := p.cache.Get(ctx, key); ok {
		decodeErr := json.Unmarshal(raw, &value)
		if decodeErr == nil {
			fc.hits.Add(1)
			return value, true, nil
		}
		log.Warnf("cache, decode [%s], dropping entry: %s", key, decodeErr)
		p.cache.Delete(ctx, key)
	}
	fc.misses.Add(1)

	raw, _, err := p.loader.Do(
		ctx,
		key,
		func(ctx context.Context) ([]byte, error) {
			v, err := compute(ctx)
			if err != nil {
				return nil, err
			}
			return json.Marshal(v)
		},
		func(raw []byte) {
			p.cache.Set(context.WithoutCancel(ctx), key, raw, ttl)
		},
	)
	if err != nil {
		var zero T
		return zero, false, err
	}

	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, false, fmt.Errorf("decode computed [%s]: %w", key, err)
	}
	return value, false, nil
}
