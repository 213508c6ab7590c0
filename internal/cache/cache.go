package cache

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultTTL   = 600 * time.Second
	DefaultL1TTL = 5 * time.Second

	FamilyWeekGoals = "weekGoals"
	FamilyForecast  = "forecast"
)

// Cache is implemented by every driver. Drivers never fail the caller: on a
// backend problem Get reports a miss and writes are dropped.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	// Set stores the value; ttl <= 0 uses the driver default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	// DeletePrefix removes every key starting with prefix and returns how many were found.
	DeletePrefix(ctx context.Context, prefix string) int
	Stats() Stats
	Close() error
}

type TierStats struct {
	Hits    uint64 `json:"hits"`
	Misses  uint64 `json:"misses"`
	Errors  uint64 `json:"errors"`
	Entries int64  `json:"entries"`
}

func (t TierStats) HitRate() float64 {
	return hitRate(t.Hits, t.Misses)
}

type Stats struct {
	Driver string `json:"driver"`
	TierStats
	// L1 and L2 are only set by the layered driver.
	L1 *TierStats `json:"l1,omitempty"`
	L2 *TierStats `json:"l2,omitempty"`
}

func hitRate(hits, misses uint64) float64 {
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

func WeekGoalsKey(routineID string, week int) string {
	return fmt.Sprintf("%s:%s:%d", FamilyWeekGoals, routineID, week)
}

func ForecastKey(routineID string, version int) string {
	return fmt.Sprintf("%s:%s:v%d", FamilyForecast, routineID, version)
}

// RoutinePrefixes are the key prefixes holding data derived from a routine.
// The trailing separator keeps routine "1" from matching routine "12".
func RoutinePrefixes(routineID string) []string {
	return []string{
		FamilyWeekGoals + ":" + routineID + ":",
		FamilyForecast + ":" + routineID + ":",
	}
}

// Family returns the key family, i.e. the part before the first separator.
func Family(key string) string {
	if i := strings.IndexByte(key, ':'); i > 0 {
		return key[:i]
	}
	return key
}

func ttlOrDefault(ttl, def time.Duration) time.Duration {
	if ttl <= 0 {
		return def
	}
	return ttl
}
