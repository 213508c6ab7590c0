package pkg

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// VolatileResponseKeys are diagnostic top level fields that differ between a
// cache hit and a miss for the same data.
var VolatileResponseKeys = []string{"_cache", "cacheStats"}

// ContentETag hashes the JSON encoding of payload, ignoring the given top
// level keys (VolatileResponseKeys when none are given).
func ContentETag(payload any, volatileKeys ...string) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("etag, marshal payload: %w", err)
	}
	if len(volatileKeys) == 0 {
		volatileKeys = VolatileResponseKeys
	}

	if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && trimmed[0] == '{' {
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(raw, &fields); err != nil {
			return "", fmt.Errorf("etag, decode payload: %w", err)
		}
		for _, k := range volatileKeys {
			delete(fields, k)
		}
		// map keys are encoded sorted, so field order never changes the hash
		if raw, err = json.Marshal(fields); err != nil {
			return "", fmt.Errorf("etag, re-encode payload: %w", err)
		}
	}

	sum := sha256.Sum256(raw)
	return `"` + hex.EncodeToString(sum[:]) + `"`, nil
}

// MatchesIfNoneMatch reports whether the request's If-None-Match header
// names etag. Weak validators compare equal to strong ones.
func MatchesIfNoneMatch(r *http.Request, etag string) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" || etag == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" {
			return true
		}
		if strings.TrimPrefix(candidate, "W/") == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}
