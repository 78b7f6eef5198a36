package matcher

import (
	"fmt"
	"strings"
	"sync"

	"welfare-scheme-engine/internal/models"
)

// resultCache memoizes full matching runs keyed by profile
// fingerprint. It is unbounded and has no TTL; UpdateSchemes and
// ClearCache are the only invalidation points.
type resultCache struct {
	mu      sync.RWMutex
	entries map[string][]models.MatchResult
	hits    int64
	misses  int64
}

func newResultCache() *resultCache {
	return &resultCache{entries: make(map[string][]models.MatchResult)}
}

// cacheKey builds a deterministic fingerprint of the profile fields and
// run options that influence the result.
func cacheKey(user *models.UserProfile, opts MatchOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "age=%d|gender=%s|state=%s|category=%s|income=%d|occupation=%s",
		user.Age,
		strings.ToLower(user.Gender),
		strings.ToLower(user.State),
		strings.ToLower(user.Category),
		user.AnnualIncome,
		strings.ToLower(user.Occupation),
	)
	fmt.Fprintf(&b, "|bpl=%t|farmer=%t|student=%t|disability=%t",
		user.IsBPL, user.IsFarmer, user.IsStudent, user.Disability)
	fmt.Fprintf(&b, "|max=%d|min=%d|cat=%s|type=%s",
		opts.MaxResults, opts.MinScore,
		strings.ToLower(opts.Category), strings.ToLower(opts.Type))
	return b.String()
}

func (c *resultCache) get(key string) ([]models.MatchResult, bool) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()

	c.mu.Lock()
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()

	if !ok {
		return nil, false
	}
	return cloneResults(cached), true
}

func (c *resultCache) put(key string, results []models.MatchResult) {
	cloned := cloneResults(results)
	c.mu.Lock()
	c.entries[key] = cloned
	c.mu.Unlock()
}

func (c *resultCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string][]models.MatchResult)
	c.mu.Unlock()
}

// CacheStats reports result cache usage.
type CacheStats struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

func (c *resultCache) stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return CacheStats{
		Entries: len(c.entries),
		Hits:    c.hits,
		Misses:  c.misses,
	}
}

func cloneResults(results []models.MatchResult) []models.MatchResult {
	out := make([]models.MatchResult, len(results))
	for i, r := range results {
		out[i] = r.Clone()
	}
	return out
}
