package fieldservice

import (
	"strings"
	"sync"

	"github.com/hallgard/furrow/internal/checksum"
	"github.com/hallgard/furrow/internal/models"
)

// decoded is one memoized decode result: geometry plus the notes that were
// raised while producing it. Notes are part of the cached value so a cache
// hit reports the same conditions as the original decode.
type decoded struct {
	field models.Field
	notes []models.FieldNote
}

// decodeCache memoizes per-field decode results. Keys embed the source
// checksums, so a changed file misses naturally; the watcher additionally
// purges whole sessions to keep the map from accumulating stale keys.
type decodeCache struct {
	mu      sync.RWMutex
	entries map[string]decoded
}

func newDecodeCache() *decodeCache {
	return &decodeCache{entries: make(map[string]decoded)}
}

// cacheKey binds a decode result to the session, the field, and the exact
// bytes of both sources. SumFile returns "" for a missing file, which is a
// valid (distinct) identity for the absent-source state.
func cacheKey(sessionID string, key models.FieldKey, contourPath, patternsPath string) string {
	return strings.Join([]string{
		sessionID,
		key.String(),
		checksum.SumFile(contourPath),
		checksum.SumFile(patternsPath),
	}, "|")
}

func (c *decodeCache) get(key string) (decoded, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.entries[key]
	return d, ok
}

func (c *decodeCache) put(key string, d decoded) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = d
}

// purgeSession drops every cached decode of one session.
func (c *decodeCache) purgeSession(sessionID string) {
	prefix := sessionID + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
}

// purgeAll drops everything, used when the watcher sees source changes.
func (c *decodeCache) purgeAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]decoded)
}
