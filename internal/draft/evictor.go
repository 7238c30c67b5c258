// evictor.go houses the eviction loop for Cache.  Every EvictInterval it
// scans the map and removes:
//
//   - sessions idle longer than idleTTL
//   - least-recently-used sessions when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package draft

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/yanizio/profileform/internal/metrics"
)

func (c *Cache) evictLoop() {
	for {
		select {
		case <-c.done:
			return
		case now := <-c.evictTicker.C:
			c.Evict(now)
		}
	}
}

// Evict runs one idle pass and one LRU pass as of now.  It returns the
// number of sessions removed.
func (c *Cache) Evict(now time.Time) int {
	var removed int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	if c.idleTTL > 0 {
		c.m.Range(func(key, value any) bool {
			ent := value.(*entry)
			idle := time.Duration(now.UnixNano() - atomic.LoadInt64(&ent.lastSeen))
			if idle > c.idleTTL && c.drop(key.(string), "idle") {
				removed++
				c.log.Debugw("draft session evicted", "reason", "idle", "idle", idle.Truncate(time.Second))
			}
			return true
		})
	}

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	count := c.Len()
	if c.maxEntries > 0 && count > c.maxEntries {
		type kv struct {
			key string
			at  int64
		}
		var all []kv
		c.m.Range(func(key, value any) bool {
			ent := value.(*entry)
			all = append(all, kv{key: key.(string), at: atomic.LoadInt64(&ent.lastSeen)})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		for i := 0; i < len(all)-c.maxEntries; i++ {
			if c.drop(all[i].key, "lru") {
				removed++
				c.log.Debugw("draft session evicted", "reason", "lru")
			}
		}
	}

	return removed
}

func (c *Cache) drop(id, reason string) bool {
	if _, ok := c.m.LoadAndDelete(id); !ok {
		return false
	}
	c.size.Add(-1)
	metrics.DraftEvictTotal.WithLabelValues(reason).Inc()
	metrics.ActiveDrafts.Dec()
	return true
}
