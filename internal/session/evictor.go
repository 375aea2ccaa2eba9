// evictor.go houses the eviction loop for Store.  Every EvictInterval it
// scans the map and removes:
//
//   - visitors idle longer than idleTTL
//   - least-recently-used visitors when map size exceeds maxEntries
//
// Each eviction event is logged and updates Prometheus counters.
package session

import (
	"sort"
	"sync/atomic"
	"time"
)

func (s *Store) evictLoop() {
	defer close(s.done)
	defer s.evictTicker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case t := <-s.evictTicker.C:
			s.evict(t)
		}
	}
}

// evict runs one idle pass and one LRU pass as of now.
func (s *Store) evict(now time.Time) {
	nowNano := now.UnixNano()
	var count int

	// ----------------------------------------------------------------
	// Idle eviction pass
	// ----------------------------------------------------------------
	s.m.Range(func(key, value any) bool {
		ent := value.(*entry)
		idle := time.Duration(nowNano - atomic.LoadInt64(&ent.lastSeen))
		if idle > s.idleTTL {
			if s.remove(key, ent, "idle") {
				s.log.Debugw("visitor evicted", "visitor", key, "idle", idle.Truncate(time.Second))
			}
			return true
		}
		count++
		return true
	})

	// ----------------------------------------------------------------
	// LRU eviction pass
	// ----------------------------------------------------------------
	if s.maxEntries > 0 && count > s.maxEntries {
		type kv struct {
			key string
			ent *entry
			at  int64
		}
		var all []kv
		s.m.Range(func(key, value any) bool {
			ent := value.(*entry)
			all = append(all, kv{key: key.(string), ent: ent, at: atomic.LoadInt64(&ent.lastSeen)})
			return true
		})
		sort.Slice(all, func(i, j int) bool { return all[i].at < all[j].at })
		evicted := 0
		for i := 0; i < len(all)-s.maxEntries; i++ {
			if s.remove(all[i].key, all[i].ent, "lru") {
				evicted++
			}
		}
		if evicted > 0 {
			s.log.Infow("visitors evicted (LRU pressure)", "count", evicted, "max", s.maxEntries)
		}
	}
}
