// Package cache provides the API response cache and the poster file store.
package cache

import (
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"
)

type entry struct {
	data    any
	expires time.Time
	created time.Time
}

// Memory is a TTL cache for API responses. When full, the oldest tenth of
// the entries is evicted.
type Memory struct {
	mu         sync.Mutex
	defaultTTL time.Duration
	maxSize    int
	items      map[string]entry
	lastSweep  time.Time
}

// MemoryStats is a point-in-time snapshot of the cache.
type MemoryStats struct {
	TotalItems int
	MaxSize    int
	DefaultTTL time.Duration
}

// NewMemory returns a cache with the given default TTL and size cap.
func NewMemory(defaultTTL time.Duration, maxSize int) *Memory {
	return &Memory{
		defaultTTL: defaultTTL,
		maxSize:    maxSize,
		items:      make(map[string]entry),
		lastSweep:  time.Now(),
	}
}

// Set stores data under key. ttl <= 0 uses the default TTL.
func (m *Memory) Set(key string, data any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = m.defaultTTL
	}
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictLocked()
	m.items[key] = entry{data: data, expires: now.Add(ttl), created: now}
}

// Get returns the cached data for key, or false when absent or expired.
func (m *Memory) Get(key string) (any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	e, ok := m.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expires) {
		delete(m.items, key)
		return nil, false
	}
	return e.data, true
}

// Delete removes key, reporting whether it was present.
func (m *Memory) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[key]; ok {
		delete(m.items, key)
		return true
	}
	return false
}

// Clear removes all entries.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]entry)
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.items)
}

// Stats returns a snapshot of the cache state.
func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return MemoryStats{TotalItems: len(m.items), MaxSize: m.maxSize, DefaultTTL: m.defaultTTL}
}

// sweepLocked drops expired entries, at most once per minute.
func (m *Memory) sweepLocked() {
	now := time.Now()
	if now.Sub(m.lastSweep) < time.Minute {
		return
	}
	for k, e := range m.items {
		if now.After(e.expires) {
			delete(m.items, k)
		}
	}
	m.lastSweep = now
}

// evictLocked removes the oldest tenth of entries when the cache is full.
func (m *Memory) evictLocked() {
	if m.maxSize <= 0 || len(m.items) < m.maxSize {
		return
	}
	type aged struct {
		key     string
		created time.Time
	}
	all := make([]aged, 0, len(m.items))
	for k, e := range m.items {
		all = append(all, aged{k, e.created})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].created.Before(all[j].created) })
	n := len(all) / 10
	if n < 1 {
		n = 1
	}
	for _, a := range all[:n] {
		delete(m.items, a.key)
	}
}

// Key builders for the Bangumi API responses.

func CalendarKey() string { return "bangumi:calendar" }

func SearchKey(keyword, typ string, limit int) string {
	if typ != "" {
		typ = ":" + typ
	}
	return fmt.Sprintf("bangumi:search:%s%s:limit%d", keyword, typ, limit)
}

func SubjectKey(id int) string {
	return "bangumi:subject:" + strconv.Itoa(id) + ":detail"
}

func EpisodesKey(id int, epType *int) string {
	k := "bangumi:subject:" + strconv.Itoa(id) + ":episodes"
	if epType != nil {
		k += ":type" + strconv.Itoa(*epType)
	}
	return k
}

func CollectionKey(user string, subjectType int, collectionType string) string {
	if collectionType != "" {
		collectionType = ":" + collectionType
	}
	return fmt.Sprintf("bangumi:user:%s:collections:type%d%s", user, subjectType, collectionType)
}
