package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

type memoryEntry struct {
	instance  PlayerInstance
	expiresAt time.Time // zero means never
}

// MemoryRegistry keeps players in process memory. It backs static
// configuration and tests.
type MemoryRegistry struct {
	mu      sync.RWMutex
	players map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		players: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (r *MemoryRegistry) Register(ctx context.Context, instance PlayerInstance, ttl int64) error {
	if instance.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	entry := memoryEntry{instance: instance}
	if ttl > 0 {
		entry.expiresAt = r.now().Add(time.Duration(ttl) * time.Second)
	}
	r.mu.Lock()
	r.players[instance.PlayerID] = entry
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Deregister(ctx context.Context, playerID string) error {
	r.mu.Lock()
	delete(r.players, playerID)
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) Lookup(ctx context.Context, playerID string) (PlayerInstance, error) {
	r.mu.RLock()
	entry, ok := r.players[playerID]
	r.mu.RUnlock()
	if !ok || r.expired(entry) {
		return PlayerInstance{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	return entry.instance, nil
}

func (r *MemoryRegistry) List(ctx context.Context) ([]PlayerInstance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	instances := make([]PlayerInstance, 0, len(r.players))
	for _, entry := range r.players {
		if r.expired(entry) {
			continue
		}
		instances = append(instances, entry.instance)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].PlayerID < instances[j].PlayerID
	})
	return instances, nil
}

func (r *MemoryRegistry) Close() error { return nil }

func (r *MemoryRegistry) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !r.now().Before(entry.expiresAt)
}
