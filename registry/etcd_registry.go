// Package registry provides the etcd-based implementation of the Registry interface.
//
// Players are stored one key each:
//
//	Key:   /admin-rpc/players/{PlayerID}
//	Value: JSON-encoded PlayerInstance
//
// Entries registered with a TTL are bound to a lease that is kept alive for as
// long as this process runs; if it dies the entry disappears with the lease.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

const etcdPrefix = "/admin-rpc/players/"

// EtcdRegistry implements the Registry interface using etcd v3.
type EtcdRegistry struct {
	client *clientv3.Client // Thread-safe, shared across goroutines
}

// NewEtcdRegistry creates a new registry connected to the given etcd endpoints.
func NewEtcdRegistry(endpoints []string, dialTimeout time.Duration) (*EtcdRegistry, error) {
	c, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &EtcdRegistry{client: c}, nil
}

// Register stores the player, attaching a renewed lease when ttl > 0.
//
// leaseID stays local so several goroutines can share one EtcdRegistry.
func (r *EtcdRegistry) Register(ctx context.Context, instance PlayerInstance, ttl int64) error {
	if instance.PlayerID == "" {
		return fmt.Errorf("player id is required")
	}
	val, err := json.Marshal(instance)
	if err != nil {
		return err
	}

	if ttl <= 0 {
		_, err = r.client.Put(ctx, etcdPrefix+instance.PlayerID, string(val))
		return err
	}

	lease, err := r.client.Grant(ctx, ttl)
	if err != nil {
		return err
	}
	if _, err := r.client.Put(ctx, etcdPrefix+instance.PlayerID, string(val), clientv3.WithLease(lease.ID)); err != nil {
		return err
	}

	// Renew for the life of the client, not of this request
	ch, err := r.client.KeepAlive(context.Background(), lease.ID)
	if err != nil {
		return err
	}
	go func() {
		for range ch {
		}
	}()
	return nil
}

func (r *EtcdRegistry) Deregister(ctx context.Context, playerID string) error {
	_, err := r.client.Delete(ctx, etcdPrefix+playerID)
	return err
}

func (r *EtcdRegistry) Lookup(ctx context.Context, playerID string) (PlayerInstance, error) {
	resp, err := r.client.Get(ctx, etcdPrefix+playerID)
	if err != nil {
		return PlayerInstance{}, err
	}
	if len(resp.Kvs) == 0 {
		return PlayerInstance{}, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
	}
	var instance PlayerInstance
	if err := json.Unmarshal(resp.Kvs[0].Value, &instance); err != nil {
		return PlayerInstance{}, fmt.Errorf("corrupt registry entry for %s: %w", playerID, err)
	}
	return instance, nil
}

// List returns all registered players, skipping malformed entries.
func (r *EtcdRegistry) List(ctx context.Context) ([]PlayerInstance, error) {
	resp, err := r.client.Get(ctx, etcdPrefix, clientv3.WithPrefix())
	if err != nil {
		return nil, err
	}

	instances := make([]PlayerInstance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var instance PlayerInstance
		if err := json.Unmarshal(kv.Value, &instance); err != nil {
			continue
		}
		instances = append(instances, instance)
	}
	sort.Slice(instances, func(i, j int) bool {
		return instances[i].PlayerID < instances[j].PlayerID
	})
	return instances, nil
}

func (r *EtcdRegistry) Close() error {
	return r.client.Close()
}
