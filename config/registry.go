package config

import (
	"context"
	"fmt"
	"time"

	"admin-rpc/registry"
)

// OpenRegistry builds the configured player registry. The memory backend is
// seeded from Players; the etcd backend is used as found.
func (c *Config) OpenRegistry(ctx context.Context) (registry.Registry, error) {
	switch c.Registry.Backend {
	case RegistryEtcd:
		reg, err := registry.NewEtcdRegistry(c.Registry.EtcdEndpoints, time.Duration(c.Registry.DialTimeoutSeconds)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("connect to etcd: %w", err)
		}
		return reg, nil
	case RegistryMemory:
		reg := registry.NewMemoryRegistry()
		for id, port := range c.Players {
			if err := reg.Register(ctx, registry.PlayerInstance{PlayerID: id, AdminPort: port}, 0); err != nil {
				return nil, err
			}
		}
		return reg, nil
	default:
		return nil, fmt.Errorf("unknown registry backend %q", c.Registry.Backend)
	}
}
