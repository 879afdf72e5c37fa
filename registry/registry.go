// Package registry records which admin port each player's conductor listens on,
// so callers can address a player by id instead of by port.
package registry

import (
	"context"
	"errors"
)

var ErrPlayerNotFound = errors.New("player not registered")

// PlayerInstance locates one conductor admin socket.
type PlayerInstance struct {
	PlayerID  string `json:"player_id"`
	Host      string `json:"host,omitempty"` // Empty means the client's configured default host
	AdminPort int    `json:"admin_port"`
}

type Registry interface {
	// Register adds or replaces a player. ttl is in seconds; 0 keeps the entry until Deregister.
	Register(ctx context.Context, instance PlayerInstance, ttl int64) error
	Deregister(ctx context.Context, playerID string) error
	// Lookup returns ErrPlayerNotFound for unknown players.
	Lookup(ctx context.Context, playerID string) (PlayerInstance, error)
	List(ctx context.Context) ([]PlayerInstance, error)
	Close() error
}
