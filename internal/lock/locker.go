// Package lock serializes ticket creation per (guild, requester).
package lock

import (
	"context"
	"errors"
)

// ErrTimeout is returned when a lock could not be acquired in time.
var ErrTimeout = errors.New("lock: timed out waiting for lock")

// Locker hands out mutually exclusive keyed locks.
type Locker interface {
	// Acquire blocks until key is held or ctx ends. The returned release
	// func is safe to call once.
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// CreationKey is the lock key for a requester's ticket creation.
func CreationKey(guildID, requesterID string) string {
	return "tickets:create:" + guildID + ":" + requesterID
}
