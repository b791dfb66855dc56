/*
Package lock provides best-effort TTL mutual exclusion keyed by string.

PURPOSE:
  The request service serializes conflicting operations (two creations for
  the same member, two decisions on the same request) through a Locker.
  Locks are advisory and always expire: a crashed holder blocks others for
  at most the TTL, never forever.

IMPLEMENTATIONS:
  - Memory: in-process, for tests and single-node deployments
  - Redis:  SET NX PX with token-checked release, for multi-node deployments

KEY SHAPES (by convention of the callers):
  create:<workspace>:<member>   guards request creation and member edits
  request:<request>             guards decisions on one request
*/
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock could not be taken before the
// context expired.
var ErrNotAcquired = errors.New("lock: not acquired")

// Handle proves ownership of an acquired lock. Release with a stale handle
// (the TTL fired and someone else holds the key) is a silent no-op.
type Handle struct {
	Key   string
	Token string
}

// Locker acquires and releases keyed TTL locks. Acquire polls until the
// lock is free or ctx is done; it never holds the key past ttl.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Handle, error)
	Release(ctx context.Context, h Handle) error
}

// CreateKey is the lock key guarding request creation for one member.
func CreateKey(workspace, member string) string {
	return "create:" + workspace + ":" + member
}

// RequestKey is the lock key guarding decisions on one request.
func RequestKey(request string) string {
	return "request:" + request
}
