package port

import (
	"context"
	"errors"

	"github.com/rl1809/acp-checkout/internal/core/domain"
)

type SessionRepository interface {
	// Get returns a copy of the stored session, or nil if none exists
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Put stores the session, replacing any previous revision. When ctx came
	// from SessionLocker.Lock, stores that support it refuse the write once
	// that lock has been lost.
	Put(ctx context.Context, session *domain.Session) error

	// Delete removes the session; deleting a missing id is not an error
	Delete(ctx context.Context, id string) error
}

type SessionLocker interface {
	// Lock blocks until the caller holds the exclusive lock for the session id
	// or ctx is done. Work done under the lock should use the returned context;
	// the returned func releases the lock.
	Lock(ctx context.Context, id string) (context.Context, func(), error)
}

// ErrLockLost is returned by a fenced write whose session lock expired or
// was taken over before the write ran.
var ErrLockLost = errors.New("session lock lost")
