package driven

import (
	"context"
	"time"
)

// DistributedLock serialises index writers across replicas sharing one backend.
type DistributedLock interface {
	// Acquire takes name for at most ttl. It returns false without error when
	// another holder has it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release drops name. Releasing an expired or unheld lock is not an error.
	Release(ctx context.Context, name string) error

	// Extend pushes the expiry of a held lock. Advisory locks have no TTL and
	// treat this as a hold check.
	Extend(ctx context.Context, name string, ttl time.Duration) error

	Ping(ctx context.Context) error
}
