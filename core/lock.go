package core

import (
	"context"
	"errors"
)

// ErrLockNotAcquired is returned when a lock could not be taken before the context expired.
var ErrLockNotAcquired = errors.New("lock not acquired")

// Locker serializes work on a named resource across callers (and processes, depending on the implementation).
type Locker interface {
	// Lock blocks until key is held or ctx is done. The returned func releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func CourseChaptersLockKey(courseID string) string {
	return "course:" + courseID + ":chapters"
}
