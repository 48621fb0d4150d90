package generation

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// SemaphoreAdmission is a process-wide provider-call limit. Waiters are
// served in FIFO order so no provider or scene is starved.
type SemaphoreAdmission struct {
	sem   *semaphore.Weighted
	limit int64
}

// NewSemaphoreAdmission creates a limiter admitting at most limit concurrent calls.
func NewSemaphoreAdmission(limit int64) *SemaphoreAdmission {
	if limit < 1 {
		limit = 1
	}
	return &SemaphoreAdmission{sem: semaphore.NewWeighted(limit), limit: limit}
}

// Acquire blocks until a slot is free or ctx is done.
func (a *SemaphoreAdmission) Acquire(ctx context.Context) error {
	return a.sem.Acquire(ctx, 1)
}

// Release frees a slot.
func (a *SemaphoreAdmission) Release() {
	a.sem.Release(1)
}

// Limit returns the configured capacity.
func (a *SemaphoreAdmission) Limit() int64 {
	return a.limit
}

var _ Admission = (*SemaphoreAdmission)(nil)
