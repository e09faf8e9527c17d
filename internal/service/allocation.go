package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
)

// AllocationCoordinator is the only code path allowed to change a quota's
// occupancy.  Each bucket key owns its own critical section, so admissions
// for different buckets never contend; within one bucket, occupy and
// release calls are serialized and the Nth caller to complete observes the
// outcomes of the previous N-1 exactly.  On top of the mutex, the store's
// conditional update re-checks the capacity bound, so the no-oversell
// invariant holds even for stores shared with other processes.
type AllocationCoordinator struct {
	quotas QuotaStore

	mu      sync.Mutex
	buckets map[string]*sync.Mutex
}

// NewAllocationCoordinator returns a coordinator over the given store.
func NewAllocationCoordinator(quotas QuotaStore) *AllocationCoordinator {
	return &AllocationCoordinator{
		quotas:  quotas,
		buckets: make(map[string]*sync.Mutex),
	}
}

// bucketLock returns the mutex owning the bucket's critical section,
// creating it on first use.  Locks are never removed; the set of buckets
// per academic year is small and bounded by configuration.
func (c *AllocationCoordinator) bucketLock(key model.BucketKey) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.buckets[key.String()]
	if !ok {
		l = &sync.Mutex{}
		c.buckets[key.String()] = l
	}
	return l
}

// OccupyTx consumes one seat in the bucket.  The check-then-act runs as a
// single guarded update inside the bucket's critical section; when the
// bucket is full it returns repository.ErrCapacityExceeded and the counter
// is untouched.  The tx argument scopes the write to the caller's
// transaction so the seat and the application status commit together.
func (c *AllocationCoordinator) OccupyTx(ctx context.Context, tx *sql.Tx, key model.BucketKey) (*model.Quota, error) {
	l := c.bucketLock(key)
	l.Lock()
	defer l.Unlock()
	return c.quotas.AdjustOccupancyTx(ctx, tx, key, 1)
}

// Occupy is OccupyTx without an enclosing transaction.
func (c *AllocationCoordinator) Occupy(ctx context.Context, key model.BucketKey) (*model.Quota, error) {
	return c.OccupyTx(ctx, nil, key)
}

// ReleaseTx returns one seat to the bucket.  Callers invoke it exactly once
// per prior successful occupy (the transition service gates it behind
// "currently admitted with this quota reference"), so a failure here means
// the stored counter no longer matches the applications that hold seats.
// That is not a user error: it is logged loudly and wrapped as
// repository.ErrConsistencyFatal so the transition aborts.
func (c *AllocationCoordinator) ReleaseTx(ctx context.Context, tx *sql.Tx, key model.BucketKey) (*model.Quota, error) {
	l := c.bucketLock(key)
	l.Lock()
	defer l.Unlock()
	q, err := c.quotas.AdjustOccupancyTx(ctx, tx, key, -1)
	if err != nil {
		if errors.Is(err, repository.ErrNegativeOccupancy) || errors.Is(err, repository.ErrQuotaNotFound) {
			log.Printf("ALLOCATION CONSISTENCY FAILURE: release on bucket %s: %v", key, err)
			return nil, fmt.Errorf("%w: release on bucket %s: %v", repository.ErrConsistencyFatal, key, err)
		}
		return nil, err
	}
	return q, nil
}

// Release is ReleaseTx without an enclosing transaction.
func (c *AllocationCoordinator) Release(ctx context.Context, key model.BucketKey) (*model.Quota, error) {
	return c.ReleaseTx(ctx, nil, key)
}
