// Package service implements the admission capacity engine: bucket
// resolution, the application state machine and the allocation coordinator
// that ties lifecycle transitions to quota occupancy.  Persistence is
// consumed through the store interfaces below, satisfied by the MySQL
// repositories in production and by the in-memory stores in tests.
package service

import (
	"context"
	"database/sql"

	"github.com/iliyamo/school-admissions/internal/model"
)

// QuotaStore is the persistence surface for quota buckets.
// AdjustOccupancyTx must apply its delta atomically with respect to
// concurrent callers on the same bucket: the SQL implementation uses a
// single conditional UPDATE, the in-memory one a store lock.  The tx
// argument carries the enclosing transaction on the SQL path and may be
// nil; non-transactional stores ignore it.
type QuotaStore interface {
	Create(ctx context.Context, q *model.Quota) (*model.Quota, error)
	GetByID(ctx context.Context, id uint64) (*model.Quota, error)
	GetByKey(ctx context.Context, key model.BucketKey) (*model.Quota, error)
	AdjustOccupancyTx(ctx context.Context, tx *sql.Tx, key model.BucketKey, delta int) (*model.Quota, error)
	SetCapacity(ctx context.Context, key model.BucketKey, newTotal uint32) (*model.Quota, error)
	List(ctx context.Context, f model.QuotaFilter) ([]model.Quota, error)
	ListBySelection(ctx context.Context, sel model.Selection) ([]model.Quota, error)
	Delete(ctx context.Context, key model.BucketKey) error
}

// ApplicationStore is the persistence surface for applications.  Status,
// parallel assignment and the quota reference are written together through
// UpdateStatusTx so seat-affecting transitions commit in one unit with the
// occupancy change.
type ApplicationStore interface {
	Create(ctx context.Context, a *model.Application) (*model.Application, error)
	GetByID(ctx context.Context, id uint64) (*model.Application, error)
	GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Application, error)
	UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.Status, parallel *string, quotaID *uint64) error
	ListByApplicant(ctx context.Context, applicantID uint64) ([]model.Application, error)
	ListAdmittedByQuota(ctx context.Context, quotaID uint64) ([]model.Application, error)
}
