package service

import (
	"context"
	"fmt"

	"github.com/iliyamo/school-admissions/internal/model"
)

// QuotaAdminService carries the administrative quota operations that need
// more than a plain store call.  Capacity edits and deletion guard the
// occupancy invariant; force-deletion withdraws the seat holders through
// the regular transition path so counters and applications stay in step.
type QuotaAdminService struct {
	quotas      QuotaStore
	apps        ApplicationStore
	transitions *TransitionService
}

// NewQuotaAdminService wires the admin operations.
func NewQuotaAdminService(quotas QuotaStore, apps ApplicationStore, transitions *TransitionService) *QuotaAdminService {
	return &QuotaAdminService{quotas: quotas, apps: apps, transitions: transitions}
}

// UpdateCapacity changes a bucket's total capacity by id.  Shrinking below
// current occupancy fails with repository.ErrCapacityBelowOccupancy.
func (s *QuotaAdminService) UpdateCapacity(ctx context.Context, id uint64, newTotal uint32) (*model.Quota, error) {
	q, err := s.quotas.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.quotas.SetCapacity(ctx, q.Key(), newTotal)
}

// Delete removes a bucket.  While seats are occupied it fails with
// repository.ErrConflict unless force is set, in which case every admitted
// application holding a seat in the bucket is withdrawn first.
func (s *QuotaAdminService) Delete(ctx context.Context, id uint64, force bool) error {
	q, err := s.quotas.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if force {
		holders, err := s.apps.ListAdmittedByQuota(ctx, q.ID)
		if err != nil {
			return err
		}
		for i := range holders {
			if _, err := s.transitions.RequestTransition(ctx, holders[i].ID, model.StatusWithdrawn, ""); err != nil {
				return fmt.Errorf("force-release application %d: %w", holders[i].ID, err)
			}
		}
	}
	return s.quotas.Delete(ctx, q.Key())
}
