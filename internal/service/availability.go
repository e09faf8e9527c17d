package service

import (
	"context"

	"github.com/iliyamo/school-admissions/internal/model"
)

// AvailabilityService answers "is there room" for a selection without
// entering the allocation lock path.  The answer is a snapshot aggregated
// across every matching parallel; by the time an admission is attempted a
// reported seat may already be taken, and only the coordinator's guarded
// occupy decides the real outcome.
type AvailabilityService struct {
	resolver *QuotaResolver
}

// NewAvailabilityService returns a service over the given resolver.
func NewAvailabilityService(resolver *QuotaResolver) *AvailabilityService {
	return &AvailabilityService{resolver: resolver}
}

// Check sums capacity and occupancy across the buckets serving the
// selection.  Selections with no configured bucket surface
// repository.ErrNoMatchingQuota from the resolver.
func (s *AvailabilityService) Check(ctx context.Context, sel model.Selection) (*model.AvailabilityResult, error) {
	quotas, err := s.resolver.ResolveAll(ctx, sel)
	if err != nil {
		return nil, err
	}
	var res model.AvailabilityResult
	for i := range quotas {
		res.TotalQuotas += quotas[i].TotalCapacity
		res.UsedQuotas += quotas[i].Occupied
		res.RemainingQuotas += quotas[i].Available()
	}
	res.Available = res.RemainingQuotas > 0
	return &res, nil
}
