package service

import (
	"context"
	"errors"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
)

// QuotaResolver maps an application's selection to quota buckets.  It has
// two modes: allocation, which demands one fully-specified bucket, and
// aggregate, which enumerates every parallel serving the selection for
// read-only availability queries.
type QuotaResolver struct {
	quotas QuotaStore
}

// NewQuotaResolver returns a resolver over the given store.
func NewQuotaResolver(quotas QuotaStore) *QuotaResolver {
	return &QuotaResolver{quotas: quotas}
}

// ResolveForAllocation returns the concrete bucket key for a selection.
// The admissions workflow must have assigned a parallel beforehand;
// without one the resolver refuses with repository.ErrAmbiguousParallel
// rather than guessing.  A selection pointing at no configured bucket is
// repository.ErrNoMatchingQuota.
func (r *QuotaResolver) ResolveForAllocation(ctx context.Context, sel model.Selection) (model.BucketKey, error) {
	if sel.Parallel == "" {
		return model.BucketKey{}, repository.ErrAmbiguousParallel
	}
	key := model.BucketKey{
		Level:        sel.Level,
		Parallel:     sel.Parallel,
		Shift:        sel.Shift,
		Specialty:    sel.Specialty,
		AcademicYear: sel.AcademicYear,
	}
	if _, err := r.quotas.GetByKey(ctx, key); err != nil {
		if errors.Is(err, repository.ErrQuotaNotFound) {
			return model.BucketKey{}, repository.ErrNoMatchingQuota
		}
		return model.BucketKey{}, err
	}
	return key, nil
}

// ResolveAll returns every bucket serving the selection, ordered by
// parallel name ascending.  The order is for deterministic display only;
// allocation never picks a bucket from this list.  When the selection
// names a parallel the result is narrowed to it.
func (r *QuotaResolver) ResolveAll(ctx context.Context, sel model.Selection) ([]model.Quota, error) {
	quotas, err := r.quotas.List(ctx, model.QuotaFilter{
		Level:        sel.Level,
		Parallel:     sel.Parallel,
		Shift:        sel.Shift,
		Specialty:    &sel.Specialty,
		AcademicYear: sel.AcademicYear,
	})
	if err != nil {
		return nil, err
	}
	if len(quotas) == 0 {
		return nil, repository.ErrNoMatchingQuota
	}
	return quotas, nil
}
