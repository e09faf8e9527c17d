package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/school-admissions/internal/model"
)

// MemoryQuotaStore is an in-memory quota store with the same semantics as
// QuotaRepo.  It backs the engine's tests and local development without a
// MySQL instance.  Every method is safe for concurrent use; AdjustOccupancyTx
// performs its check-then-act under the store lock so the oversell guard is
// atomic here too.  The tx argument is ignored.
type MemoryQuotaStore struct {
	mu     sync.RWMutex
	nextID uint64
	byKey  map[string]*model.Quota
}

// NewMemoryQuotaStore returns an empty in-memory quota store.
func NewMemoryQuotaStore() *MemoryQuotaStore {
	return &MemoryQuotaStore{byKey: make(map[string]*model.Quota)}
}

func copyQuota(q *model.Quota) *model.Quota {
	c := *q
	return &c
}

// Create inserts a new bucket with zero occupancy.
func (s *MemoryQuotaStore) Create(ctx context.Context, q *model.Quota) (*model.Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := q.Key().String()
	if _, ok := s.byKey[k]; ok {
		return nil, ErrConflict
	}
	s.nextID++
	stored := copyQuota(q)
	stored.ID = s.nextID
	stored.Occupied = 0
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byKey[k] = stored
	return copyQuota(stored), nil
}

// GetByID fetches a bucket by its numeric id.
func (s *MemoryQuotaStore) GetByID(ctx context.Context, id uint64) (*model.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range s.byKey {
		if q.ID == id {
			return copyQuota(q), nil
		}
	}
	return nil, ErrQuotaNotFound
}

// GetByKey fetches a bucket by its composite key.
func (s *MemoryQuotaStore) GetByKey(ctx context.Context, key model.BucketKey) (*model.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	q, ok := s.byKey[key.String()]
	if !ok {
		return nil, ErrQuotaNotFound
	}
	return copyQuota(q), nil
}

// AdjustOccupancyTx applies occupied += delta while the result stays within
// [0, total_capacity].  The tx argument exists to satisfy the store
// contract and is ignored.
func (s *MemoryQuotaStore) AdjustOccupancyTx(ctx context.Context, tx *sql.Tx, key model.BucketKey, delta int) (*model.Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.byKey[key.String()]
	if !ok {
		return nil, ErrQuotaNotFound
	}
	next := int64(q.Occupied) + int64(delta)
	if next < 0 {
		return nil, ErrNegativeOccupancy
	}
	if next > int64(q.TotalCapacity) {
		return nil, ErrCapacityExceeded
	}
	q.Occupied = uint32(next)
	q.UpdatedAt = time.Now().UTC()
	return copyQuota(q), nil
}

// SetCapacity changes a bucket's total capacity, refusing to shrink it
// below current occupancy.
func (s *MemoryQuotaStore) SetCapacity(ctx context.Context, key model.BucketKey, newTotal uint32) (*model.Quota, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.byKey[key.String()]
	if !ok {
		return nil, ErrQuotaNotFound
	}
	if q.Occupied > newTotal {
		return nil, ErrCapacityBelowOccupancy
	}
	q.TotalCapacity = newTotal
	q.UpdatedAt = time.Now().UTC()
	return copyQuota(q), nil
}

// List returns buckets matching the filter, ordered by level, shift and
// parallel.
func (s *MemoryQuotaStore) List(ctx context.Context, f model.QuotaFilter) ([]model.Quota, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Quota, 0)
	for _, q := range s.byKey {
		if f.Level != "" && q.Level != f.Level {
			continue
		}
		if f.Parallel != "" && q.Parallel != f.Parallel {
			continue
		}
		if f.Shift != "" && q.Shift != f.Shift {
			continue
		}
		if f.Specialty != nil && q.Specialty != *f.Specialty {
			continue
		}
		if f.AcademicYear != "" && q.AcademicYear != f.AcademicYear {
			continue
		}
		out = append(out, *copyQuota(q))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Level != out[j].Level {
			return out[i].Level < out[j].Level
		}
		if out[i].Shift != out[j].Shift {
			return out[i].Shift < out[j].Shift
		}
		return out[i].Parallel < out[j].Parallel
	})
	return out, nil
}

// ListBySelection returns every bucket serving a selection regardless of
// parallel, ordered by parallel name ascending.
func (s *MemoryQuotaStore) ListBySelection(ctx context.Context, sel model.Selection) ([]model.Quota, error) {
	return s.List(ctx, model.QuotaFilter{
		Level:        sel.Level,
		Shift:        sel.Shift,
		Specialty:    &sel.Specialty,
		AcademicYear: sel.AcademicYear,
	})
}

// Delete removes a bucket, refusing while any seat is occupied.
func (s *MemoryQuotaStore) Delete(ctx context.Context, key model.BucketKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.byKey[key.String()]
	if !ok {
		return ErrQuotaNotFound
	}
	if q.Occupied > 0 {
		return ErrConflict
	}
	delete(s.byKey, key.String())
	return nil
}

// MemoryApplicationStore is the in-memory counterpart of ApplicationRepo.
type MemoryApplicationStore struct {
	mu     sync.RWMutex
	nextID uint64
	byID   map[uint64]*model.Application
}

// NewMemoryApplicationStore returns an empty in-memory application store.
func NewMemoryApplicationStore() *MemoryApplicationStore {
	return &MemoryApplicationStore{byID: make(map[uint64]*model.Application)}
}

func copyApplication(a *model.Application) *model.Application {
	c := *a
	if a.Parallel != nil {
		p := *a.Parallel
		c.Parallel = &p
	}
	if a.QuotaID != nil {
		q := *a.QuotaID
		c.QuotaID = &q
	}
	return &c
}

// Create inserts a new application in DRAFT state.
func (s *MemoryApplicationStore) Create(ctx context.Context, a *model.Application) (*model.Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	stored := copyApplication(a)
	stored.ID = s.nextID
	stored.Status = model.StatusDraft
	stored.Parallel = nil
	stored.QuotaID = nil
	now := time.Now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byID[stored.ID] = stored
	return copyApplication(stored), nil
}

// GetByID fetches an application by id.
func (s *MemoryApplicationStore) GetByID(ctx context.Context, id uint64) (*model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return nil, ErrApplicationNotFound
	}
	return copyApplication(a), nil
}

// GetByIDForUpdateTx behaves like GetByID; the store has no row locks, the
// transition service's per-application serialization happens at the bucket
// critical section and the status guard instead.
func (s *MemoryApplicationStore) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Application, error) {
	return s.GetByID(ctx, id)
}

// UpdateStatusTx persists a status change with its parallel assignment and
// quota reference.  The tx argument is ignored.
func (s *MemoryApplicationStore) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.Status, parallel *string, quotaID *uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return ErrApplicationNotFound
	}
	a.Status = status
	if parallel != nil {
		p := *parallel
		a.Parallel = &p
	} else {
		a.Parallel = nil
	}
	if quotaID != nil {
		q := *quotaID
		a.QuotaID = &q
	} else {
		a.QuotaID = nil
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// ListByApplicant returns all applications filed by a user, newest first.
func (s *MemoryApplicationStore) ListByApplicant(ctx context.Context, applicantID uint64) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Application, 0)
	for _, a := range s.byID {
		if a.ApplicantID == applicantID {
			out = append(out, *copyApplication(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// ListAdmittedByQuota returns every application holding a seat in a bucket.
func (s *MemoryApplicationStore) ListAdmittedByQuota(ctx context.Context, quotaID uint64) ([]model.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Application, 0)
	for _, a := range s.byID {
		if a.Status == model.StatusAdmitted && a.QuotaID != nil && *a.QuotaID == quotaID {
			out = append(out, *copyApplication(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
