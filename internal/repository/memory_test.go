package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-admissions/internal/model"
)

func TestMemoryQuotaStoreCreateRejectsDuplicateBucket(t *testing.T) {
	s := NewMemoryQuotaStore()
	ctx := context.Background()
	q := &model.Quota{Level: "1ro_basico", Parallel: "A", Shift: "AM", AcademicYear: "2026", TotalCapacity: 10}

	created, err := s.Create(ctx, q)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Zero(t, created.Occupied, "new buckets start empty")

	_, err = s.Create(ctx, q)
	assert.ErrorIs(t, err, ErrConflict)

	// Same tuple in a different year is a different bucket.
	other := *q
	other.AcademicYear = "2027"
	_, err = s.Create(ctx, &other)
	assert.NoError(t, err)
}

func TestMemoryQuotaStoreAdjustBounds(t *testing.T) {
	s := NewMemoryQuotaStore()
	ctx := context.Background()
	q, err := s.Create(ctx, &model.Quota{Level: "1ro_basico", Parallel: "A", Shift: "AM", AcademicYear: "2026", TotalCapacity: 1})
	require.NoError(t, err)
	key := q.Key()

	_, err = s.AdjustOccupancyTx(ctx, nil, key, -1)
	assert.ErrorIs(t, err, ErrNegativeOccupancy)

	got, err := s.AdjustOccupancyTx(ctx, nil, key, 1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), got.Occupied)

	_, err = s.AdjustOccupancyTx(ctx, nil, key, 1)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestMemoryQuotaStoreListFilters(t *testing.T) {
	s := NewMemoryQuotaStore()
	ctx := context.Background()
	seed := []model.Quota{
		{Level: "1ro_basico", Parallel: "A", Shift: "AM", AcademicYear: "2026", TotalCapacity: 10},
		{Level: "1ro_basico", Parallel: "B", Shift: "PM", AcademicYear: "2026", TotalCapacity: 10},
		{Level: "4to_bachillerato", Parallel: "A", Shift: "AM", Specialty: "informatica", AcademicYear: "2026", TotalCapacity: 10},
	}
	for i := range seed {
		_, err := s.Create(ctx, &seed[i])
		require.NoError(t, err)
	}

	all, err := s.List(ctx, model.QuotaFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	am, err := s.List(ctx, model.QuotaFilter{Shift: "AM"})
	require.NoError(t, err)
	assert.Len(t, am, 2)

	// nil Specialty means unfiltered; pointer to empty matches only
	// buckets without a specialty.
	empty := ""
	noSpec, err := s.List(ctx, model.QuotaFilter{Specialty: &empty})
	require.NoError(t, err)
	assert.Len(t, noSpec, 2)

	info := "informatica"
	withSpec, err := s.List(ctx, model.QuotaFilter{Specialty: &info})
	require.NoError(t, err)
	require.Len(t, withSpec, 1)
	assert.Equal(t, "4to_bachillerato", withSpec[0].Level)
}

func TestMemoryQuotaStoreDeleteGuardsOccupancy(t *testing.T) {
	s := NewMemoryQuotaStore()
	ctx := context.Background()
	q, err := s.Create(ctx, &model.Quota{Level: "1ro_basico", Parallel: "A", Shift: "AM", AcademicYear: "2026", TotalCapacity: 2})
	require.NoError(t, err)

	_, err = s.AdjustOccupancyTx(ctx, nil, q.Key(), 1)
	require.NoError(t, err)
	assert.ErrorIs(t, s.Delete(ctx, q.Key()), ErrConflict)

	_, err = s.AdjustOccupancyTx(ctx, nil, q.Key(), -1)
	require.NoError(t, err)
	assert.NoError(t, s.Delete(ctx, q.Key()))
	assert.ErrorIs(t, s.Delete(ctx, q.Key()), ErrQuotaNotFound)
}

func TestMemoryApplicationStoreLifecycleFields(t *testing.T) {
	s := NewMemoryApplicationStore()
	ctx := context.Background()

	a, err := s.Create(ctx, &model.Application{ApplicantID: 7, StudentName: "Ana", Level: "1ro_basico", Shift: "AM", AcademicYear: "2026"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusDraft, a.Status)
	assert.Nil(t, a.Parallel)
	assert.Nil(t, a.QuotaID)

	p := "A"
	qid := uint64(3)
	require.NoError(t, s.UpdateStatusTx(ctx, nil, a.ID, model.StatusAdmitted, &p, &qid))

	got, err := s.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAdmitted, got.Status)
	require.NotNil(t, got.QuotaID)
	assert.Equal(t, qid, *got.QuotaID)

	admitted, err := s.ListAdmittedByQuota(ctx, qid)
	require.NoError(t, err)
	require.Len(t, admitted, 1)
	assert.Equal(t, a.ID, admitted[0].ID)

	mine, err := s.ListByApplicant(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	assert.ErrorIs(t, s.UpdateStatusTx(ctx, nil, 999, model.StatusSubmitted, nil, nil), ErrApplicationNotFound)
}
