package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
)

func TestAvailabilityAggregatesAcrossParallels(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	coord := NewAllocationCoordinator(store)
	av := NewAvailabilityService(NewQuotaResolver(store))
	ctx := context.Background()

	keyA := newBucket(t, store, "A", 3)
	newBucket(t, store, "B", 2)

	_, err := coord.Occupy(ctx, keyA)
	require.NoError(t, err)
	_, err = coord.Occupy(ctx, keyA)
	require.NoError(t, err)

	res, err := av.Check(ctx, model.Selection{Level: "1ro_basico", Shift: "AM", AcademicYear: "2026"})
	require.NoError(t, err)
	assert.True(t, res.Available)
	assert.Equal(t, uint32(5), res.TotalQuotas)
	assert.Equal(t, uint32(2), res.UsedQuotas)
	assert.Equal(t, uint32(3), res.RemainingQuotas)
}

func TestAvailabilityFullSelection(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	coord := NewAllocationCoordinator(store)
	av := NewAvailabilityService(NewQuotaResolver(store))
	ctx := context.Background()

	key := newBucket(t, store, "A", 1)
	_, err := coord.Occupy(ctx, key)
	require.NoError(t, err)

	res, err := av.Check(ctx, model.Selection{Level: "1ro_basico", Shift: "AM", AcademicYear: "2026"})
	require.NoError(t, err)
	assert.False(t, res.Available)
	assert.Equal(t, uint32(0), res.RemainingQuotas)
}

func TestAvailabilityUnknownSelection(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	av := NewAvailabilityService(NewQuotaResolver(store))

	_, err := av.Check(context.Background(), model.Selection{Level: "9no", Shift: "AM", AcademicYear: "2026"})
	assert.ErrorIs(t, err, repository.ErrNoMatchingQuota)
}

func TestAvailabilityIsReadOnly(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	av := NewAvailabilityService(NewQuotaResolver(store))
	ctx := context.Background()
	key := newBucket(t, store, "A", 4)

	sel := model.Selection{Level: "1ro_basico", Shift: "AM", AcademicYear: "2026"}
	first, err := av.Check(ctx, sel)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := av.Check(ctx, sel)
		require.NoError(t, err)
		assert.Equal(t, first, again, "repeated checks must not change state")
	}

	q, err := store.GetByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), q.Occupied)
}
