package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
)

func seedParallels(t *testing.T, store *repository.MemoryQuotaStore, parallels ...string) {
	t.Helper()
	for _, p := range parallels {
		_, err := store.Create(context.Background(), &model.Quota{
			Level:         "1ro_basico",
			Parallel:      p,
			Shift:         "AM",
			AcademicYear:  "2026",
			TotalCapacity: 10,
		})
		require.NoError(t, err)
	}
}

func TestResolveForAllocationRequiresParallel(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	seedParallels(t, store, "A")
	r := NewQuotaResolver(store)

	_, err := r.ResolveForAllocation(context.Background(), model.Selection{
		Level: "1ro_basico", Shift: "AM", AcademicYear: "2026",
	})
	assert.ErrorIs(t, err, repository.ErrAmbiguousParallel)
}

func TestResolveForAllocationFindsBucket(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	seedParallels(t, store, "A", "B")
	r := NewQuotaResolver(store)

	key, err := r.ResolveForAllocation(context.Background(), model.Selection{
		Level: "1ro_basico", Shift: "AM", AcademicYear: "2026", Parallel: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "B", key.Parallel)
	assert.Equal(t, "1ro_basico", key.Level)
}

func TestResolveForAllocationUnknownBucket(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	seedParallels(t, store, "A")
	r := NewQuotaResolver(store)

	_, err := r.ResolveForAllocation(context.Background(), model.Selection{
		Level: "1ro_basico", Shift: "AM", AcademicYear: "2026", Parallel: "Z",
	})
	assert.ErrorIs(t, err, repository.ErrNoMatchingQuota)
}

func TestResolveAllEnumeratesParallelsInOrder(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	seedParallels(t, store, "C", "A", "B")
	r := NewQuotaResolver(store)

	quotas, err := r.ResolveAll(context.Background(), model.Selection{
		Level: "1ro_basico", Shift: "AM", AcademicYear: "2026",
	})
	require.NoError(t, err)
	require.Len(t, quotas, 3)
	assert.Equal(t, "A", quotas[0].Parallel)
	assert.Equal(t, "B", quotas[1].Parallel)
	assert.Equal(t, "C", quotas[2].Parallel)
}

func TestResolveAllNarrowsToNamedParallel(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	seedParallels(t, store, "A", "B")
	r := NewQuotaResolver(store)

	quotas, err := r.ResolveAll(context.Background(), model.Selection{
		Level: "1ro_basico", Shift: "AM", AcademicYear: "2026", Parallel: "B",
	})
	require.NoError(t, err)
	require.Len(t, quotas, 1)
	assert.Equal(t, "B", quotas[0].Parallel)
}

func TestResolveAllEmptySelection(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	seedParallels(t, store, "A")
	r := NewQuotaResolver(store)

	_, err := r.ResolveAll(context.Background(), model.Selection{
		Level: "2do_basico", Shift: "AM", AcademicYear: "2026",
	})
	assert.ErrorIs(t, err, repository.ErrNoMatchingQuota)
}

func TestResolveAllSeparatesSpecialties(t *testing.T) {
	store := repository.NewMemoryQuotaStore()
	ctx := context.Background()
	for _, sp := range []string{"informatica", "mecanica"} {
		_, err := store.Create(ctx, &model.Quota{
			Level:         "4to_bachillerato",
			Parallel:      "A",
			Shift:         "AM",
			Specialty:     sp,
			AcademicYear:  "2026",
			TotalCapacity: 10,
		})
		require.NoError(t, err)
	}
	r := NewQuotaResolver(store)

	quotas, err := r.ResolveAll(ctx, model.Selection{
		Level: "4to_bachillerato", Shift: "AM", Specialty: "informatica", AcademicYear: "2026",
	})
	require.NoError(t, err)
	require.Len(t, quotas, 1)
	assert.Equal(t, "informatica", quotas[0].Specialty)

	// A selection without specialty matches only specialty-less buckets.
	_, err = r.ResolveAll(ctx, model.Selection{
		Level: "4to_bachillerato", Shift: "AM", AcademicYear: "2026",
	})
	assert.ErrorIs(t, err, repository.ErrNoMatchingQuota)
}
