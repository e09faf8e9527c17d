package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/repository"
)

func newAdminEngine() (*engine, *QuotaAdminService) {
	e := newEngine()
	return e, NewQuotaAdminService(e.quotas, e.apps, e.transitions)
}

func (e *engine) admitInto(t *testing.T, parallel string, applicant uint64) *model.Application {
	t.Helper()
	a := e.addApplication(t, applicant, "Student")
	e.advance(t, a.ID, model.StatusSubmitted, model.StatusUnderReview)
	out, err := e.transitions.RequestTransition(context.Background(), a.ID, model.StatusAdmitted, parallel)
	require.NoError(t, err)
	return out
}

func TestUpdateCapacityGrow(t *testing.T) {
	e, admin := newAdminEngine()
	q := e.addQuota(t, "A", 5)

	updated, err := admin.UpdateCapacity(context.Background(), q.ID, 8)
	require.NoError(t, err)
	assert.Equal(t, uint32(8), updated.TotalCapacity)
}

func TestUpdateCapacityCannotDropBelowOccupancy(t *testing.T) {
	e, admin := newAdminEngine()
	q := e.addQuota(t, "A", 3)
	e.admitInto(t, "A", 1)
	e.admitInto(t, "A", 2)

	_, err := admin.UpdateCapacity(context.Background(), q.ID, 1)
	assert.ErrorIs(t, err, repository.ErrCapacityBelowOccupancy)

	// Shrinking exactly to occupancy is allowed.
	updated, err := admin.UpdateCapacity(context.Background(), q.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), updated.TotalCapacity)
	assert.Equal(t, uint32(2), updated.Occupied)
}

func TestUpdateCapacityUnknownQuota(t *testing.T) {
	_, admin := newAdminEngine()
	_, err := admin.UpdateCapacity(context.Background(), 42, 10)
	assert.ErrorIs(t, err, repository.ErrQuotaNotFound)
}

func TestDeleteEmptyQuota(t *testing.T) {
	e, admin := newAdminEngine()
	q := e.addQuota(t, "A", 3)

	require.NoError(t, admin.Delete(context.Background(), q.ID, false))
	_, err := e.quotas.GetByID(context.Background(), q.ID)
	assert.ErrorIs(t, err, repository.ErrQuotaNotFound)
}

func TestDeleteOccupiedQuotaRefusedWithoutForce(t *testing.T) {
	e, admin := newAdminEngine()
	q := e.addQuota(t, "A", 3)
	e.admitInto(t, "A", 1)

	err := admin.Delete(context.Background(), q.ID, false)
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestForceDeleteWithdrawsHolders(t *testing.T) {
	e, admin := newAdminEngine()
	q := e.addQuota(t, "A", 3)
	ctx := context.Background()

	a := e.admitInto(t, "A", 1)
	b := e.admitInto(t, "A", 2)

	require.NoError(t, admin.Delete(ctx, q.ID, true))

	_, err := e.quotas.GetByID(ctx, q.ID)
	assert.ErrorIs(t, err, repository.ErrQuotaNotFound)

	for _, id := range []uint64{a.ID, b.ID} {
		app, getErr := e.apps.GetByID(ctx, id)
		require.NoError(t, getErr)
		assert.Equal(t, model.StatusWithdrawn, app.Status)
		assert.Nil(t, app.QuotaID)
	}
}
