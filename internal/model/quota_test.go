package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuotaAvailable(t *testing.T) {
	q := Quota{TotalCapacity: 30, Occupied: 12}
	assert.Equal(t, uint32(18), q.Available())

	q.Occupied = 30
	assert.Equal(t, uint32(0), q.Available())

	// A capacity cut below occupancy should never happen, but Available
	// must not underflow if it does.
	q.Occupied = 31
	assert.Equal(t, uint32(0), q.Available())
}

func TestQuotaOccupancyPercentage(t *testing.T) {
	q := Quota{TotalCapacity: 40, Occupied: 10}
	assert.InDelta(t, 0.25, q.OccupancyPercentage(), 1e-9)

	q.Occupied = 40
	assert.InDelta(t, 1.0, q.OccupancyPercentage(), 1e-9)

	q = Quota{TotalCapacity: 0, Occupied: 0}
	assert.Zero(t, q.OccupancyPercentage(), "zero capacity must not divide by zero")
}

func TestBucketKeyString(t *testing.T) {
	a := BucketKey{Level: "1ro_basico", Parallel: "A", Shift: "AM", AcademicYear: "2026"}
	b := BucketKey{Level: "1ro_basico", Parallel: "A", Shift: "AM", AcademicYear: "2026"}
	assert.Equal(t, a.String(), b.String(), "equal keys must share a lock identity")

	c := a
	c.Parallel = "B"
	assert.NotEqual(t, a.String(), c.String())

	d := a
	d.Specialty = "informatica"
	assert.NotEqual(t, a.String(), d.String())
}

func TestQuotaKeyRoundTrip(t *testing.T) {
	q := Quota{Level: "4to_bachillerato", Parallel: "A", Shift: "PM", Specialty: "mecanica", AcademicYear: "2026"}
	k := q.Key()
	assert.Equal(t, q.Level, k.Level)
	assert.Equal(t, q.Parallel, k.Parallel)
	assert.Equal(t, q.Shift, k.Shift)
	assert.Equal(t, q.Specialty, k.Specialty)
	assert.Equal(t, q.AcademicYear, k.AcademicYear)
}
