package model

import (
	"fmt"
	"time"
)

// BucketKey is the composite identity of a quota bucket.  A bucket exists
// for every combination of grade level, parallel, shift and academic year
// that the school offers; Specialty is empty for levels that do not branch
// by specialty (e.g. basic education).
//
// Fields:
//  Level        – grade level identifier (e.g. "1ro_basico").
//  Parallel     – parallel/section name (e.g. "A", "B").
//  Shift        – school shift ("AM" or "PM").
//  Specialty    – optional specialty name; empty when not applicable.
//  AcademicYear – academic year the bucket belongs to (e.g. "2025").
type BucketKey struct {
	Level        string `json:"level"`
	Parallel     string `json:"parallel"`
	Shift        string `json:"shift"`
	Specialty    string `json:"specialty,omitempty"`
	AcademicYear string `json:"academic_year"`
}

// String renders the key in a stable, human-readable form.  The coordinator
// uses this as the identity of the bucket's critical section, so two keys
// must produce the same string iff they denote the same bucket.
func (k BucketKey) String() string {
	return fmt.Sprintf("%s|%s|%s|%s|%s", k.Level, k.Parallel, k.Shift, k.Specialty, k.AcademicYear)
}

// Quota represents one capacity bucket as stored in the `quotas` table.
// Occupied is the number of seats currently consumed by admitted
// applications and is only ever written through the allocation coordinator.
//
// Fields:
//  ID            – primary key identifier.
//  Level         – quotas.level.
//  Parallel      – quotas.parallel.
//  Shift         – quotas.shift.
//  Specialty     – quotas.specialty (empty when the bucket has none).
//  AcademicYear  – quotas.academic_year.
//  TotalCapacity – configured number of seats.
//  Occupied      – seats consumed; invariant 0 <= Occupied <= TotalCapacity.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type Quota struct {
	ID            uint64    `json:"id"`
	Level         string    `json:"level"`
	Parallel      string    `json:"parallel"`
	Shift         string    `json:"shift"`
	Specialty     string    `json:"specialty,omitempty"`
	AcademicYear  string    `json:"academic_year"`
	TotalCapacity uint32    `json:"total_capacity"`
	Occupied      uint32    `json:"occupied"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Key returns the bucket identity of the quota.
func (q *Quota) Key() BucketKey {
	return BucketKey{
		Level:        q.Level,
		Parallel:     q.Parallel,
		Shift:        q.Shift,
		Specialty:    q.Specialty,
		AcademicYear: q.AcademicYear,
	}
}

// Available returns the number of seats still free in the bucket.
func (q *Quota) Available() uint32 {
	if q.Occupied >= q.TotalCapacity {
		return 0
	}
	return q.TotalCapacity - q.Occupied
}

// OccupancyPercentage returns occupied/capacity in the range [0, 1].  A
// bucket with zero capacity reports 0 rather than dividing by zero.
func (q *Quota) OccupancyPercentage() float64 {
	if q.TotalCapacity == 0 {
		return 0
	}
	return float64(q.Occupied) / float64(q.TotalCapacity)
}

// QuotaFilter narrows quota listings.  Zero-valued fields are ignored.
// Specialty filtering distinguishes "not filtered" (nil) from "buckets
// without a specialty" (pointer to empty string).
type QuotaFilter struct {
	Level        string
	Parallel     string
	Shift        string
	Specialty    *string
	AcademicYear string
}

// Selection is the tuple an applicant chooses on their application.  It is
// what the resolver maps to one or more quota buckets.  Parallel is empty
// until an admission decision assigns one.
type Selection struct {
	Level        string `json:"level"`
	Shift        string `json:"shift"`
	Specialty    string `json:"specialty,omitempty"`
	AcademicYear string `json:"academic_year"`
	Parallel     string `json:"parallel,omitempty"`
}

// AvailabilityResult is the aggregate answer to "is there room" for a
// selection, summed across every parallel that matches.  It is an advisory
// snapshot: a seat reported free here may be gone by the time an admission
// is attempted.
type AvailabilityResult struct {
	Available       bool   `json:"available"`
	TotalQuotas     uint32 `json:"total_quotas"`
	UsedQuotas      uint32 `json:"used_quotas"`
	RemainingQuotas uint32 `json:"remaining_quotas"`
}
