package model

import "time"

// Status is the closed set of lifecycle states an application can be in.
// The original admission workflow kept status as a free string; here it is
// an explicit enumeration so that illegal values cannot be represented.
type Status string

const (
	StatusDraft              Status = "DRAFT"
	StatusSubmitted          Status = "SUBMITTED"
	StatusUnderReview        Status = "UNDER_REVIEW"
	StatusCorrectionRequired Status = "CORRECTION_REQUIRED"
	StatusAdmitted           Status = "ADMITTED"
	StatusRejected           Status = "REJECTED"
	StatusWithdrawn          Status = "WITHDRAWN"
)

// transitions is the edge table of the application state machine.  A status
// maps to the set of statuses it may move to.  REJECTED and WITHDRAWN have
// no outgoing edges; ADMITTED can only be reversed to one of them.
var transitions = map[Status][]Status{
	StatusDraft:              {StatusSubmitted},
	StatusSubmitted:          {StatusUnderReview, StatusWithdrawn},
	StatusUnderReview:        {StatusCorrectionRequired, StatusAdmitted, StatusRejected, StatusWithdrawn},
	StatusCorrectionRequired: {StatusSubmitted, StatusWithdrawn},
	StatusAdmitted:           {StatusRejected, StatusWithdrawn},
	StatusRejected:           {},
	StatusWithdrawn:          {},
}

// Valid reports whether s is a member of the status enumeration.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no edge leaves s.  ADMITTED is not terminal
// because an administrator may reverse it.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the edge s -> target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// OccupiesSeat reports whether an application in status s holds a seat in
// some quota bucket.
func (s Status) OccupiesSeat() bool {
	return s == StatusAdmitted
}

// Application represents a row in the `applications` table.  The selection
// fields mirror the applicant's choice; Parallel and QuotaID are set
// together when an admission decision fixes the bucket, and cleared
// together when the application leaves ADMITTED.
//
// Invariant: QuotaID is non-nil iff Status == ADMITTED, and then it
// references the quota whose occupancy counts this application.
//
// Fields:
//  ID           – primary key identifier.
//  ApplicantID  – user who filed the application.
//  StudentName  – name of the prospective student.
//  Level        – requested grade level.
//  Shift        – requested shift.
//  Specialty    – requested specialty (empty when not applicable).
//  AcademicYear – academic year applied for.
//  Parallel     – parallel assigned at admission (nullable).
//  Status       – current lifecycle state.
//  QuotaID      – quota bucket holding this application's seat (nullable).
//  CreatedAt    – creation timestamp.
//  UpdatedAt    – last update timestamp.
type Application struct {
	ID           uint64    `json:"id"`
	ApplicantID  uint64    `json:"applicant_id"`
	StudentName  string    `json:"student_name"`
	Level        string    `json:"level"`
	Shift        string    `json:"shift"`
	Specialty    string    `json:"specialty,omitempty"`
	AcademicYear string    `json:"academic_year"`
	Parallel     *string   `json:"parallel,omitempty"`
	Status       Status    `json:"status"`
	QuotaID      *uint64   `json:"quota_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Selection returns the applicant's chosen tuple, including the assigned
// parallel when one has been fixed.
func (a *Application) Selection() Selection {
	sel := Selection{
		Level:        a.Level,
		Shift:        a.Shift,
		Specialty:    a.Specialty,
		AcademicYear: a.AcademicYear,
	}
	if a.Parallel != nil {
		sel.Parallel = *a.Parallel
	}
	return sel
}
