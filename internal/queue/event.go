// Package queue defines message payloads exchanged over the message broker
// together with the publisher and the background consumer.
package queue

// StatusChangedEvent is published on every successful application status
// transition.  It carries enough context for downstream consumers (email
// notifications, dashboards, audit) to act without querying the primary
// database.
type StatusChangedEvent struct {
	ApplicationID uint64 `json:"application_id"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	Level         string `json:"level"`
	Parallel      string `json:"parallel,omitempty"`
	Shift         string `json:"shift"`
	Specialty     string `json:"specialty,omitempty"`
	AcademicYear  string `json:"academic_year"`
	OccurredAt    string `json:"occurred_at"`
}
