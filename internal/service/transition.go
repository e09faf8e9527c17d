package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/school-admissions/internal/model"
	"github.com/iliyamo/school-admissions/internal/queue"
	"github.com/iliyamo/school-admissions/internal/repository"
)

// EventPublisher delivers status-change events to the notification side of
// the system.  Delivery and retry are its concern; the transition service
// only emits after a successful commit and logs a failed publish.
type EventPublisher interface {
	PublishStatusChanged(ctx context.Context, ev queue.StatusChangedEvent) error
}

// TransitionService enforces the application state machine.  It is the
// sole writer of an application's status and quota reference, and it only
// touches occupancy by delegating to the allocation coordinator inside the
// same transition.  When the stores are SQL-backed the status write and the
// counter write share one transaction, so a transition either fully commits
// or leaves nothing behind.
type TransitionService struct {
	db       *sql.DB // nil when the stores are not SQL-backed
	apps     ApplicationStore
	quotas   QuotaStore
	resolver *QuotaResolver
	alloc    *AllocationCoordinator
	events   EventPublisher
}

// NewTransitionService wires the state machine with its collaborators.
// db may be nil for non-SQL stores; events may be nil to disable emission.
func NewTransitionService(db *sql.DB, apps ApplicationStore, quotas QuotaStore, resolver *QuotaResolver, alloc *AllocationCoordinator, events EventPublisher) *TransitionService {
	if apps == nil || quotas == nil || resolver == nil || alloc == nil {
		panic("nil dependency passed to NewTransitionService")
	}
	return &TransitionService{db: db, apps: apps, quotas: quotas, resolver: resolver, alloc: alloc, events: events}
}

// RequestTransition moves an application to target.  For admissions the
// caller supplies the parallel fixed by the decision; it is ignored on
// every other edge.  On any error the application keeps its prior status
// and no occupancy change is observable.
func (s *TransitionService) RequestTransition(ctx context.Context, applicationID uint64, target model.Status, parallel string) (*model.Application, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", repository.ErrInvalidTransition, target)
	}

	var tx *sql.Tx
	if s.db != nil {
		var err error
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, err
		}
	}
	committed := false
	defer func() {
		if tx != nil && !committed {
			_ = tx.Rollback()
		}
	}()

	app, err := s.apps.GetByIDForUpdateTx(ctx, tx, applicationID)
	if err != nil {
		return nil, err
	}
	from := app.Status
	if !from.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: cannot move from %s to %s", repository.ErrInvalidTransition, from, target)
	}

	newParallel := app.Parallel
	newQuotaID := app.QuotaID
	switch {
	case target.OccupiesSeat():
		sel := app.Selection()
		if parallel != "" {
			sel.Parallel = parallel
		}
		key, err := s.resolver.ResolveForAllocation(ctx, sel)
		if err != nil {
			return nil, err
		}
		quota, err := s.alloc.OccupyTx(ctx, tx, key)
		if err != nil {
			return nil, err
		}
		p := key.Parallel
		newParallel = &p
		id := quota.ID
		newQuotaID = &id
	case from.OccupiesSeat():
		// Leaving ADMITTED gives the seat back before the status changes;
		// both writes ride the same transaction.
		if app.QuotaID == nil {
			log.Printf("ALLOCATION CONSISTENCY FAILURE: application %d admitted without quota reference", app.ID)
			return nil, fmt.Errorf("%w: application %d has no quota reference", repository.ErrConsistencyFatal, app.ID)
		}
		quota, err := s.quotas.GetByID(ctx, *app.QuotaID)
		if err != nil {
			return nil, fmt.Errorf("%w: quota %d for application %d: %v", repository.ErrConsistencyFatal, *app.QuotaID, app.ID, err)
		}
		if _, err := s.alloc.ReleaseTx(ctx, tx, quota.Key()); err != nil {
			return nil, err
		}
		newQuotaID = nil
	}

	if err := s.apps.UpdateStatusTx(ctx, tx, app.ID, target, newParallel, newQuotaID); err != nil {
		return nil, err
	}
	if tx != nil {
		if err := tx.Commit(); err != nil {
			return nil, err
		}
	}
	committed = true

	updated, err := s.apps.GetByID(ctx, app.ID)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, updated, from, target)
	return updated, nil
}

func (s *TransitionService) emit(ctx context.Context, app *model.Application, from, to model.Status) {
	if s.events == nil {
		return
	}
	ev := queue.StatusChangedEvent{
		ApplicationID: app.ID,
		FromStatus:    string(from),
		ToStatus:      string(to),
		Level:         app.Level,
		Shift:         app.Shift,
		Specialty:     app.Specialty,
		AcademicYear:  app.AcademicYear,
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if app.Parallel != nil {
		ev.Parallel = *app.Parallel
	}
	if err := s.events.PublishStatusChanged(ctx, ev); err != nil {
		log.Printf("status event publish failed for application %d: %v", app.ID, err)
	}
}
