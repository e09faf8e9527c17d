package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/school-admissions/internal/model"
)

// ApplicationRepo provides persistence for admission applications.  Status
// and the quota reference are only written through UpdateStatusTx so that
// the seat-affecting write shares a transaction with the quota counter
// update.  All timestamp fields are stored in UTC.
type ApplicationRepo struct {
	db *sql.DB
}

// NewApplicationRepo returns a new ApplicationRepo bound to the given database.
func NewApplicationRepo(db *sql.DB) *ApplicationRepo { return &ApplicationRepo{db: db} }

// DB exposes the underlying handle for transaction management.
func (r *ApplicationRepo) DB() *sql.DB { return r.db }

const appColumns = `id, applicant_id, student_name, level, shift, specialty, academic_year, parallel, status, quota_id, created_at, updated_at`

func scanApplication(row *sql.Row) (*model.Application, error) {
	var a model.Application
	var parallel sql.NullString
	var quotaID sql.NullInt64
	err := row.Scan(&a.ID, &a.ApplicantID, &a.StudentName, &a.Level, &a.Shift, &a.Specialty,
		&a.AcademicYear, &parallel, &a.Status, &quotaID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	if parallel.Valid {
		p := parallel.String
		a.Parallel = &p
	}
	if quotaID.Valid {
		q := uint64(quotaID.Int64)
		a.QuotaID = &q
	}
	return &a, nil
}

// Create inserts a new application in DRAFT state and returns the stored row.
func (r *ApplicationRepo) Create(ctx context.Context, a *model.Application) (*model.Application, error) {
	const ins = `INSERT INTO applications (applicant_id, student_name, level, shift, specialty, academic_year, status)
	             VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, ins, a.ApplicantID, a.StudentName, a.Level, a.Shift, a.Specialty,
		a.AcademicYear, model.StatusDraft)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches an application by id.
func (r *ApplicationRepo) GetByID(ctx context.Context, id uint64) (*model.Application, error) {
	const q = `SELECT ` + appColumns + ` FROM applications WHERE id = ?`
	return scanApplication(r.db.QueryRowContext(ctx, q, id))
}

// GetByIDForUpdateTx loads an application inside a transaction and locks
// the row, serializing concurrent transitions on the same application.
func (r *ApplicationRepo) GetByIDForUpdateTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Application, error) {
	const q = `SELECT ` + appColumns + ` FROM applications WHERE id = ? FOR UPDATE`
	return scanApplication(tx.QueryRowContext(ctx, q, id))
}

// UpdateStatusTx persists a status change together with the parallel
// assignment and quota reference.  Passing nil for parallel or quotaID
// clears the column, which is exactly what leaving ADMITTED requires.  The
// caller owns the transaction; tx may be nil for standalone updates.
func (r *ApplicationRepo) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.Status, parallel *string, quotaID *uint64) error {
	const upd = `UPDATE applications SET status = ?, parallel = ?, quota_id = ? WHERE id = ?`
	var ex execer = r.db
	if tx != nil {
		ex = tx
	}
	res, err := ex.ExecContext(ctx, upd, status, parallel, quotaID, id)
	if err != nil {
		return err
	}
	if _, err := res.RowsAffected(); err != nil {
		return err
	}
	return nil
}

// ListByApplicant returns all applications filed by a user, newest first.
func (r *ApplicationRepo) ListByApplicant(ctx context.Context, applicantID uint64) ([]model.Application, error) {
	const q = `SELECT ` + appColumns + ` FROM applications WHERE applicant_id = ? ORDER BY created_at DESC`
	return r.queryList(ctx, q, applicantID)
}

// ListAdmittedByQuota returns every application currently holding a seat in
// the given bucket.  Used by the admin view and by force-release.
func (r *ApplicationRepo) ListAdmittedByQuota(ctx context.Context, quotaID uint64) ([]model.Application, error) {
	const q = `SELECT ` + appColumns + ` FROM applications WHERE quota_id = ? AND status = ? ORDER BY updated_at`
	return r.queryList(ctx, q, quotaID, model.StatusAdmitted)
}

func (r *ApplicationRepo) queryList(ctx context.Context, query string, args ...interface{}) ([]model.Application, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	apps := make([]model.Application, 0)
	for rows.Next() {
		var a model.Application
		var parallel sql.NullString
		var quotaID sql.NullInt64
		if err := rows.Scan(&a.ID, &a.ApplicantID, &a.StudentName, &a.Level, &a.Shift, &a.Specialty,
			&a.AcademicYear, &parallel, &a.Status, &quotaID, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		if parallel.Valid {
			p := parallel.String
			a.Parallel = &p
		}
		if quotaID.Valid {
			q := uint64(quotaID.Int64)
			a.QuotaID = &q
		}
		apps = append(apps, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return apps, nil
}
