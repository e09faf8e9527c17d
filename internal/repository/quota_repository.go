package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/school-admissions/internal/model"
)

// QuotaRepo provides persistence for quota buckets in the `quotas` table.
// The composite key (level, parallel, shift, specialty, academic_year) is
// unique; specialty is stored as an empty string rather than NULL so that
// key equality stays a plain column comparison.  The occupied counter is
// only ever changed through AdjustOccupancyTx, whose conditional UPDATE is
// the store-level guard against oversell.
type QuotaRepo struct {
	db *sql.DB
}

// NewQuotaRepo returns a new QuotaRepo bound to the given database.
func NewQuotaRepo(db *sql.DB) *QuotaRepo { return &QuotaRepo{db: db} }

// DB exposes the underlying handle so callers can open transactions that
// span quota and application writes.
func (r *QuotaRepo) DB() *sql.DB { return r.db }

const quotaColumns = `id, level, parallel, shift, specialty, academic_year, total_capacity, occupied, created_at, updated_at`

// execer is satisfied by both *sql.DB and *sql.Tx.  Repository methods that
// may run inside or outside a transaction accept it via pick().
type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func (r *QuotaRepo) pick(tx *sql.Tx) execer {
	if tx != nil {
		return tx
	}
	return r.db
}

func scanQuota(row *sql.Row) (*model.Quota, error) {
	var q model.Quota
	err := row.Scan(&q.ID, &q.Level, &q.Parallel, &q.Shift, &q.Specialty, &q.AcademicYear,
		&q.TotalCapacity, &q.Occupied, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuotaNotFound
		}
		return nil, err
	}
	return &q, nil
}

// Create inserts a new quota bucket with zero occupancy and returns the
// stored row.  A duplicate composite key surfaces as ErrConflict.
func (r *QuotaRepo) Create(ctx context.Context, q *model.Quota) (*model.Quota, error) {
	const ins = `INSERT INTO quotas (level, parallel, shift, specialty, academic_year, total_capacity, occupied)
	             VALUES (?, ?, ?, ?, ?, ?, 0)`
	res, err := r.db.ExecContext(ctx, ins, q.Level, q.Parallel, q.Shift, q.Specialty, q.AcademicYear, q.TotalCapacity)
	if err != nil {
		// 1062 is the MySQL duplicate-key error code.
		if strings.Contains(err.Error(), "1062") {
			return nil, ErrConflict
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a quota by its primary key.
func (r *QuotaRepo) GetByID(ctx context.Context, id uint64) (*model.Quota, error) {
	const q = `SELECT ` + quotaColumns + ` FROM quotas WHERE id = ?`
	return scanQuota(r.db.QueryRowContext(ctx, q, id))
}

// GetByKey fetches a quota by its composite bucket key.
func (r *QuotaRepo) GetByKey(ctx context.Context, key model.BucketKey) (*model.Quota, error) {
	const q = `SELECT ` + quotaColumns + ` FROM quotas
	           WHERE level = ? AND parallel = ? AND shift = ? AND specialty = ? AND academic_year = ?`
	return scanQuota(r.db.QueryRowContext(ctx, q, key.Level, key.Parallel, key.Shift, key.Specialty, key.AcademicYear))
}

// AdjustOccupancyTx applies occupied += delta as a single conditional
// UPDATE, succeeding only while the result stays within
// [0, total_capacity].  The row lock taken by the UPDATE serializes
// concurrent adjustments on the same bucket until the surrounding
// transaction commits; tx may be nil for a standalone auto-committed
// adjustment.  On failure the counter is untouched and the error reports
// which bound would have been violated.
func (r *QuotaRepo) AdjustOccupancyTx(ctx context.Context, tx *sql.Tx, key model.BucketKey, delta int) (*model.Quota, error) {
	ex := r.pick(tx)
	const keyWhere = `level = ? AND parallel = ? AND shift = ? AND specialty = ? AND academic_year = ?`
	if delta != 0 {
		const upd = `UPDATE quotas SET occupied = occupied + ?
		             WHERE ` + keyWhere + ` AND occupied + ? >= 0 AND occupied + ? <= total_capacity`
		res, err := ex.ExecContext(ctx, upd, delta,
			key.Level, key.Parallel, key.Shift, key.Specialty, key.AcademicYear, delta, delta)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// Either the bucket does not exist or the delta would breach a
			// bound; re-read to report which.
			if _, err := scanQuota(ex.QueryRowContext(ctx, `SELECT `+quotaColumns+` FROM quotas WHERE `+keyWhere,
				key.Level, key.Parallel, key.Shift, key.Specialty, key.AcademicYear)); err != nil {
				return nil, err
			}
			if delta > 0 {
				return nil, ErrCapacityExceeded
			}
			return nil, ErrNegativeOccupancy
		}
	}
	return scanQuota(ex.QueryRowContext(ctx, `SELECT `+quotaColumns+` FROM quotas WHERE `+keyWhere,
		key.Level, key.Parallel, key.Shift, key.Specialty, key.AcademicYear))
}

// SetCapacity changes a bucket's total capacity.  The conditional UPDATE
// refuses to shrink capacity below the seats already occupied.
func (r *QuotaRepo) SetCapacity(ctx context.Context, key model.BucketKey, newTotal uint32) (*model.Quota, error) {
	const keyWhere = `level = ? AND parallel = ? AND shift = ? AND specialty = ? AND academic_year = ?`
	const upd = `UPDATE quotas SET total_capacity = ? WHERE ` + keyWhere + ` AND occupied <= ?`
	res, err := r.db.ExecContext(ctx, upd, newTotal,
		key.Level, key.Parallel, key.Shift, key.Specialty, key.AcademicYear, newTotal)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		cur, err := r.GetByKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if cur.Occupied > newTotal {
			return nil, ErrCapacityBelowOccupancy
		}
		// RowsAffected is 0 when the capacity already equals newTotal.
		return cur, nil
	}
	return r.GetByKey(ctx, key)
}

// List returns quotas matching the filter, ordered by level, shift and
// parallel for deterministic display.  Empty filter fields are ignored.
func (r *QuotaRepo) List(ctx context.Context, f model.QuotaFilter) ([]model.Quota, error) {
	query := `SELECT ` + quotaColumns + ` FROM quotas`
	var conds []string
	var args []interface{}
	if f.Level != "" {
		conds = append(conds, "level = ?")
		args = append(args, f.Level)
	}
	if f.Parallel != "" {
		conds = append(conds, "parallel = ?")
		args = append(args, f.Parallel)
	}
	if f.Shift != "" {
		conds = append(conds, "shift = ?")
		args = append(args, f.Shift)
	}
	if f.Specialty != nil {
		conds = append(conds, "specialty = ?")
		args = append(args, *f.Specialty)
	}
	if f.AcademicYear != "" {
		conds = append(conds, "academic_year = ?")
		args = append(args, f.AcademicYear)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY level, shift, parallel"
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	quotas := make([]model.Quota, 0)
	for rows.Next() {
		var q model.Quota
		if err := rows.Scan(&q.ID, &q.Level, &q.Parallel, &q.Shift, &q.Specialty, &q.AcademicYear,
			&q.TotalCapacity, &q.Occupied, &q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, err
		}
		quotas = append(quotas, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return quotas, nil
}

// ListBySelection returns every bucket serving a selection regardless of
// parallel, ordered by parallel name ascending.  This is the aggregate
// read used by availability queries; allocation never uses it.
func (r *QuotaRepo) ListBySelection(ctx context.Context, sel model.Selection) ([]model.Quota, error) {
	return r.List(ctx, model.QuotaFilter{
		Level:        sel.Level,
		Shift:        sel.Shift,
		Specialty:    &sel.Specialty,
		AcademicYear: sel.AcademicYear,
	})
}

// Delete removes a bucket, refusing while any seat is occupied.  Callers
// that need to remove an occupied bucket must first release its dependent
// applications.
func (r *QuotaRepo) Delete(ctx context.Context, key model.BucketKey) error {
	const del = `DELETE FROM quotas
	             WHERE level = ? AND parallel = ? AND shift = ? AND specialty = ? AND academic_year = ?
	             AND occupied = 0`
	res, err := r.db.ExecContext(ctx, del, key.Level, key.Parallel, key.Shift, key.Specialty, key.AcademicYear)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		if _, err := r.GetByKey(ctx, key); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}
