package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/sirschrockalot/Timesheet-Service/internal/timeentry/entity"
)

// ErrDuplicateWeek is returned when a write would violate the unique
// (user_id, week_start) index.
var ErrDuplicateWeek = errors.New("time entry already exists for user and week")

// TimeEntryRepo provides data access for the time_entries table using sqlx.
type TimeEntryRepo struct {
	db *sqlx.DB
}

func NewTimeEntryRepo(db *sqlx.DB) *TimeEntryRepo { return &TimeEntryRepo{db: db} }

// EnsureTable creates the time_entries table and its indexes if they do
// not exist (idempotent). The unique composite index enforces the
// one-entry-per-user-per-week invariant; the secondary indexes back the
// list and week-lookup access patterns.
func (r *TimeEntryRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS time_entries (
  id varchar(27) PRIMARY KEY,
  user_id text NOT NULL,
  week_start timestamptz NOT NULL,
  week_end timestamptz NOT NULL,
  hours double precision[] NOT NULL,
  notes text NOT NULL DEFAULT '',
  status text NOT NULL DEFAULT 'draft',
  submitted_at timestamptz,
  approved_at timestamptz,
  approved_by text,
  created_at timestamptz NOT NULL DEFAULT NOW(),
  updated_at timestamptz NOT NULL DEFAULT NOW()
);
CREATE UNIQUE INDEX IF NOT EXISTS uq_time_entries_user_week ON time_entries(user_id, week_start);
CREATE INDEX IF NOT EXISTS idx_time_entries_user_id ON time_entries(user_id);
CREATE INDEX IF NOT EXISTS idx_time_entries_status ON time_entries(status);
CREATE INDEX IF NOT EXISTS idx_time_entries_week_start ON time_entries(week_start);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// timeEntryRow is the scan target; hours needs the pq array adapter.
type timeEntryRow struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	WeekStart   time.Time       `db:"week_start"`
	WeekEnd     time.Time       `db:"week_end"`
	Hours       pq.Float64Array `db:"hours"`
	Notes       string          `db:"notes"`
	Status      string          `db:"status"`
	SubmittedAt *time.Time      `db:"submitted_at"`
	ApprovedAt  *time.Time      `db:"approved_at"`
	ApprovedBy  *string         `db:"approved_by"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}

func (row *timeEntryRow) toEntity() *entity.TimeEntry {
	return &entity.TimeEntry{
		ID:          row.ID,
		UserID:      row.UserID,
		WeekStart:   row.WeekStart,
		WeekEnd:     row.WeekEnd,
		Hours:       []float64(row.Hours),
		Notes:       row.Notes,
		Status:      row.Status,
		SubmittedAt: row.SubmittedAt,
		ApprovedAt:  row.ApprovedAt,
		ApprovedBy:  row.ApprovedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
}

const selectColumns = `id, user_id, week_start, week_end, hours, notes, status,
	submitted_at, approved_at, approved_by, created_at, updated_at`

// List returns entries matching the filter ordered by week_start
// descending, plus the total matching count before limit/offset.
func (r *TimeEntryRepo) List(ctx context.Context, f entity.Filter, limit, offset int) ([]*entity.TimeEntry, int, error) {
	where, args := buildWhere(f)

	var total int
	countQuery := "SELECT COUNT(*) FROM time_entries" + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT %s FROM time_entries%s ORDER BY week_start DESC LIMIT $%d OFFSET $%d",
		selectColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var rows []timeEntryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, err
	}
	entries := make([]*entity.TimeEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, rows[i].toEntity())
	}
	return entries, total, nil
}

func buildWhere(f entity.Filter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.WeekFrom != nil {
		add("week_start >= $%d", *f.WeekFrom)
	}
	if f.WeekTo != nil {
		add("week_start <= $%d", *f.WeekTo)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// GetByID fetches one entry; sql.ErrNoRows when absent.
func (r *TimeEntryRepo) GetByID(ctx context.Context, id string) (*entity.TimeEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM time_entries WHERE id = $1", selectColumns)
	var row timeEntryRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// GetByWeek fetches the unique entry for a (user, week start) pair;
// sql.ErrNoRows when none exists.
func (r *TimeEntryRepo) GetByWeek(ctx context.Context, userID string, weekStart time.Time) (*entity.TimeEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM time_entries WHERE user_id = $1 AND week_start = $2", selectColumns)
	var row timeEntryRow
	if err := r.db.GetContext(ctx, &row, query, userID, weekStart); err != nil {
		return nil, err
	}
	return row.toEntity(), nil
}

// Insert persists a new entry. Timestamps come back from the database so
// the returned entity matches the stored row exactly.
func (r *TimeEntryRepo) Insert(ctx context.Context, e *entity.TimeEntry) error {
	const query = `INSERT INTO time_entries
		(id, user_id, week_start, week_end, hours, notes, status, submitted_at, approved_at, approved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`
	err := r.db.QueryRowxContext(ctx, query,
		e.ID, e.UserID, e.WeekStart, e.WeekEnd, pq.Float64Array(e.Hours),
		e.Notes, e.Status, e.SubmittedAt, e.ApprovedAt, e.ApprovedBy,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateWeek
	}
	return err
}

// Update applies the non-nil patch fields and returns the updated row;
// sql.ErrNoRows when the id does not resolve.
func (r *TimeEntryRepo) Update(ctx context.Context, id string, p entity.Patch) (*entity.TimeEntry, error) {
	sets := []string{"updated_at = NOW()"}
	var args []any
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if p.UserID != nil {
		set("user_id", *p.UserID)
	}
	if p.WeekStart != nil {
		set("week_start", *p.WeekStart)
	}
	if p.WeekEnd != nil {
		set("week_end", *p.WeekEnd)
	}
	if p.Hours != nil {
		set("hours", pq.Float64Array(p.Hours))
	}
	if p.Notes != nil {
		set("notes", *p.Notes)
	}
	if p.Status != nil {
		set("status", *p.Status)
	}
	if p.SubmittedAt != nil {
		set("submitted_at", *p.SubmittedAt)
	}
	if p.ApprovedAt != nil {
		set("approved_at", *p.ApprovedAt)
	}
	if p.ApprovedBy != nil {
		set("approved_by", *p.ApprovedBy)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE time_entries SET %s WHERE id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args), selectColumns)

	var row timeEntryRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateWeek
		}
		return nil, err
	}
	return row.toEntity(), nil
}

// Delete removes an entry and reports the number of rows affected.
func (r *TimeEntryRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = $1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// isUniqueViolation recognizes the Postgres unique_violation error code.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
