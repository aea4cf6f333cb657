package timeentry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/sirschrockalot/Timesheet-Service/internal/timeentry/entity"
	"github.com/sirschrockalot/Timesheet-Service/internal/timeentry/repo"
	"github.com/sirschrockalot/Timesheet-Service/pkg/utilities"
)

// Store is the persistence port the service operates against. The
// Postgres repository is the production implementation; tests supply
// an in-memory fake.
type Store interface {
	List(ctx context.Context, f entity.Filter, limit, offset int) ([]*entity.TimeEntry, int, error)
	GetByID(ctx context.Context, id string) (*entity.TimeEntry, error)
	GetByWeek(ctx context.Context, userID string, weekStart time.Time) (*entity.TimeEntry, error)
	Insert(ctx context.Context, e *entity.TimeEntry) error
	Update(ctx context.Context, id string, p entity.Patch) (*entity.TimeEntry, error)
	Delete(ctx context.Context, id string) (int64, error)
}

// sentinel errors for the classified failure modes
var (
	ErrNotFound      = errors.New("time entry not found")
	ErrInvalidID     = errors.New("invalid time entry id")
	ErrDuplicateWeek = errors.New("time entry already exists for user and week")
	ErrMissingParams = errors.New("userId and weekStart are required")
)

// ValidationError carries every field-level violation found, never just
// the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// Service owns the time entry lifecycle. It holds no state between
// requests beyond the injected store handle.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateInput holds the cleaned fields for a create. Validation-layer
// defaults (draft status, empty notes) are expected to be applied
// already; the service re-applies them defensively.
type CreateInput struct {
	UserID      string
	WeekStart   time.Time
	WeekEnd     time.Time
	Hours       []float64
	Notes       string
	Status      string
	SubmittedAt *time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *string
}

// ListResult bundles a page of entries with pagination bookkeeping.
type ListResult struct {
	Entries []*entity.TimeEntry
	Page    int
	Limit   int
	Total   int
	Pages   int
}

// List returns entries matching the filter, newest week first. Omitted
// filter fields impose no constraint. Limit is clamped to [1, 100] and
// page to >= 1 so a bypassed validation layer cannot produce a bad query.
func (s *Service) List(ctx context.Context, f entity.Filter, page, limit int) (*ListResult, error) {
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	entries, total, err := s.store.List(ctx, f, limit, (page-1)*limit)
	if err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}
	pages := 0
	if total > 0 {
		pages = (total + limit - 1) / limit
	}
	return &ListResult{Entries: entries, Page: page, Limit: limit, Total: total, Pages: pages}, nil
}

// GetByID returns the entry or ErrNotFound; ErrInvalidID when the id is
// not a well-formed identifier (malformed is distinct from absent).
func (s *Service) GetByID(ctx context.Context, id string) (*entity.TimeEntry, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	e, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get time entry: %w", err)
	}
	return e, nil
}

// GetForWeek looks up the unique entry for a (userId, weekStart) pair.
// Both parameters are this operation's own responsibility to check:
// either one absent is ErrMissingParams. A missing entry is NOT an
// error; it comes back as a nil entry so callers can tell "looked up,
// none exists" from a malformed request.
func (s *Service) GetForWeek(ctx context.Context, userID string, weekStart time.Time) (*entity.TimeEntry, error) {
	if strings.TrimSpace(userID) == "" || weekStart.IsZero() {
		return nil, ErrMissingParams
	}
	e, err := s.store.GetByWeek(ctx, userID, weekStart)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get time entry for week: %w", err)
	}
	return e, nil
}

// Create persists a new entry, rejecting a second entry for the same
// (userId, weekStart) pair. The pre-check gives a clean error on the
// common path; the unique index closes the race between check and
// write, and that violation is re-signaled as ErrDuplicateWeek too.
func (s *Service) Create(ctx context.Context, in CreateInput) (*entity.TimeEntry, error) {
	if in.Status == "" {
		in.Status = entity.StatusDraft
	}
	if in.Hours == nil {
		return nil, &ValidationError{Violations: []string{"hours is required"}}
	}
	if violations := checkFields(in.Hours, in.Status); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	_, err := s.store.GetByWeek(ctx, in.UserID, in.WeekStart)
	if err == nil {
		return nil, ErrDuplicateWeek
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check existing time entry: %w", err)
	}

	e := &entity.TimeEntry{
		ID:          utilities.NewKSUID(),
		UserID:      in.UserID,
		WeekStart:   in.WeekStart,
		WeekEnd:     in.WeekEnd,
		Hours:       in.Hours,
		Notes:       in.Notes,
		Status:      in.Status,
		SubmittedAt: stampSubmission(in.Status, in.SubmittedAt, time.Now().UTC()),
		ApprovedAt:  in.ApprovedAt,
		ApprovedBy:  in.ApprovedBy,
	}
	if err := s.store.Insert(ctx, e); err != nil {
		if errors.Is(err, repo.ErrDuplicateWeek) {
			return nil, ErrDuplicateWeek
		}
		return nil, fmt.Errorf("insert time entry: %w", err)
	}
	return e, nil
}

// Update applies the supplied fields only, leaving the rest untouched,
// and returns the fully updated entry. Setting status to submitted
// without an explicit submittedAt stamps it, same rule as Create.
func (s *Service) Update(ctx context.Context, id string, p entity.Patch) (*entity.TimeEntry, error) {
	if err := checkID(id); err != nil {
		return nil, err
	}
	status := ""
	if p.Status != nil {
		status = *p.Status
	}
	if violations := checkFields(p.Hours, status); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}
	if p.Status != nil {
		p.SubmittedAt = stampSubmission(*p.Status, p.SubmittedAt, time.Now().UTC())
	}

	e, err := s.store.Update(ctx, id, p)
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, ErrNotFound
		case errors.Is(err, repo.ErrDuplicateWeek):
			return nil, ErrDuplicateWeek
		}
		return nil, fmt.Errorf("update time entry: %w", err)
	}
	return e, nil
}

// Delete removes the entry; ErrNotFound when the id does not resolve.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return err
	}
	rows, err := s.store.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete time entry: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// stampSubmission is the single place the submitted/submittedAt rule
// lives: a transition to submitted with no explicit submittedAt gets
// stamped with now. An explicitly supplied value is always preserved.
func stampSubmission(status string, submittedAt *time.Time, now time.Time) *time.Time {
	if status == entity.StatusSubmitted && submittedAt == nil {
		return &now
	}
	return submittedAt
}

// checkID rejects identifiers that are not well-formed KSUIDs before
// they reach the store.
func checkID(id string) error {
	if _, err := ksuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// checkFields re-validates the rules the store schema cannot fully
// express, so a request that slips past the validation layer still
// fails with itemized messages instead of a generic error. Zero values
// mean "not supplied" and are skipped.
func checkFields(hours []float64, status string) []string {
	var violations []string
	if hours != nil {
		if len(hours) != 7 {
			violations = append(violations, "hours must contain exactly 7 values")
		}
		for i, h := range hours {
			if h < 0 || h > 24 {
				violations = append(violations, fmt.Sprintf("hours[%d] must be between 0 and 24", i))
			}
		}
	}
	if status != "" && !entity.ValidStatus(status) {
		violations = append(violations, "status must be one of "+strings.Join(entity.Statuses, ", "))
	}
	return violations
}
