package timeentry

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/sirschrockalot/Timesheet-Service/internal/timeentry/entity"
)

// Handler exposes the time entry operations over HTTP. Every response
// uses the same envelope: {success, data, pagination?, message?} on
// success and {success, error, details?} on failure.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type successEnvelope struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data"`
	Pagination *pagination `json:"pagination,omitempty"`
	Message    string      `json:"message,omitempty"`
}

type errorEnvelope struct {
	Success bool     `json:"success"`
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// List handles GET /time-entries.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	res, violations := listSchema.Evaluate(nil, queryMap(r), nil)
	if len(violations) > 0 {
		h.writeValidationFailure(w, violations)
		return
	}
	q := res.Query
	filter := entity.Filter{
		UserID:   q.String("userId"),
		Status:   q.String("status"),
		WeekFrom: q.TimePtr("weekStart"),
		WeekTo:   q.TimePtr("weekEnd"),
	}
	out, err := h.svc.List(r.Context(), filter, q.Int("page", 1), q.Int("limit", 50))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, successEnvelope{
		Success: true,
		Data:    out.Entries,
		Pagination: &pagination{
			Page:  out.Page,
			Limit: out.Limit,
			Total: out.Total,
			Pages: out.Pages,
		},
	})
}

// GetForWeek handles GET /time-entries/week?userId=&weekStart=.
// The parameter check belongs to the service, not the validation layer;
// the handler only parses.
func (h *Handler) GetForWeek(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	weekStart := parseDateParam(r.URL.Query().Get("weekStart"))
	e, err := h.svc.GetForWeek(r.Context(), userID, weekStart)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if e == nil {
		h.writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: nil, Message: "no entry found for this week"})
		return
	}
	h.writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: e})
}

// GetByID handles GET /time-entries/{id}.
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	_, violations := byIDSchema.Evaluate(nil, nil, paramsMap(r))
	if len(violations) > 0 {
		h.writeValidationFailure(w, violations)
		return
	}
	e, err := h.svc.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: e})
}

// Create handles POST /time-entries.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	res, violations := createSchema.Evaluate(body, nil, nil)
	if len(violations) > 0 {
		h.writeValidationFailure(w, violations)
		return
	}
	b := res.Body
	in := CreateInput{
		UserID:      b.String("userId"),
		Hours:       b.Numbers("hours"),
		Notes:       b.String("notes"),
		Status:      b.String("status"),
		SubmittedAt: b.TimePtr("submittedAt"),
		ApprovedAt:  b.TimePtr("approvedAt"),
		ApprovedBy:  b.StringPtr("approvedBy"),
	}
	in.WeekStart, _ = b.Time("weekStart")
	in.WeekEnd, _ = b.Time("weekEnd")

	e, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, successEnvelope{Success: true, Data: e, Message: "time entry created"})
}

// Update handles PUT /time-entries/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	body, ok := h.decodeBody(w, r)
	if !ok {
		return
	}
	res, violations := updateSchema.Evaluate(body, nil, paramsMap(r))
	if len(violations) > 0 {
		h.writeValidationFailure(w, violations)
		return
	}
	b := res.Body
	patch := entity.Patch{
		UserID:      b.StringPtr("userId"),
		WeekStart:   b.TimePtr("weekStart"),
		WeekEnd:     b.TimePtr("weekEnd"),
		Notes:       b.StringPtr("notes"),
		Status:      b.StringPtr("status"),
		SubmittedAt: b.TimePtr("submittedAt"),
		ApprovedAt:  b.TimePtr("approvedAt"),
		ApprovedBy:  b.StringPtr("approvedBy"),
	}
	if b.Has("hours") {
		patch.Hours = b.Numbers("hours")
	}

	e, err := h.svc.Update(r.Context(), r.PathValue("id"), patch)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: e, Message: "time entry updated"})
}

// Delete handles DELETE /time-entries/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	_, violations := byIDSchema.Evaluate(nil, nil, paramsMap(r))
	if len(violations) > 0 {
		h.writeValidationFailure(w, violations)
		return
	}
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: nil, Message: "time entry deleted"})
}

// decodeBody parses the JSON body into an untyped map for schema
// evaluation. Unknown fields survive decoding and are dropped by the
// evaluator.
func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request) (map[string]any, bool) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Debugw("invalid request body", "err", err)
		h.writeValidationFailure(w, []string{"request body must be a JSON object"})
		return nil, false
	}
	return body, true
}

func (h *Handler) writeValidationFailure(w http.ResponseWriter, violations []string) {
	h.writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "validation failed", Details: violations})
}

// writeServiceError translates the service error taxonomy into HTTP
// statuses. Anything unclassified is logged and surfaced as a bare 500
// so no internal detail leaks to the caller.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		h.writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "validation failed", Details: vErr.Violations})
	case errors.Is(err, ErrMissingParams):
		h.writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "userId and weekStart are required"})
	case errors.Is(err, ErrInvalidID):
		h.writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "invalid time entry id"})
	case errors.Is(err, ErrDuplicateWeek):
		h.writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "a time entry for this user and week already exists"})
	case errors.Is(err, ErrNotFound):
		h.writeJSON(w, http.StatusNotFound, errorEnvelope{Error: "time entry not found"})
	default:
		h.logger.Errorw("time entry operation failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: "internal server error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// queryMap lifts the first value of each query parameter into the
// untyped shape the evaluator consumes.
func queryMap(r *http.Request) map[string]any {
	out := map[string]any{}
	for k, vs := range r.URL.Query() {
		if len(vs) > 0 && vs[0] != "" {
			out[k] = vs[0]
		}
	}
	return out
}

func paramsMap(r *http.Request) map[string]any {
	out := map[string]any{}
	if id := r.PathValue("id"); id != "" {
		out["id"] = id
	}
	return out
}

// parseDateParam accepts RFC3339 or date-only values; the zero time
// means absent or unparseable, which GetForWeek treats as missing.
func parseDateParam(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
