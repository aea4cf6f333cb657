package timeentry_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/sirschrockalot/Timesheet-Service/internal/timeentry"
	"github.com/sirschrockalot/Timesheet-Service/pkg/utilities"
)

type envelope struct {
	Success    bool            `json:"success"`
	Data       json.RawMessage `json:"data"`
	Pagination *struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
		Pages int `json:"pages"`
	} `json:"pagination"`
	Message string   `json:"message"`
	Error   string   `json:"error"`
	Details []string `json:"details"`
}

type entryJSON struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Hours       []float64 `json:"hours"`
	Notes       string    `json:"notes"`
	Status      string    `json:"status"`
	SubmittedAt *string   `json:"submittedAt"`
}

func newTestMux() *http.ServeMux {
	h := timeentry.NewHandler(timeentry.NewService(newFakeStore()), zap.NewNop().Sugar())
	mux := http.NewServeMux()
	mux.HandleFunc("GET /time-entries", h.List)
	mux.HandleFunc("GET /time-entries/week", h.GetForWeek)
	mux.HandleFunc("GET /time-entries/{id}", h.GetByID)
	mux.HandleFunc("POST /time-entries", h.Create)
	mux.HandleFunc("PUT /time-entries/{id}", h.Update)
	mux.HandleFunc("DELETE /time-entries/{id}", h.Delete)
	return mux
}

func doJSON(t *testing.T, mux *http.ServeMux, method, target, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return rec.Code, env
}

func decodeEntry(t *testing.T, data json.RawMessage) entryJSON {
	t.Helper()
	var e entryJSON
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("decode entry %q: %v", string(data), err)
	}
	return e
}

const createBody = `{"userId":"user123","weekStart":"2024-01-01","weekEnd":"2024-01-07","hours":[8,8,8,8,8,0,0]}`

func TestCreateEndpoint(t *testing.T) {
	mux := newTestMux()

	code, env := doJSON(t, mux, http.MethodPost, "/time-entries", createBody)
	if code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", code)
	}
	if !env.Success {
		t.Fatalf("success = false, error = %q", env.Error)
	}
	e := decodeEntry(t, env.Data)
	if e.ID == "" {
		t.Error("created entry has empty id")
	}
	if e.Status != "draft" {
		t.Errorf("status = %q, want draft (default)", e.Status)
	}
	if e.Notes != "" {
		t.Errorf("notes = %q, want empty default", e.Notes)
	}
}

func TestCreateEndpointDuplicate(t *testing.T) {
	mux := newTestMux()

	if code, _ := doJSON(t, mux, http.MethodPost, "/time-entries", createBody); code != http.StatusCreated {
		t.Fatalf("first create status = %d, want 201", code)
	}
	code, env := doJSON(t, mux, http.MethodPost, "/time-entries", createBody)
	if code != http.StatusBadRequest {
		t.Fatalf("duplicate create status = %d, want 400", code)
	}
	if env.Success || !strings.Contains(env.Error, "already exists") {
		t.Errorf("error = %q, want duplicate message", env.Error)
	}
}

func TestCreateEndpointValidation(t *testing.T) {
	mux := newTestMux()

	body := `{"userId":"","hours":[8,8,8,8,8]}`
	code, env := doJSON(t, mux, http.MethodPost, "/time-entries", body)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Error != "validation failed" {
		t.Errorf("error = %q, want %q", env.Error, "validation failed")
	}
	want := []string{
		"userId must not be empty",
		"weekStart is required",
		"weekEnd is required",
		"hours must contain exactly 7 values",
	}
	if len(env.Details) != len(want) {
		t.Fatalf("details = %v, want %v", env.Details, want)
	}
	for i := range want {
		if env.Details[i] != want[i] {
			t.Errorf("details[%d] = %q, want %q", i, env.Details[i], want[i])
		}
	}
}

func TestCreateEndpointBadJSON(t *testing.T) {
	mux := newTestMux()
	code, env := doJSON(t, mux, http.MethodPost, "/time-entries", `{"userId":`)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Success {
		t.Error("success = true for malformed body")
	}
}

func TestGetByIDEndpoint(t *testing.T) {
	mux := newTestMux()

	_, created := doJSON(t, mux, http.MethodPost, "/time-entries", createBody)
	id := decodeEntry(t, created.Data).ID

	code, env := doJSON(t, mux, http.MethodGet, "/time-entries/"+id, "")
	if code != http.StatusOK || !env.Success {
		t.Fatalf("status/success = %d/%v, want 200/true", code, env.Success)
	}
	if got := decodeEntry(t, env.Data); got.ID != id {
		t.Errorf("id = %q, want %q", got.ID, id)
	}

	// malformed id is a 400, not a 404
	code, env = doJSON(t, mux, http.MethodGet, "/time-entries/not-a-real-id", "")
	if code != http.StatusBadRequest || !strings.Contains(env.Error, "invalid") {
		t.Errorf("malformed id status/error = %d/%q, want 400/invalid id", code, env.Error)
	}

	// a well-formed but absent id is a 404
	code, env = doJSON(t, mux, http.MethodGet, "/time-entries/"+utilities.NewKSUID(), "")
	if code != http.StatusNotFound || !strings.Contains(env.Error, "not found") {
		t.Errorf("absent id status/error = %d/%q, want 404/not found", code, env.Error)
	}
}

func TestListEndpointPagination(t *testing.T) {
	mux := newTestMux()

	doJSON(t, mux, http.MethodPost, "/time-entries", createBody)
	doJSON(t, mux, http.MethodPost, "/time-entries",
		`{"userId":"user456","weekStart":"2024-01-01","weekEnd":"2024-01-07","hours":[8,8,8,8,8,0,0]}`)

	code, env := doJSON(t, mux, http.MethodGet, "/time-entries", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if env.Pagination == nil {
		t.Fatal("pagination block missing")
	}
	if env.Pagination.Total != 2 || env.Pagination.Pages != 1 || env.Pagination.Limit != 50 || env.Pagination.Page != 1 {
		t.Errorf("pagination = %+v, want total 2, pages 1, limit 50, page 1", env.Pagination)
	}

	code, env = doJSON(t, mux, http.MethodGet, "/time-entries?userId=user123", "")
	if code != http.StatusOK || env.Pagination.Total != 1 {
		t.Errorf("filtered status/total = %d/%d, want 200/1", code, env.Pagination.Total)
	}

	code, env = doJSON(t, mux, http.MethodGet, "/time-entries?limit=500", "")
	if code != http.StatusBadRequest || len(env.Details) == 0 {
		t.Errorf("bad limit status/details = %d/%v, want 400 with details", code, env.Details)
	}
}

func TestGetForWeekEndpoint(t *testing.T) {
	mux := newTestMux()
	doJSON(t, mux, http.MethodPost, "/time-entries", createBody)

	code, env := doJSON(t, mux, http.MethodGet, "/time-entries/week?userId=user123&weekStart=2024-01-01", "")
	if code != http.StatusOK || !env.Success {
		t.Fatalf("status/success = %d/%v, want 200/true", code, env.Success)
	}
	if e := decodeEntry(t, env.Data); e.UserID != "user123" {
		t.Errorf("userId = %q, want user123", e.UserID)
	}

	// absent entry: explicit empty result, still a 200
	code, env = doJSON(t, mux, http.MethodGet, "/time-entries/week?userId=user999&weekStart=2024-01-01", "")
	if code != http.StatusOK || !env.Success {
		t.Fatalf("absent entry status/success = %d/%v, want 200/true", code, env.Success)
	}
	if string(env.Data) != "null" {
		t.Errorf("data = %s, want null", env.Data)
	}
	if env.Message == "" {
		t.Error("message missing for empty week lookup")
	}

	// missing weekStart: parameter failure, not an empty result
	code, env = doJSON(t, mux, http.MethodGet, "/time-entries/week?userId=user123", "")
	if code != http.StatusBadRequest || env.Success {
		t.Errorf("missing param status/success = %d/%v, want 400/false", code, env.Success)
	}
}

func TestUpdateEndpointSubmits(t *testing.T) {
	mux := newTestMux()
	_, created := doJSON(t, mux, http.MethodPost, "/time-entries", createBody)
	id := decodeEntry(t, created.Data).ID

	code, env := doJSON(t, mux, http.MethodPut, "/time-entries/"+id, `{"status":"submitted"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	e := decodeEntry(t, env.Data)
	if e.Status != "submitted" {
		t.Errorf("status = %q, want submitted", e.Status)
	}
	if e.SubmittedAt == nil {
		t.Error("submittedAt missing after submit")
	}

	// explicit submittedAt is preserved
	code, env = doJSON(t, mux, http.MethodPut, "/time-entries/"+id,
		`{"status":"submitted","submittedAt":"2023-12-25T12:00:00Z"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	e = decodeEntry(t, env.Data)
	if e.SubmittedAt == nil || !strings.HasPrefix(*e.SubmittedAt, "2023-12-25T12:00:00") {
		t.Errorf("submittedAt = %v, want the explicit value", e.SubmittedAt)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	mux := newTestMux()
	_, created := doJSON(t, mux, http.MethodPost, "/time-entries", createBody)
	id := decodeEntry(t, created.Data).ID

	code, env := doJSON(t, mux, http.MethodDelete, "/time-entries/"+id, "")
	if code != http.StatusOK || !env.Success {
		t.Fatalf("delete status/success = %d/%v, want 200/true", code, env.Success)
	}

	code, _ = doJSON(t, mux, http.MethodGet, "/time-entries/"+id, "")
	if code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", code)
	}
}
