package main

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lineagelab/olgen/internal/platform/metrics"
)

// Handlers validate the request before touching the database, so rejection
// paths are testable with a nil *sql.DB.
func testAPI() (*ingestAPI, *http.ServeMux) {
	api := newIngestAPI(slog.New(slog.DiscardHandler), nil, metrics.NewIngest())
	mux := http.NewServeMux()
	api.register(mux)
	return api, mux
}

func validEventJSON() string {
	return `{
		"eventType": "START",
		"eventTime": "2024-01-15T08:00:00Z",
		"run": {"runId": "11111111-2222-3333-4444-555555555555", "facets": {}},
		"job": {"namespace": "namespace1", "name": "job1"},
		"inputs": [],
		"outputs": [],
		"producer": "https://github.com/lineagelab/olgen",
		"schemaURL": "https://openlineage.io/spec/1-0-5/OpenLineage.json#/definitions/RunEvent"
	}`
}

func TestHandleReceiveEvent_MalformedJSON(t *testing.T) {
	_, mux := testAPI()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/lineage", strings.NewReader("{not json")))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "malformed_json") {
		t.Fatalf("body=%q, want malformed_json", rec.Body.String())
	}
}

func TestHandleReceiveEvent_TrailingData(t *testing.T) {
	_, mux := testAPI()

	rec := httptest.NewRecorder()
	body := validEventJSON() + "{}"
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/lineage", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "trailing_data") {
		t.Fatalf("body=%q, want trailing_data", rec.Body.String())
	}
}

func TestHandleReceiveEvent_UnknownField(t *testing.T) {
	_, mux := testAPI()

	rec := httptest.NewRecorder()
	body := strings.Replace(validEventJSON(), `"eventType"`, `"surprise": 1, "eventType"`, 1)
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/lineage", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
}

func TestHandleReceiveEvent_InvalidEvent(t *testing.T) {
	_, mux := testAPI()

	rec := httptest.NewRecorder()
	body := strings.Replace(validEventJSON(), `"START"`, `"ABORT"`, 1)
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/lineage", strings.NewReader(body)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_event") {
		t.Fatalf("body=%q, want invalid_event", rec.Body.String())
	}
}

func TestHandleReceiveEvent_PayloadTooLarge(t *testing.T) {
	_, mux := testAPI()

	rec := httptest.NewRecorder()
	body := `{"pad":"` + strings.Repeat("x", maxEventBytes) + `"}`
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/lineage", strings.NewReader(body)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status=%d, want 413", rec.Code)
	}
}

func TestHandleListEvents_InvalidEventType(t *testing.T) {
	_, mux := testAPI()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/events?event_type=ABORT", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "invalid_event_type") {
		t.Fatalf("body=%q, want invalid_event_type", rec.Body.String())
	}
}

func TestParseQueryHelpers(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/events?limit=abc&before_event_id=12", nil)
	if got := parseIntQuery(r, "limit", 100); got != 100 {
		t.Fatalf("parseIntQuery=%d, want default 100", got)
	}
	if got := parseInt64Query(r, "before_event_id", 0); got != 12 {
		t.Fatalf("parseInt64Query=%d, want 12", got)
	}
	if got := clampInt(900, 1, 500); got != 500 {
		t.Fatalf("clampInt=%d, want 500", got)
	}
}
