package main

import (
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/lineagelab/olgen/internal/lineagestore"
	"github.com/lineagelab/olgen/internal/openlineage"
	"github.com/lineagelab/olgen/internal/platform/metrics"
)

// maxEventBytes bounds a single event document. Generated events with large
// schemas stay well under this.
const maxEventBytes = 4 << 20

type ingestAPI struct {
	logger  *slog.Logger
	db      *sql.DB
	metrics *metrics.Ingest
}

func newIngestAPI(logger *slog.Logger, db *sql.DB, m *metrics.Ingest) *ingestAPI {
	return &ingestAPI{
		logger:  logger,
		db:      db,
		metrics: m,
	}
}

func (api *ingestAPI) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/lineage", api.handleReceiveEvent)
	mux.HandleFunc("GET /api/v1/events", api.handleListEvents)
}

func (api *ingestAPI) handleReceiveEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxEventBytes+1))
	if err != nil {
		api.reject(w, r, http.StatusBadRequest, "read_failed", "body")
		return
	}
	if len(body) > maxEventBytes {
		api.reject(w, r, http.StatusRequestEntityTooLarge, "payload_too_large", "size")
		return
	}

	var event openlineage.RunEvent
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&event); err != nil {
		api.reject(w, r, http.StatusBadRequest, "malformed_json", "decode")
		return
	}
	// A valid request is exactly one JSON document.
	if dec.More() {
		api.reject(w, r, http.StatusBadRequest, "trailing_data", "decode")
		return
	}

	if err := event.Validate(); err != nil {
		api.logger.Warn("event rejected", "error", err, "request_id", r.Header.Get("X-Request-Id"))
		api.reject(w, r, http.StatusBadRequest, "invalid_event", "validation")
		return
	}

	rec := lineagestore.Record{
		EventType:    event.EventType,
		EventTime:    event.EventTime,
		RunID:        event.Run.RunID,
		JobNamespace: event.Job.Namespace,
		JobName:      event.Job.Name,
		InputCount:   len(event.Inputs),
		OutputCount:  len(event.Outputs),
		Payload:      json.RawMessage(body),
	}
	id, err := lineagestore.Insert(r.Context(), api.db, rec)
	if err != nil {
		api.logger.Error("insert failed", "error", err, "run_id", event.Run.RunID)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	api.metrics.EventsReceived.WithLabelValues(event.EventType).Inc()
	api.metrics.PayloadBytes.Observe(float64(len(body)))
	api.writeJSON(w, http.StatusCreated, map[string]any{"event_id": id})
}

func (api *ingestAPI) handleListEvents(w http.ResponseWriter, r *http.Request) {
	filter := lineagestore.ListFilter{
		EventType: strings.TrimSpace(r.URL.Query().Get("event_type")),
		JobName:   strings.TrimSpace(r.URL.Query().Get("job_name")),
		RunID:     strings.TrimSpace(r.URL.Query().Get("run_id")),
		BeforeID:  parseInt64Query(r, "before_event_id", 0),
		Limit:     clampInt(parseIntQuery(r, "limit", 100), 1, 500),
	}
	if filter.EventType != "" && filter.EventType != openlineage.EventTypeStart && filter.EventType != openlineage.EventTypeComplete {
		api.writeError(w, r, http.StatusBadRequest, "invalid_event_type")
		return
	}

	events, err := lineagestore.List(r.Context(), api.db, filter)
	if err != nil {
		api.logger.Error("list failed", "error", err)
		api.writeError(w, r, http.StatusInternalServerError, "internal_error")
		return
	}

	resp := map[string]any{"events": events}
	if len(events) > 0 {
		resp["next_before_event_id"] = events[len(events)-1].EventID
	}
	api.writeJSON(w, http.StatusOK, resp)
}

func (api *ingestAPI) reject(w http.ResponseWriter, r *http.Request, status int, code string, reason string) {
	api.metrics.EventsRejected.WithLabelValues(reason).Inc()
	api.writeError(w, r, status, code)
}

func (api *ingestAPI) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(true)
	_ = enc.Encode(body)
}

func (api *ingestAPI) writeError(w http.ResponseWriter, r *http.Request, status int, code string) {
	api.writeJSON(w, status, map[string]any{
		"error":      code,
		"request_id": r.Header.Get("X-Request-Id"),
	})
}

func parseIntQuery(r *http.Request, key string, def int) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func parseInt64Query(r *http.Request, key string, def int64) int64 {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func clampInt(v int, min int, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
