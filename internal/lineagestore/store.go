// Package lineagestore persists received lineage run events. Every row
// carries a SHA-256 integrity hash over its canonical form so downstream
// consumers can detect tampering or storage corruption.
package lineagestore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Record is one run event as stored. Payload holds the full event document;
// the remaining columns are denormalized for filtering.
type Record struct {
	EventType    string
	EventTime    time.Time
	RunID        string
	JobNamespace string
	JobName      string
	InputCount   int
	OutputCount  int
	Payload      json.RawMessage
}

func (r Record) Validate() error {
	if r.EventType != "START" && r.EventType != "COMPLETE" {
		return errors.New("EventType must be START or COMPLETE")
	}
	if r.EventTime.IsZero() {
		return errors.New("EventTime is required")
	}
	if strings.TrimSpace(r.RunID) == "" {
		return errors.New("RunID is required")
	}
	if strings.TrimSpace(r.JobNamespace) == "" {
		return errors.New("JobNamespace is required")
	}
	if strings.TrimSpace(r.JobName) == "" {
		return errors.New("JobName is required")
	}
	if r.InputCount < 0 || r.OutputCount < 0 {
		return errors.New("dataset counts must be >= 0")
	}
	return nil
}

// EnsureSchema bootstraps the event table. Safe to call on every boot.
func EnsureSchema(ctx context.Context, db Execer) error {
	if db == nil {
		return errors.New("db is required")
	}
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS lineage_run_events (
			event_id         BIGSERIAL PRIMARY KEY,
			event_type       TEXT        NOT NULL,
			event_time       TIMESTAMPTZ NOT NULL,
			run_id           TEXT        NOT NULL,
			job_namespace    TEXT        NOT NULL,
			job_name         TEXT        NOT NULL,
			input_count      INTEGER     NOT NULL,
			output_count     INTEGER     NOT NULL,
			payload          JSONB       NOT NULL,
			integrity_sha256 TEXT        NOT NULL,
			received_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return fmt.Errorf("create lineage_run_events: %w", err)
	}
	_, err = db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS lineage_run_events_run_id_idx
			ON lineage_run_events (run_id)`)
	if err != nil {
		return fmt.Errorf("index lineage_run_events: %w", err)
	}
	return nil
}

func Insert(ctx context.Context, q QueryRower, rec Record) (int64, error) {
	if q == nil {
		return 0, errors.New("queryer is required")
	}
	if err := rec.Validate(); err != nil {
		return 0, err
	}

	payload := rec.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	integrity, err := ComputeIntegritySHA256(rec, payload)
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(
		ctx,
		`INSERT INTO lineage_run_events (
			event_type,
			event_time,
			run_id,
			job_namespace,
			job_name,
			input_count,
			output_count,
			payload,
			integrity_sha256
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING event_id`,
		rec.EventType,
		rec.EventTime.UTC(),
		strings.TrimSpace(rec.RunID),
		strings.TrimSpace(rec.JobNamespace),
		strings.TrimSpace(rec.JobName),
		rec.InputCount,
		rec.OutputCount,
		[]byte(payload),
		integrity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert run event: %w", err)
	}
	return id, nil
}

func ComputeIntegritySHA256(rec Record, payload json.RawMessage) (string, error) {
	type integrityInput struct {
		EventType    string          `json:"event_type"`
		EventTime    time.Time       `json:"event_time"`
		RunID        string          `json:"run_id"`
		JobNamespace string          `json:"job_namespace"`
		JobName      string          `json:"job_name"`
		InputCount   int             `json:"input_count"`
		OutputCount  int             `json:"output_count"`
		Payload      json.RawMessage `json:"payload"`
	}

	blob, err := json.Marshal(integrityInput{
		EventType:    rec.EventType,
		EventTime:    rec.EventTime.UTC(),
		RunID:        strings.TrimSpace(rec.RunID),
		JobNamespace: strings.TrimSpace(rec.JobNamespace),
		JobName:      strings.TrimSpace(rec.JobName),
		InputCount:   rec.InputCount,
		OutputCount:  rec.OutputCount,
		Payload:      payload,
	})
	if err != nil {
		return "", fmt.Errorf("marshal integrity: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}

type ListFilter struct {
	EventType string
	JobName   string
	RunID     string
	BeforeID  int64
	Limit     int
}

type StoredEvent struct {
	EventID      int64           `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventTime    time.Time       `json:"event_time"`
	RunID        string          `json:"run_id"`
	JobNamespace string          `json:"job_namespace"`
	JobName      string          `json:"job_name"`
	InputCount   int             `json:"input_count"`
	OutputCount  int             `json:"output_count"`
	Payload      json.RawMessage `json:"payload"`
	ReceivedAt   time.Time       `json:"received_at"`
}

// List returns events newest-first, keyset-paginated on event_id.
func List(ctx context.Context, q Queryer, f ListFilter) ([]StoredEvent, error) {
	if q == nil {
		return nil, errors.New("queryer is required")
	}
	if f.Limit < 1 {
		f.Limit = 100
	}

	where := make([]string, 0, 4)
	args := make([]any, 0, 5)

	if f.BeforeID > 0 {
		args = append(args, f.BeforeID)
		where = append(where, "event_id < $"+strconv.Itoa(len(args)))
	}
	if f.EventType != "" {
		args = append(args, f.EventType)
		where = append(where, "event_type = $"+strconv.Itoa(len(args)))
	}
	if f.JobName != "" {
		args = append(args, f.JobName)
		where = append(where, "job_name = $"+strconv.Itoa(len(args)))
	}
	if f.RunID != "" {
		args = append(args, f.RunID)
		where = append(where, "run_id = $"+strconv.Itoa(len(args)))
	}

	args = append(args, f.Limit)
	query := `SELECT event_id, event_type, event_time, run_id, job_namespace, job_name,
			input_count, output_count, payload, received_at
		FROM lineage_run_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY event_id DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list run events: %w", err)
	}
	defer rows.Close()

	events := make([]StoredEvent, 0, f.Limit)
	for rows.Next() {
		var (
			ev         StoredEvent
			payloadRaw []byte
		)
		if err := rows.Scan(
			&ev.EventID,
			&ev.EventType,
			&ev.EventTime,
			&ev.RunID,
			&ev.JobNamespace,
			&ev.JobName,
			&ev.InputCount,
			&ev.OutputCount,
			&payloadRaw,
			&ev.ReceivedAt,
		); err != nil {
			return nil, fmt.Errorf("scan run event: %w", err)
		}
		ev.Payload = normalizeJSON(payloadRaw)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list run events: %w", err)
	}
	return events, nil
}

func normalizeJSON(raw []byte) json.RawMessage {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(trimmed)
}
