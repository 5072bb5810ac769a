package lineagestore

import (
	"encoding/json"
	"testing"
	"time"
)

func validRecord() Record {
	return Record{
		EventType:    "START",
		EventTime:    time.Unix(1700000000, 0).UTC(),
		RunID:        "11111111-2222-3333-4444-555555555555",
		JobNamespace: "namespace1",
		JobName:      "job1",
		InputCount:   4,
		OutputCount:  2,
		Payload:      json.RawMessage(`{"eventType":"START"}`),
	}
}

func TestRecordValidate(t *testing.T) {
	if err := validRecord().Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Record)
	}{
		{name: "bad event type", mutate: func(r *Record) { r.EventType = "ABORT" }},
		{name: "zero time", mutate: func(r *Record) { r.EventTime = time.Time{} }},
		{name: "missing run id", mutate: func(r *Record) { r.RunID = "  " }},
		{name: "missing namespace", mutate: func(r *Record) { r.JobNamespace = "" }},
		{name: "missing job name", mutate: func(r *Record) { r.JobName = "" }},
		{name: "negative inputs", mutate: func(r *Record) { r.InputCount = -1 }},
	}
	for _, tc := range cases {
		rec := validRecord()
		tc.mutate(&rec)
		if err := rec.Validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}

func TestComputeIntegritySHA256_Deterministic(t *testing.T) {
	rec := validRecord()

	a, err := ComputeIntegritySHA256(rec, rec.Payload)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	b, err := ComputeIntegritySHA256(rec, rec.Payload)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a != b {
		t.Fatalf("integrity mismatch: %q vs %q", a, b)
	}
}

func TestComputeIntegritySHA256_ChangesOnPayload(t *testing.T) {
	rec := validRecord()

	a, err := ComputeIntegritySHA256(rec, json.RawMessage(`{"a":1}`))
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	b, err := ComputeIntegritySHA256(rec, json.RawMessage(`{"a":2}`))
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a == b {
		t.Fatalf("expected integrity to differ")
	}
}

func TestNormalizeJSON(t *testing.T) {
	if got := string(normalizeJSON(nil)); got != "{}" {
		t.Fatalf("normalizeJSON(nil)=%q, want {}", got)
	}
	if got := string(normalizeJSON([]byte("null"))); got != "{}" {
		t.Fatalf("normalizeJSON(null)=%q, want {}", got)
	}
	if got := string(normalizeJSON([]byte(` {"a":1} `))); got != `{"a":1}` {
		t.Fatalf("normalizeJSON=%q", got)
	}
}
