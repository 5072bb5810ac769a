package sink

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lineagelab/olgen/internal/openlineage"
)

func sampleBatch() []openlineage.RunEvent {
	start := openlineage.RunEvent{
		EventType: openlineage.EventTypeStart,
		EventTime: time.Unix(1700000000, 0).UTC(),
		Run:       openlineage.Run{RunID: "11111111-2222-3333-4444-555555555555"},
		Job:       openlineage.Job{Namespace: "namespace1", Name: "job1"},
		Inputs:    []openlineage.Dataset{{Namespace: "namespace1", Name: "dataset1"}},
		Outputs:   []openlineage.Dataset{},
		Producer:  openlineage.Producer,
		SchemaURL: openlineage.SchemaURL,
	}
	complete := start
	complete.EventType = openlineage.EventTypeComplete
	complete.EventTime = start.EventTime.Add(5 * time.Minute)
	complete.Inputs = []openlineage.Dataset{}
	return []openlineage.RunEvent{start, complete}
}

func TestFileSink_WriteRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	s := NewFileSink(path)

	if err := s.Write(context.Background(), sampleBatch()); err != nil {
		t.Fatalf("Write() err=%v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var decoded []openlineage.RunEvent
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("len(decoded)=%d, want 2", len(decoded))
	}
	if decoded[0].EventType != openlineage.EventTypeStart || decoded[1].EventType != openlineage.EventTypeComplete {
		t.Fatalf("event order lost: %q, %q", decoded[0].EventType, decoded[1].EventType)
	}
}

func TestFileSink_DefaultPath(t *testing.T) {
	if s := NewFileSink(""); s.Path != DefaultOutputPath {
		t.Fatalf("Path=%q, want %q", s.Path, DefaultOutputPath)
	}
}

func TestFileSink_ErrorCarriesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "metadata.json")
	s := NewFileSink(path)

	err := s.Write(context.Background(), sampleBatch())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error %q does not name destination %q", err, path)
	}
}

func TestFileSink_EmptyBatchIsEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	s := NewFileSink(path)

	if err := s.Write(context.Background(), []openlineage.RunEvent{}); err != nil {
		t.Fatalf("Write() err=%v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if strings.TrimSpace(string(raw)) != "[]" {
		t.Fatalf("output=%q, want []", raw)
	}
}
