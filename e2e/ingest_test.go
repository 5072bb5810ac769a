//go:build e2e
// +build e2e

package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/lineagelab/olgen/internal/metagen"
	"github.com/lineagelab/olgen/internal/sink"
)

// Requires a running ingest service:
//
//	OLGEN_E2E_INGEST_URL=http://127.0.0.1:8080 go test -tags e2e ./e2e/...
func ingestBaseURL(t *testing.T) string {
	t.Helper()

	base := strings.TrimSpace(os.Getenv("OLGEN_E2E_INGEST_URL"))
	if base == "" {
		t.Skip("OLGEN_E2E_INGEST_URL not set; skipping ingest e2e")
	}
	return strings.TrimRight(base, "/")
}

func TestGenerateAndIngestRoundTrip(t *testing.T) {
	base := ingestBaseURL(t)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	params := metagen.DefaultParams()
	params.Runs = 3
	params.Seed = time.Now().UnixNano()
	params.Namespace = fmt.Sprintf("e2e-%d", params.Seed)

	gen, err := metagen.New(params)
	if err != nil {
		t.Fatalf("metagen.New() err=%v", err)
	}
	events, err := gen.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate() err=%v", err)
	}
	if len(events) != 2*params.Runs {
		t.Fatalf("len(events)=%d, want %d", len(events), 2*params.Runs)
	}

	httpSink, err := sink.NewHTTPSink(ctx, sink.HTTPConfig{
		URL:     base + "/api/v1/lineage",
		Timeout: 10 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewHTTPSink() err=%v", err)
	}
	if err := httpSink.Write(ctx, events); err != nil {
		t.Fatalf("Write() err=%v", err)
	}

	// Every run appears once as START and once as COMPLETE.
	listed := listEvents(t, ctx, base, events[0].Run.RunID)
	if len(listed) != 2 {
		t.Fatalf("listed %d events for run, want 2", len(listed))
	}
	types := map[string]int{}
	for _, ev := range listed {
		types[ev.EventType]++
	}
	if types["START"] != 1 || types["COMPLETE"] != 1 {
		t.Fatalf("event types=%v, want one START and one COMPLETE", types)
	}
}

type listedEvent struct {
	EventID   int64  `json:"event_id"`
	EventType string `json:"event_type"`
	RunID     string `json:"run_id"`
}

func listEvents(t *testing.T, ctx context.Context, base string, runID string) []listedEvent {
	t.Helper()

	url := fmt.Sprintf("%s/api/v1/events?run_id=%s", base, runID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET %s status=%d, want 200", url, resp.StatusCode)
	}

	var body struct {
		Events []listedEvent `json:"events"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	return body.Events
}
