package sink

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/lineagelab/olgen/internal/openlineage"
)

func TestHTTPSink_PostsEachEventInOrder(t *testing.T) {
	var received []openlineage.RunEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method=%s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type=%q", ct)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		var ev openlineage.RunEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			t.Errorf("unmarshal body: %v", err)
		}
		received = append(received, ev)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s, err := NewHTTPSink(context.Background(), HTTPConfig{URL: srv.URL + "/api/v1/lineage"})
	if err != nil {
		t.Fatalf("NewHTTPSink() err=%v", err)
	}

	batch := sampleBatch()
	if err := s.Write(context.Background(), batch); err != nil {
		t.Fatalf("Write() err=%v", err)
	}
	if len(received) != len(batch) {
		t.Fatalf("received %d events, want %d", len(received), len(batch))
	}
	for i := range batch {
		if received[i].EventType != batch[i].EventType {
			t.Fatalf("event %d: type %q, want %q", i, received[i].EventType, batch[i].EventType)
		}
		if received[i].Run.RunID != batch[i].Run.RunID {
			t.Fatalf("event %d: run id %q, want %q", i, received[i].Run.RunID, batch[i].Run.RunID)
		}
	}
}

func TestHTTPSink_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "event rejected", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	s, err := NewHTTPSink(context.Background(), HTTPConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPSink() err=%v", err)
	}

	err = s.Write(context.Background(), sampleBatch())
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "422") {
		t.Fatalf("error %q does not carry status", err)
	}
	if !strings.Contains(err.Error(), srv.URL) {
		t.Fatalf("error %q does not carry destination", err)
	}
}

func TestHTTPConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     HTTPConfig
		wantErr bool
	}{
		{name: "ok", cfg: HTTPConfig{URL: "http://localhost:8080/api/v1/lineage"}},
		{name: "missing url", cfg: HTTPConfig{}, wantErr: true},
		{name: "bad scheme", cfg: HTTPConfig{URL: "ftp://host"}, wantErr: true},
		{name: "negative rate", cfg: HTTPConfig{URL: "http://host", EventsPerSecond: -1}, wantErr: true},
		{name: "token url without client id", cfg: HTTPConfig{URL: "http://host", TokenURL: "http://idp/token"}, wantErr: true},
	}
	for _, tc := range cases {
		err := tc.cfg.Validate()
		if tc.wantErr && err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if !tc.wantErr && err != nil {
			t.Fatalf("%s: Validate() err=%v", tc.name, err)
		}
	}
}

func TestHTTPSink_CanceledContextStopsDelivery(t *testing.T) {
	var count int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count++
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s, err := NewHTTPSink(context.Background(), HTTPConfig{URL: srv.URL})
	if err != nil {
		t.Fatalf("NewHTTPSink() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Write(ctx, sampleBatch()); err == nil {
		t.Fatalf("expected error")
	}
	if count != 0 {
		t.Fatalf("delivered %d events on canceled context", count)
	}
}
