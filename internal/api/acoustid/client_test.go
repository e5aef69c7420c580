package acoustid

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"squid-downloader/internal/shared"
)

func TestLookupParsesResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lookup" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("client") != "test-key" {
			t.Errorf("client = %q, want test-key", q.Get("client"))
		}
		if q.Get("meta") != "recordings" {
			t.Errorf("meta = %q, want recordings", q.Get("meta"))
		}
		if q.Get("duration") != "213" {
			t.Errorf("duration = %q, want 213", q.Get("duration"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"status": "ok",
			"results": [
				{"id": "res-1", "score": 0.97, "recordings": [{"id": "rec-1", "title": "One More Time"}]},
				{"id": "res-2", "score": 0.41, "recordings": [{"id": "rec-2", "title": "Something Else"}]}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", nil, shared.NewPacer(time.Millisecond))
	client.SetBaseURL(server.URL)

	results, err := client.Lookup(context.Background(), &Fingerprint{Duration: 213.7, Fingerprint: "AQAAAA"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].Score != 0.97 {
		t.Errorf("score = %v, want 0.97", results[0].Score)
	}
	if results[0].Recordings[0].ID != "rec-1" {
		t.Errorf("recording = %q, want rec-1", results[0].Recordings[0].ID)
	}
}

func TestLookupErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "error", "error": {"message": "invalid API key"}}`))
	}))
	defer server.Close()

	client := NewClient("bad-key", nil, nil)
	client.SetBaseURL(server.URL)

	_, err := client.Lookup(context.Background(), &Fingerprint{Duration: 100, Fingerprint: "AQAAAA"})
	if err == nil {
		t.Fatal("expected error for error status")
	}
}

func TestLookupRequiresAPIKey(t *testing.T) {
	client := NewClient("", nil, nil)
	if _, err := client.Lookup(context.Background(), &Fingerprint{Duration: 100, Fingerprint: "x"}); err == nil {
		t.Fatal("expected error without API key")
	}
	if client.Ready() {
		t.Error("Ready should be false without API key")
	}
}
