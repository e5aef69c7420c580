package musicbrainz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"squid-downloader/internal/shared"
)

// newTestClient points a client at an httptest server with retries and
// pacing tightened for unit tests.
func newTestClient(serverURL string) *Client {
	config := Config{
		BaseURL:      serverURL + "/ws/2/",
		UserAgent:    "test-client/1.0",
		Timeout:      5 * time.Second,
		MaxRetries:   1,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
	}
	return NewClientWithConfig(config, shared.NewPacer(time.Millisecond))
}

func TestSearchReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/2/release" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "20" {
			t.Errorf("limit = %q, want 20", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"releases": [
				{
					"id": "rel-1",
					"title": "A Night at the Opera",
					"status": "Official",
					"date": "1975-11-21",
					"country": "GB",
					"artist-credit": [{"name": "Queen", "artist": {"id": "ar-1", "name": "Queen", "sort-name": "Queen"}}],
					"release-group": {"id": "rg-1", "primary-type": "Album", "first-release-date": "1975-11-21"},
					"cover-art-archive": {"front": true},
					"track-count": 12
				}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	releases, err := client.SearchReleases(context.Background(), "Queen", "A Night at the Opera", 20)
	if err != nil {
		t.Fatalf("SearchReleases failed: %v", err)
	}
	if len(releases) != 1 {
		t.Fatalf("got %d releases, want 1", len(releases))
	}

	rel := releases[0]
	if rel.ID != "rel-1" {
		t.Errorf("ID = %q, want rel-1", rel.ID)
	}
	if CreditedArtist(rel.ArtistCredit) != "Queen" {
		t.Errorf("credited artist = %q, want Queen", CreditedArtist(rel.ArtistCredit))
	}
	if rel.ReleaseGroup.PrimaryType != "Album" {
		t.Errorf("primary type = %q, want Album", rel.ReleaseGroup.PrimaryType)
	}
	if !rel.CoverArtArchive.Front {
		t.Error("expected cover art front flag")
	}
	if rel.TotalTracks() != 12 {
		t.Errorf("TotalTracks = %d, want 12", rel.TotalTracks())
	}
}

func TestGetReleaseParsesMedia(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ws/2/release/rel-1" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "rel-1",
			"title": "Help!",
			"status": "Official",
			"date": "1965-08-06",
			"barcode": "077774643924",
			"label-info": [{"catalog-number": "PCS 3071", "label": {"id": "lb-1", "name": "Parlophone"}}],
			"media": [
				{
					"position": 1,
					"format": "CD",
					"tracks": [
						{"id": "tr-1", "position": 1, "number": "1", "title": "Help!", "recording": {"id": "rec-1", "isrcs": ["GBAYE0601477"]}},
						{"id": "tr-2", "position": 2, "number": "2", "title": "The Night Before", "recording": {"id": "rec-2"}}
					]
				}
			],
			"text-representation": {"language": "eng", "script": "Latn"}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	release, err := client.GetRelease(context.Background(), "rel-1")
	if err != nil {
		t.Fatalf("GetRelease failed: %v", err)
	}

	if len(release.Media) != 1 {
		t.Fatalf("got %d media, want 1", len(release.Media))
	}
	medium := release.Media[0]
	if len(medium.Tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(medium.Tracks))
	}
	if medium.Tracks[0].Recording.ID != "rec-1" {
		t.Errorf("recording ID = %q, want rec-1", medium.Tracks[0].Recording.ID)
	}
	if medium.Tracks[0].Position != 1 || medium.Tracks[1].Position != 2 {
		t.Error("track positions not preserved in order")
	}
	if len(release.LabelInfo) != 1 || release.LabelInfo[0].Label.Name != "Parlophone" {
		t.Error("label info not parsed")
	}
	if release.TextRepresentation.Script != "Latn" {
		t.Errorf("script = %q, want Latn", release.TextRepresentation.Script)
	}
}

func TestGetRecordingParsesReleases(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "rec-1",
			"title": "Yesterday",
			"isrcs": ["GBAYE0601696"],
			"artist-credit": [{"name": "The Beatles", "artist": {"id": "ar-2", "name": "The Beatles", "sort-name": "Beatles, The"}}],
			"releases": [
				{"id": "rel-a", "title": "Help!", "status": "Official", "release-group": {"id": "rg-a", "primary-type": "Album"}},
				{"id": "rel-b", "title": "Yesterday", "status": "Official", "release-group": {"id": "rg-b", "primary-type": "Single"}}
			]
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	recording, err := client.GetRecording(context.Background(), "rec-1")
	if err != nil {
		t.Fatalf("GetRecording failed: %v", err)
	}

	if recording.Title != "Yesterday" {
		t.Errorf("title = %q, want Yesterday", recording.Title)
	}
	if len(recording.Releases) != 2 {
		t.Fatalf("got %d releases, want 2", len(recording.Releases))
	}
	if len(recording.ISRCs) != 1 || recording.ISRCs[0] != "GBAYE0601696" {
		t.Errorf("ISRCs = %v", recording.ISRCs)
	}
}

func TestSearchReleasesErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.SearchReleases(context.Background(), "Queen", "A Night at the Opera", 20)
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestPacerEnforcesMinimumInterval(t *testing.T) {
	pacer := shared.NewPacer(50 * time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := pacer.Wait(ctx); err != nil {
			t.Fatalf("Wait failed: %v", err)
		}
	}
	elapsed := time.Since(start)
	if elapsed < 100*time.Millisecond {
		t.Errorf("three paced calls took %v, want >= 100ms", elapsed)
	}
}
