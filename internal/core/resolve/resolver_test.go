package resolve

import (
	"context"
	"fmt"
	"testing"

	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/shared"
)

type fakeRegistry struct {
	releases   map[string]*musicbrainz.Release
	recordings map[string]*musicbrainz.Recording
}

func (f *fakeRegistry) GetRelease(ctx context.Context, mbid string) (*musicbrainz.Release, error) {
	if rel, ok := f.releases[mbid]; ok {
		return rel, nil
	}
	return nil, fmt.Errorf("release %s not found", mbid)
}

func (f *fakeRegistry) GetRecording(ctx context.Context, mbid string) (*musicbrainz.Recording, error) {
	if rec, ok := f.recordings[mbid]; ok {
		return rec, nil
	}
	return nil, fmt.Errorf("recording %s not found", mbid)
}

type fakeIdentifier struct {
	ready       bool
	recordingID string
	acoustID    string
	err         error
	calls       int
}

func (f *fakeIdentifier) Ready() bool { return f.ready }

func (f *fakeIdentifier) Identify(ctx context.Context, filePath string) (string, string, error) {
	f.calls++
	return f.recordingID, f.acoustID, f.err
}

func abbeyRoad() *musicbrainz.Release {
	return &musicbrainz.Release{
		ID:     "rel-1",
		Title:  "Abbey Road",
		Status: "Official",
		Media: []musicbrainz.Medium{
			{
				Position: 1,
				Tracks: []musicbrainz.MediumTrack{
					{Position: 1, Title: "Come Together", Recording: musicbrainz.Recording{ID: "rec-1"}},
					{Position: 2, Title: "Something", Recording: musicbrainz.Recording{ID: "rec-2"}},
				},
			},
		},
	}
}

func TestResolveMatchesTrackInChosenRelease(t *testing.T) {
	registry := &fakeRegistry{releases: map[string]*musicbrainz.Release{"rel-1": abbeyRoad()}}
	identifier := &fakeIdentifier{ready: true, recordingID: "rec-1"}
	resolver := NewResolver(registry, identifier, NewReleaseCache(), nil)

	source := shared.SourceTrack{Title: "Something", Artist: "The Beatles", TrackNumber: 2}
	outcome := resolver.Resolve(context.Background(), "/music/The Beatles - Something.flac", source, "rel-1", nil)

	if outcome.Kind != OutcomeRelease {
		t.Fatalf("kind = %v, want OutcomeRelease", outcome.Kind)
	}
	if outcome.Track.Recording.ID != "rec-2" {
		t.Errorf("recording = %q, want rec-2", outcome.Track.Recording.ID)
	}
	// Title matching must not have needed the fingerprint service
	if identifier.calls != 0 {
		t.Errorf("identifier was called %d times, want 0", identifier.calls)
	}
}

func TestResolveRejectsPositionMismatch(t *testing.T) {
	registry := &fakeRegistry{releases: map[string]*musicbrainz.Release{"rel-1": abbeyRoad()}}
	resolver := NewResolver(registry, nil, NewReleaseCache(), nil)

	// Title matches but the catalog says track 5; no fingerprinting available
	source := shared.SourceTrack{Title: "Something", Artist: "The Beatles", TrackNumber: 5}
	outcome := resolver.Resolve(context.Background(), "/music/The Beatles - Something.flac", source, "rel-1", nil)

	if outcome.Kind != OutcomeCatalog {
		t.Fatalf("kind = %v, want OutcomeCatalog", outcome.Kind)
	}
}

func TestResolveUsesSessionCache(t *testing.T) {
	registry := &fakeRegistry{releases: map[string]*musicbrainz.Release{"rel-1": abbeyRoad()}}
	cache := NewReleaseCache()
	cache.Put("album-9", "rel-1")
	resolver := NewResolver(registry, nil, cache, nil)

	album := &shared.CatalogAlbum{ID: "album-9", Title: "Abbey Road", Artist: "The Beatles"}
	source := shared.SourceTrack{Title: "Come Together", Artist: "The Beatles", TrackNumber: 1}
	outcome := resolver.Resolve(context.Background(), "/music/The Beatles - Come Together.flac", source, "", album)

	if outcome.Kind != OutcomeRelease {
		t.Fatalf("kind = %v, want OutcomeRelease", outcome.Kind)
	}
	if outcome.Track.Title != "Come Together" {
		t.Errorf("track = %q, want Come Together", outcome.Track.Title)
	}
}

func TestResolveFingerprintFallback(t *testing.T) {
	release := abbeyRoad()
	registry := &fakeRegistry{
		releases: map[string]*musicbrainz.Release{"rel-1": release},
		recordings: map[string]*musicbrainz.Recording{
			"rec-2": {
				ID:    "rec-2",
				Title: "Something",
				Releases: []musicbrainz.Release{
					{ID: "rel-2", Title: "Greatest Hits", Status: "Bootleg"},
					{ID: "rel-1", Title: "Abbey Road", Status: "Official", ReleaseGroup: musicbrainz.ReleaseGroup{PrimaryType: "Album"}},
				},
			},
		},
	}
	identifier := &fakeIdentifier{ready: true, recordingID: "rec-2", acoustID: "acoustid-7"}
	cache := NewReleaseCache()
	resolver := NewResolver(registry, identifier, cache, nil)

	// Mangled filename and title so track-in-release matching fails
	album := &shared.CatalogAlbum{ID: "album-9", Title: "Abbey Road", Artist: "The Beatles"}
	source := shared.SourceTrack{Title: "Somethin (Remastered)", Artist: "The Beatles"}
	outcome := resolver.Resolve(context.Background(), "/music/track02.flac", source, "rel-1", album)

	if outcome.Kind != OutcomeFingerprint {
		t.Fatalf("kind = %v, want OutcomeFingerprint", outcome.Kind)
	}
	if outcome.RecordingID != "rec-2" {
		t.Errorf("recording = %q, want rec-2", outcome.RecordingID)
	}
	if outcome.Recording == nil || outcome.Recording.ID != "rec-2" {
		t.Error("outcome does not carry the identified recording")
	}
	if outcome.AcoustID != "acoustid-7" {
		t.Errorf("acoustid = %q, want acoustid-7", outcome.AcoustID)
	}
	if outcome.Track == nil || outcome.Track.Position != 2 {
		t.Errorf("track = %+v, want position 2", outcome.Track)
	}
	// The fingerprint-derived release is remembered for the album
	if cache.Get("album-9") != "rel-1" {
		t.Errorf("cache = %q, want rel-1", cache.Get("album-9"))
	}
}

func TestResolveFingerprintPrefersExactOfficialTitle(t *testing.T) {
	releases := []musicbrainz.Release{
		{ID: "rel-a", Title: "Now That's Music", Status: "Official", ReleaseGroup: musicbrainz.ReleaseGroup{PrimaryType: "Album"}},
		{ID: "rel-b", Title: "Abbey Road", Status: "Official"},
	}
	if got := pickRecordingRelease(releases, "abbey road"); got.ID != "rel-b" {
		t.Errorf("picked %s, want rel-b (exact official title)", got.ID)
	}
	if got := pickRecordingRelease(releases, "unrelated"); got.ID != "rel-a" {
		t.Errorf("picked %s, want rel-a (official album)", got.ID)
	}
	bootlegs := []musicbrainz.Release{
		{ID: "rel-c", Title: "Live Tape", Status: "Bootleg"},
	}
	if got := pickRecordingRelease(bootlegs, ""); got.ID != "rel-c" {
		t.Errorf("picked %s, want rel-c (first listed)", got.ID)
	}
}

func TestResolveFallsBackToCatalogFields(t *testing.T) {
	registry := &fakeRegistry{}
	identifier := &fakeIdentifier{ready: false}
	resolver := NewResolver(registry, identifier, NewReleaseCache(), nil)

	source := shared.SourceTrack{Title: "Obscure B-Side", Artist: "Nobody"}
	outcome := resolver.Resolve(context.Background(), "/music/Nobody - Obscure B-Side.flac", source, "", nil)

	if outcome.Kind != OutcomeCatalog {
		t.Fatalf("kind = %v, want OutcomeCatalog", outcome.Kind)
	}
}

func TestResolveUnresolvedKeepsInferredTitle(t *testing.T) {
	resolver := NewResolver(&fakeRegistry{}, nil, NewReleaseCache(), nil)

	outcome := resolver.Resolve(context.Background(), "/music/Mystery Artist - Mystery Song.flac", shared.SourceTrack{}, "", nil)

	if outcome.Kind != OutcomeUnresolved {
		t.Fatalf("kind = %v, want OutcomeUnresolved", outcome.Kind)
	}
	if outcome.InferredTitle != "Mystery Song" {
		t.Errorf("inferred title = %q, want Mystery Song", outcome.InferredTitle)
	}
}

func TestResolveIdentifierErrorDegrades(t *testing.T) {
	registry := &fakeRegistry{}
	identifier := &fakeIdentifier{ready: true, err: fmt.Errorf("fpcalc exploded")}
	warnings := shared.NewWarningCollector(true)
	resolver := NewResolver(registry, identifier, NewReleaseCache(), warnings)

	source := shared.SourceTrack{Title: "Song", Artist: "Artist"}
	outcome := resolver.Resolve(context.Background(), "/music/Artist - Song.flac", source, "", nil)

	if outcome.Kind != OutcomeCatalog {
		t.Fatalf("kind = %v, want OutcomeCatalog", outcome.Kind)
	}
	if !warnings.HasWarnings() {
		t.Error("expected a fingerprint warning to be collected")
	}
}
