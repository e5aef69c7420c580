package shared

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"forbidden characters stripped", `AC/DC: Back In Black?`, "ACDC Back In Black"},
		{"leading and trailing dots trimmed", "...Hidden Title. ", "Hidden Title"},
		{"plain name unchanged", "Abbey Road", "Abbey Road"},
		{"empty becomes unknown", "", "unknown"},
		{"only forbidden characters becomes unknown", `\/:*?"<>|`, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFileName(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFileNameNeverContainsForbiddenChars(t *testing.T) {
	inputs := []string{
		`AC/DC: Back In Black?`,
		`What's <this> | "that"`,
		`a\b/c:d*e?f"g<h>i|j`,
	}
	for _, input := range inputs {
		got := SanitizeFileName(input)
		if strings.ContainsAny(got, `\/:*?"<>|`) {
			t.Errorf("SanitizeFileName(%q) = %q, still contains forbidden characters", input, got)
		}
	}
}

func TestSanitizeFileNameCapsLength(t *testing.T) {
	long := strings.Repeat("a", 500)
	got := SanitizeFileName(long)
	if utf8.RuneCountInString(got) > 200 {
		t.Errorf("SanitizeFileName result length = %d runes, want <= 200", utf8.RuneCountInString(got))
	}
}

func TestSanitizeFileNameTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("日本語のタイトル", 100)
	got := SanitizeFileName(long)
	if !utf8.ValidString(got) {
		t.Errorf("SanitizeFileName(%q...) = %q, not valid UTF-8", long[:24], got)
	}
	if n := utf8.RuneCountInString(got); n > 200 {
		t.Errorf("SanitizeFileName result length = %d runes, want <= 200", n)
	}
}

func TestExtractTitleFromFilename(t *testing.T) {
	tests := []struct {
		name        string
		filename    string
		albumArtist string
		want        string
	}{
		{"artist prefix stripped", "Queen - Bohemian Rhapsody.flac", "Queen", "Bohemian Rhapsody"},
		{"artist album title", "Queen - A Night at the Opera - Bohemian Rhapsody.flac", "", "Bohemian Rhapsody"},
		{"no separator", "Bohemian Rhapsody.flac", "", "Bohemian Rhapsody"},
		{"unknown artist falls back to last segment", "Queen - Bohemian Rhapsody.mp3", "", "Bohemian Rhapsody"},
		{"case-insensitive artist match", "queen - Bohemian Rhapsody.flac", "Queen", "Bohemian Rhapsody"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractTitleFromFilename(tt.filename, tt.albumArtist)
			if got != tt.want {
				t.Errorf("ExtractTitleFromFilename(%q, %q) = %q, want %q", tt.filename, tt.albumArtist, got, tt.want)
			}
		})
	}
}

func TestTrackFileName(t *testing.T) {
	got := TrackFileName("AC/DC", "T.N.T?", "FLAC")
	if strings.ContainsAny(got, `\/:*?"<>|`) {
		t.Errorf("TrackFileName produced unsafe name %q", got)
	}
	if !strings.HasSuffix(got, ".flac") {
		t.Errorf("TrackFileName = %q, want lowercase extension", got)
	}
}

func TestParseSelectionInput(t *testing.T) {
	got, err := ParseSelectionInput("1-3, 5, 2", 10)
	if err != nil {
		t.Fatalf("ParseSelectionInput returned error: %v", err)
	}
	want := []int{1, 2, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("ParseSelectionInput = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ParseSelectionInput = %v, want %v", got, want)
			break
		}
	}
}

func TestIdToString(t *testing.T) {
	if got := IdToString("abc"); got != "abc" {
		t.Errorf("IdToString(string) = %q", got)
	}
	if got := IdToString(float64(42)); got != "42" {
		t.Errorf("IdToString(float64) = %q, want 42", got)
	}
	if got := IdToString(7); got != "7" {
		t.Errorf("IdToString(int) = %q, want 7", got)
	}
	if got := IdToString(nil); got != "" {
		t.Errorf("IdToString(nil) = %q, want empty", got)
	}
}
