package shared

import (
	"fmt"
	"sort"
	"strings"
)

// WarningType represents different types of warnings
type WarningType int

const (
	ReleaseMatchWarning WarningType = iota
	TrackMatchWarning
	FingerprintWarning
	CoverArtWarning
	TagWriteWarning
	DownloadWarning
)

// Warning represents a single warning with context
type Warning struct {
	Type    WarningType
	Message string
	Context string // Track/Album context
	Details string // Additional details like error message
}

// WarningCollector collects warnings during a download-and-tag batch
type WarningCollector struct {
	warnings []Warning
	enabled  bool
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector(enabled bool) *WarningCollector {
	return &WarningCollector{
		warnings: make([]Warning, 0),
		enabled:  enabled,
	}
}

// AddWarning adds a warning to the collector
func (wc *WarningCollector) AddWarning(warningType WarningType, context, message, details string) {
	if !wc.enabled {
		return
	}

	wc.warnings = append(wc.warnings, Warning{
		Type:    warningType,
		Message: message,
		Context: context,
		Details: details,
	})
}

// AddReleaseMatchWarning records a failed MusicBrainz release match
func (wc *WarningCollector) AddReleaseMatchWarning(artist, album, details string) {
	context := fmt.Sprintf("%s - %s", artist, album)
	wc.AddWarning(ReleaseMatchWarning, context, "No confident MusicBrainz release match", details)
}

// AddTrackMatchWarning records a track that could not be matched within a release
func (wc *WarningCollector) AddTrackMatchWarning(title, details string) {
	wc.AddWarning(TrackMatchWarning, title, "Track not found in selected release", details)
}

// AddFingerprintWarning records a fingerprint identification failure
func (wc *WarningCollector) AddFingerprintWarning(file, details string) {
	wc.AddWarning(FingerprintWarning, file, "Acoustic fingerprint lookup failed", details)
}

// AddCoverArtWarning records a cover art fetch or embed failure
func (wc *WarningCollector) AddCoverArtWarning(context, details string) {
	wc.AddWarning(CoverArtWarning, context, "Cover art unavailable", details)
}

// AddTagWriteWarning records a per-file tag write failure
func (wc *WarningCollector) AddTagWriteWarning(file, details string) {
	wc.AddWarning(TagWriteWarning, file, "Failed to write tags", details)
}

// AddDownloadWarning records a failed or skipped download
func (wc *WarningCollector) AddDownloadWarning(track, details string) {
	wc.AddWarning(DownloadWarning, track, "Download failed", details)
}

// HasWarnings returns true if there are any warnings
func (wc *WarningCollector) HasWarnings() bool {
	return len(wc.warnings) > 0
}

// GetWarningCount returns the total number of warnings
func (wc *WarningCollector) GetWarningCount() int {
	return len(wc.warnings)
}

// GetWarningsByType returns warnings grouped by type
func (wc *WarningCollector) GetWarningsByType() map[WarningType][]Warning {
	grouped := make(map[WarningType][]Warning)
	for _, warning := range wc.warnings {
		grouped[warning.Type] = append(grouped[warning.Type], warning)
	}
	return grouped
}

// PrintSummary prints a formatted summary of all warnings
func (wc *WarningCollector) PrintSummary() {
	if !wc.HasWarnings() {
		return
	}

	ColorWarning.Printf("\nWarning Summary (%d warnings):\n", len(wc.warnings))
	ColorWarning.Println(strings.Repeat("─", 50))

	grouped := wc.GetWarningsByType()

	var types []WarningType
	for warningType := range grouped {
		types = append(types, warningType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, warningType := range types {
		wc.printWarningTypeSection(warningType, grouped[warningType])
	}
}

// printWarningTypeSection prints warnings for a specific type
func (wc *WarningCollector) printWarningTypeSection(warningType WarningType, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}

	ColorWarning.Printf("\n%s (%d):\n", wc.getWarningTypeTitle(warningType), len(warnings))

	// Group similar warnings to avoid repetition
	contextCounts := make(map[string]int)
	for _, warning := range warnings {
		contextCounts[warning.Context]++
	}

	var contexts []string
	for context := range contextCounts {
		contexts = append(contexts, context)
	}
	sort.Strings(contexts)

	for _, context := range contexts {
		count := contextCounts[context]
		if count > 1 {
			ColorWarning.Printf("  • %s (×%d)\n", context, count)
		} else {
			ColorWarning.Printf("  • %s\n", context)
		}
	}
}

// getWarningTypeTitle returns a human-readable title for a warning type
func (wc *WarningCollector) getWarningTypeTitle(warningType WarningType) string {
	switch warningType {
	case ReleaseMatchWarning:
		return "MusicBrainz Release Match Failures"
	case TrackMatchWarning:
		return "Track Match Failures"
	case FingerprintWarning:
		return "Fingerprint Identification Failures"
	case CoverArtWarning:
		return "Cover Art Failures"
	case TagWriteWarning:
		return "Tag Write Failures"
	case DownloadWarning:
		return "Download Failures"
	default:
		return "Other Warnings"
	}
}
