package match

import (
	"context"
	"strings"

	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/shared"
)

// Scoring weights for release candidates. Artist and title similarity carry
// most of the weight so a strong text match nearly clears the floor alone.
const (
	artistWeight = 40
	titleWeight  = 35

	albumTypeBonus = 10
	coverArtBonus  = 5
	officialBonus  = 3

	trackCountExactBonus = 8
	trackCountCloseBonus = 4
	yearExactBonus       = 8
	yearCloseBonus       = 4

	searchLimit    = 20
	scoreFloor     = 60
	highConfidence = 80
)

// MatchedRelease is the chosen registry release for a source album, with the
// score that selected it.
type MatchedRelease struct {
	ID         string
	Title      string
	Artist     string
	Score      float64
	Confidence string // "high" above 80, otherwise "medium"
}

// Registry is the slice of the metadata registry the matcher needs.
type Registry interface {
	SearchReleases(ctx context.Context, artist, album string, limit int) ([]musicbrainz.Release, error)
	GetRelease(ctx context.Context, mbid string) (*musicbrainz.Release, error)
}

// Matcher scores registry release candidates against catalog album data.
type Matcher struct {
	registry Registry
}

// NewMatcher creates a release matcher backed by the given registry.
func NewMatcher(registry Registry) *Matcher {
	return &Matcher{registry: registry}
}

// FindBestRelease searches the registry for artist+album and returns the
// single best-scoring candidate, or nil when nothing clears the confidence
// floor. trackCount and releaseYear are optional refinements; pass 0 to skip
// them. Registry failures return nil rather than an error so callers fall
// back to catalog data.
func (m *Matcher) FindBestRelease(ctx context.Context, artist, album string, trackCount, releaseYear int) *MatchedRelease {
	candidates, err := m.registry.SearchReleases(ctx, artist, album, searchLimit)
	if err != nil {
		shared.ColorWarning.Printf("⚠️ Release search failed for %s - %s: %v\n", artist, album, err)
		return nil
	}
	if len(candidates) == 0 {
		return nil
	}

	var best *musicbrainz.Release
	var bestScore float64

	for i := range candidates {
		score := m.scoreCandidate(ctx, &candidates[i], artist, album, trackCount, releaseYear)
		shared.DebugPrintf("candidate %s (%s) scored %.1f", candidates[i].Title, candidates[i].ID, score)
		if score > bestScore {
			bestScore = score
			best = &candidates[i]
		}
	}

	if best == nil || bestScore <= scoreFloor {
		return nil
	}

	confidence := "medium"
	if bestScore > highConfidence {
		confidence = "high"
	}

	return &MatchedRelease{
		ID:         best.ID,
		Title:      best.Title,
		Artist:     musicbrainz.CreditedArtist(best.ArtistCredit),
		Score:      bestScore,
		Confidence: confidence,
	}
}

// scoreCandidate computes the additive score for one candidate release.
func (m *Matcher) scoreCandidate(ctx context.Context, release *musicbrainz.Release, artist, album string, trackCount, releaseYear int) float64 {
	var score float64

	score += Similarity(artist, musicbrainz.CreditedArtist(release.ArtistCredit)) * artistWeight
	score += Similarity(album, release.Title) * titleWeight

	if strings.EqualFold(release.ReleaseGroup.PrimaryType, "Album") {
		score += albumTypeBonus
	}
	if release.CoverArtArchive.Front {
		score += coverArtBonus
	}

	if trackCount > 0 {
		score += m.trackCountScore(ctx, release, trackCount)
	}

	if releaseYear > 0 && len(release.Date) >= 4 {
		if candidateYear := release.Year(); candidateYear > 0 {
			diff := candidateYear - releaseYear
			if diff < 0 {
				diff = -diff
			}
			switch {
			case diff == 0:
				score += yearExactBonus
			case diff <= 1:
				score += yearCloseBonus
			}
		}
	}

	if strings.EqualFold(release.Status, "official") {
		score += officialBonus
	}

	return score
}

// trackCountScore compares the candidate's full track listing against the
// catalog's track count. Search results only carry an approximate count, so
// the full release is fetched; a failed fetch contributes nothing.
func (m *Matcher) trackCountScore(ctx context.Context, release *musicbrainz.Release, trackCount int) float64 {
	candidateCount := release.TotalTracks()
	if len(release.Media) == 0 {
		full, err := m.registry.GetRelease(ctx, release.ID)
		if err != nil {
			shared.DebugPrintf("track count lookup failed for %s: %v", release.ID, err)
			return 0
		}
		candidateCount = full.TotalTracks()
	}
	if candidateCount == 0 {
		return 0
	}

	diff := candidateCount - trackCount
	if diff < 0 {
		diff = -diff
	}
	switch {
	case diff == 0:
		return trackCountExactBonus
	case diff <= 2:
		return trackCountCloseBonus
	}
	return 0
}
