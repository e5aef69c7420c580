package main

import (
	"context"
	"fmt"

	"squid-downloader/internal/api/musicbrainz"
	"squid-downloader/internal/services"
	"squid-downloader/internal/shared"
)

// handleSearch runs a catalog search and prompts the user to pick items.
// Returns nil when there are no results or the user quits.
func handleSearch(ctx context.Context, container *services.Container, query, searchType string) ([]shared.SearchItem, error) {
	shared.ColorInfo.Printf("🔎 Searching for '%s' (type: %s)...\n", query, searchType)

	results, err := container.API.Search(ctx, query, searchType, 10)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		shared.ColorWarning.Println("No results found.")
		return nil, nil
	}

	shared.ColorInfo.Printf("Found %d results:\n", len(results))
	for i, item := range results {
		fmt.Printf("%d. [%s] %s - %s\n", i+1, item.Type, item.Title, item.Artist)
	}

	selectionStr := shared.GetUserInput("\nEnter numbers to download (e.g., '1,3,5-7' or 'q' to quit)", "")
	if selectionStr == "q" || selectionStr == "" {
		return nil, nil
	}

	selectedIndices, err := shared.ParseSelectionInput(selectionStr, len(results))
	if err != nil {
		return nil, fmt.Errorf("invalid selection: %w", err)
	}

	var selected []shared.SearchItem
	for _, index := range selectedIndices {
		selected = append(selected, results[index-1])
	}
	return selected, nil
}

// promptReleasePick searches the registry for releases of the album and lets
// the user pick one to tag against. An empty return falls back to the
// automatic match.
func promptReleasePick(ctx context.Context, container *services.Container, artist, album string) string {
	releases, err := container.Registry.SearchReleases(ctx, artist, album, 10)
	if err != nil {
		shared.ColorWarning.Printf("⚠️ Release search failed: %v\n", err)
		return ""
	}
	if len(releases) == 0 {
		shared.ColorWarning.Println("No MusicBrainz releases found, using automatic match.")
		return ""
	}

	shared.ColorInfo.Println("\n--- MusicBrainz Releases ---")
	for i := range releases {
		release := &releases[i]
		line := fmt.Sprintf("%d. %s - %s", i+1, release.Title, musicbrainz.CreditedArtist(release.ArtistCredit))
		if year := release.Year(); year != 0 {
			line += fmt.Sprintf(" (%d)", year)
		}
		if total := release.TotalTracks(); total != 0 {
			line += fmt.Sprintf(" [%d tracks]", total)
		}
		if release.Status != "" {
			line += " " + release.Status
		}
		fmt.Println(line)
	}

	selectionStr := shared.GetUserInput("\nPick a release (empty for automatic match)", "")
	if selectionStr == "" {
		return ""
	}
	indices, err := shared.ParseSelectionInput(selectionStr, len(releases))
	if err != nil || len(indices) == 0 {
		shared.ColorWarning.Println("⚠️ Invalid selection, using automatic match.")
		return ""
	}
	return releases[indices[0]-1].ID
}
