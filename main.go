package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"squid-downloader/internal/config"
	"squid-downloader/internal/services"
	"squid-downloader/internal/shared"
)

const toolVersion = "1.0.0"

var (
	apiURL           string
	downloadLocation string
	format           string
	debug            bool
	searchType       string
	releaseOverride  string
	pickRelease      bool
	webPort          int
)

var rootCmd = &cobra.Command{
	Use:     "squid-downloader",
	Version: toolVersion,
	Short:   "A music downloader that tags files with MusicBrainz metadata.",
	Long: fmt.Sprintf(`squid-downloader (v%s)

Downloads albums and tracks from a Qobuz mirror and tags each file with
full MusicBrainz metadata, falling back to AcoustID acoustic
fingerprinting when a track cannot be matched by title. Cover art is
embedded from the Cover Art Archive when available.`, toolVersion),
}

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog and pick items to download.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		container, coordinator := initServices()
		ctx := context.Background()

		items, err := handleSearch(ctx, container, args[0], searchType)
		if err != nil {
			shared.ColorError.Printf("❌ Search failed: %v\n", err)
			return
		}
		if len(items) == 0 {
			return
		}

		for _, item := range items {
			id := shared.IdToString(item.ID)
			switch item.Type {
			case "album":
				override := ""
				if pickRelease {
					override = promptReleasePick(ctx, container, item.Artist, item.Title)
				}
				if _, err := coordinator.DownloadAlbum(ctx, id, override); err != nil {
					shared.ColorError.Printf("❌ Failed to download album %s: %v\n", item.Title, err)
				} else {
					shared.ColorSuccess.Println("✅ Album download completed for", item.Title)
				}
			case "track":
				if _, err := coordinator.DownloadSingleTrack(ctx, id); err != nil {
					shared.ColorError.Printf("❌ Failed to download track %s: %v\n", item.Title, err)
				} else {
					shared.ColorSuccess.Println("✅ Track download completed for", item.Title)
				}
			default:
				shared.ColorError.Println("❌ Unknown item type:", item.Type)
			}
		}
	},
}

var albumCmd = &cobra.Command{
	Use:   "album [album_id]",
	Short: "Download an album by its catalog ID.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, coordinator := initServices()
		ctx := context.Background()
		if _, err := coordinator.DownloadAlbum(ctx, args[0], releaseOverride); err != nil {
			shared.ColorError.Printf("❌ Failed to download album: %v\n", err)
		} else {
			shared.ColorSuccess.Println("✅ Album download completed!")
		}
	},
}

var trackCmd = &cobra.Command{
	Use:   "track [track_id]",
	Short: "Download a single track by its catalog ID.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, coordinator := initServices()
		ctx := context.Background()
		if _, err := coordinator.DownloadSingleTrack(ctx, args[0]); err != nil {
			shared.ColorError.Printf("❌ Failed to download track: %v\n", err)
		} else {
			shared.ColorSuccess.Println("✅ Track download completed!")
		}
	},
}

var spotifyCmd = &cobra.Command{
	Use:   "spotify [url]",
	Short: "Download the tracks of a Spotify playlist, album, or track URL.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		container, coordinator := initServices()
		ctx := context.Background()
		if err := handleSpotifyURL(ctx, container, coordinator, args[0]); err != nil {
			shared.ColorError.Printf("❌ Spotify download failed: %v\n", err)
		}
	},
}

var webCmd = &cobra.Command{
	Use:   "web",
	Short: "Start the web interface.",
	Run: func(cmd *cobra.Command, args []string) {
		container, coordinator := initServices()
		if err := startWebServer(container, coordinator, webPort); err != nil {
			shared.ColorError.Printf("❌ Web server failed: %v\n", err)
			os.Exit(1)
		}
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Run the interactive configuration setup.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.DefaultConfig()
		if shared.FileExists(configFilePath) {
			if err := config.LoadConfig(configFilePath, cfg); err != nil {
				shared.ColorWarning.Printf("⚠️ Could not load existing config: %v\n", err)
			}
		}
		promptConfig(cfg)
		if err := config.SaveConfig(configFilePath, cfg); err != nil {
			shared.ColorError.Printf("❌ Failed to save config: %v\n", err)
			return
		}
		shared.ColorSuccess.Println("✅ Configuration saved to", configFilePath)
	},
}

const configFilePath = "config.json"

// initServices loads configuration and wires up the service container. A
// missing config file triggers the interactive first-run setup.
func initServices() (*services.Container, *services.Coordinator) {
	cfg := config.DefaultConfig()

	if !shared.FileExists(configFilePath) {
		shared.ColorInfo.Println("✨ Welcome to squid-downloader! Let's set up your configuration.")
		promptConfig(cfg)
		if err := config.SaveConfig(configFilePath, cfg); err != nil {
			shared.ColorError.Printf("❌ Failed to save initial config: %v\n", err)
		} else {
			shared.ColorSuccess.Println("✅ Configuration saved to", configFilePath)
		}
	} else if err := config.LoadConfig(configFilePath, cfg); err != nil {
		shared.ColorError.Printf("❌ Failed to load config from %s: %v\n", configFilePath, err)
	}

	cfg.ApplyEnvOverrides()

	// Command-line flags override config file and environment
	if apiURL != "" {
		cfg.APIURL = apiURL
	}
	if downloadLocation != "" {
		cfg.DownloadLocation = downloadLocation
	}
	if format != "" {
		cfg.Format = format
	}

	container := services.NewContainer(cfg, &http.Client{Timeout: config.RequestTimeout})
	reportFingerprintReadiness(container)
	return container, services.NewCoordinator(container)
}

// promptConfig walks the user through the settings that matter most.
func promptConfig(cfg *config.Config) {
	cfg.APIURL = shared.GetUserInput(fmt.Sprintf("Enter catalog API URL (e.g., %s)", cfg.APIURL), cfg.APIURL)
	cfg.DownloadLocation = shared.GetUserInput(fmt.Sprintf("Enter download location (e.g., %s)", cfg.DownloadLocation), cfg.DownloadLocation)

	parallelismStr := shared.GetUserInput(fmt.Sprintf("Enter number of parallel downloads (default: %d)", cfg.Parallelism), strconv.Itoa(cfg.Parallelism))
	if p, err := strconv.Atoi(parallelismStr); err == nil && p > 0 {
		cfg.Parallelism = p
	} else {
		shared.ColorWarning.Printf("⚠️ Invalid parallelism value '%s', using default %d.\n", parallelismStr, cfg.Parallelism)
	}

	cfg.AcoustIDAPIKey = shared.GetUserInput("Enter AcoustID API key (empty to disable fingerprinting)", cfg.AcoustIDAPIKey)
	if cfg.AcoustIDAPIKey != "" {
		cfg.FpcalcPath = shared.GetUserInput(fmt.Sprintf("Enter fpcalc path (default: %s)", cfg.FpcalcPath), cfg.FpcalcPath)
	}
}

// reportFingerprintReadiness logs once at startup whether the fingerprint
// fallback is usable, so a missing key or binary is not discovered mid-batch.
func reportFingerprintReadiness(container *services.Container) {
	if container.Identifier.Ready() {
		shared.ColorInfo.Println("Acoustic fingerprinting enabled")
		return
	}
	if container.Config.AcoustIDAPIKey == "" {
		shared.ColorWarning.Println("⚠️ AcoustID API key not set - fingerprint fallback disabled")
	} else {
		shared.ColorWarning.Printf("⚠️ fpcalc not found at '%s' - fingerprint fallback disabled\n", container.Config.FpcalcPath)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Catalog API URL")
	rootCmd.PersistentFlags().StringVar(&downloadLocation, "download-location", "", "Directory to save downloads")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Download format (FLAC, MP3, ALAC)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	searchCmd.Flags().StringVar(&searchType, "type", "album", "Type of content to search for (album, track)")
	searchCmd.Flags().BoolVar(&pickRelease, "pick-release", false, "Pick the MusicBrainz release manually instead of auto-matching")

	albumCmd.Flags().StringVar(&releaseOverride, "release", "", "MusicBrainz release MBID to tag against, skipping the automatic match")

	webCmd.Flags().IntVar(&webPort, "port", 8080, "Port for the web interface")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(albumCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(spotifyCmd)
	rootCmd.AddCommand(webCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	cobra.OnInitialize(func() {
		shared.InitializeColors()
		shared.Debug = debug
	})
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
