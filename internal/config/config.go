package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const (
	RequestTimeout    = 10 * time.Minute
	UserAgent         = "squid-downloader/1.0 ( squid-downloader@example.com )"
	DefaultMaxRetries = 3

	// Minimum interval between consecutive MusicBrainz / AcoustID calls.
	DefaultLookupInterval = 1 * time.Second
)

// QualityMap maps a requested download format to the catalog's quality tier.
var QualityMap = map[string]int{
	"FLAC": 27,
	"MP3":  5,
}

// TranscodeTarget describes how a requested format maps onto a catalog
// download format and a final file extension.
type TranscodeTarget struct {
	Download string
	Ext      string
}

// TranscodeMap maps the user-requested format to a download format and final
// extension. ALAC is downloaded as FLAC and re-encoded.
var TranscodeMap = map[string]TranscodeTarget{
	"FLAC": {Download: "FLAC", Ext: "flac"},
	"MP3":  {Download: "MP3", Ext: "mp3"},
	"ALAC": {Download: "FLAC", Ext: "m4a"},
}

// Config holds all runtime configuration.
type Config struct {
	APIURL               string `json:"APIURL"`
	DownloadLocation     string `json:"DownloadLocation"`
	Parallelism          int    `json:"Parallelism"`
	Format               string `json:"Format"`
	Bitrate              string `json:"Bitrate"`
	MusicBrainzUserAgent string `json:"MusicBrainzUserAgent"`
	AcoustIDAPIKey       string `json:"AcoustIDAPIKey"`
	FpcalcPath           string `json:"FpcalcPath"`
	SpotifyClientID      string `json:"SpotifyClientID"`
	SpotifyClientSecret  string `json:"SpotifyClientSecret"`
	VerifyDownloads      bool   `json:"VerifyDownloads"`
	MaxRetryAttempts     int    `json:"MaxRetryAttempts"`
	WarningBehavior      string `json:"WarningBehavior"` // "immediate", "summary", or "silent"
}

// DefaultConfig returns a config populated with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		APIURL:               "https://eu.qobuz.squid.wtf",
		DownloadLocation:     "downloads",
		Parallelism:          5,
		Format:               "flac",
		Bitrate:              "320",
		MusicBrainzUserAgent: UserAgent,
		FpcalcPath:           "fpcalc",
		VerifyDownloads:      true,
		MaxRetryAttempts:     DefaultMaxRetries,
		WarningBehavior:      "summary",
	}
}

// LoadConfig loads configuration from a JSON file
func LoadConfig(filePath string, config *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return nil
}

// SaveConfig saves configuration to a JSON file
func SaveConfig(filePath string, config *Config) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	dir := filepath.Dir(filePath)
	if err := CreateDirIfNotExists(dir); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides loads a .env file when present and overlays environment
// variables onto the config. Environment always wins over the JSON file.
func (cfg *Config) ApplyEnvOverrides() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	if v := os.Getenv("SQUID_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("DOWNLOAD_BASE_DIR"); v != "" {
		cfg.DownloadLocation = v
	}
	if v := os.Getenv("MUSICBRAINZ_USER_AGENT"); v != "" {
		cfg.MusicBrainzUserAgent = v
	}
	if v := os.Getenv("ACOUSTID_API_KEY"); v != "" {
		cfg.AcoustIDAPIKey = v
	}
	if v := os.Getenv("FPCALC_EXECUTABLE_PATH"); v != "" {
		cfg.FpcalcPath = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		cfg.SpotifyClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		cfg.SpotifyClientSecret = v
	}
}

// CreateDirIfNotExists creates a directory if it does not exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}
