package shared

import (
	"bufio"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Constants
const (
	DefaultMaxRetries = 3
	UserAgent         = "squid-downloader/1.0"
)

// HTTPError represents an HTTP error with status code
type HTTPError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s - %s", e.StatusCode, e.Status, e.Message)
}

// IsRetryableHTTPError checks if an HTTP error should be retried
func IsRetryableHTTPError(err error) bool {
	for err != nil {
		if httpErr, ok := err.(*HTTPError); ok {
			switch httpErr.StatusCode {
			case http.StatusServiceUnavailable,
				http.StatusTooManyRequests,
				http.StatusBadGateway,
				http.StatusGatewayTimeout:
				return true
			}
		}
		if unwrapped, ok := err.(interface{ Unwrap() error }); ok {
			err = unwrapped.Unwrap()
		} else {
			break
		}
	}
	return false
}

// RetryWithBackoff retries the given function with exponential backoff.
func RetryWithBackoff(maxRetries int, initialDelaySec int, fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		delay := time.Duration(initialDelaySec) * time.Second * (1 << attempt)
		jitter := time.Duration(rand.Intn(100)) * time.Millisecond
		time.Sleep(delay + jitter)
	}
	return fmt.Errorf("failed after %d attempts: %w", maxRetries, err)
}

// RetryWithBackoffForHTTP retries HTTP requests, skipping errors that are not
// worth retrying (4xx other than 429).
func RetryWithBackoffForHTTP(maxRetries int, initialDelay, maxDelay time.Duration, fn func() error) error {
	var lastErr error

	if maxRetries == 0 {
		return fn()
	}

	for attempt := 0; attempt < maxRetries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		if !IsRetryableHTTPError(lastErr) {
			return lastErr
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := initialDelay * time.Duration(1<<uint(attempt))
		if delay > maxDelay {
			delay = maxDelay
		}

		// Add jitter (±25% of delay)
		jitter := time.Duration(rand.Int63n(int64(delay/2))) - delay/4
		finalDelay := delay + jitter
		if finalDelay < 0 {
			finalDelay = delay
		}

		DebugPrintf("HTTP request failed (attempt %d/%d): %v. Retrying in %v\n",
			attempt+1, maxRetries, lastErr, finalDelay)

		time.Sleep(finalDelay)
	}

	return fmt.Errorf("failed after %d attempts: %w", maxRetries, lastErr)
}

var forbiddenFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]`)

// SanitizeFileName cleans a string to make it safe for use as a file or
// directory name: forbidden characters are stripped, leading/trailing dots and
// spaces are trimmed, and the result is capped at 200 characters.
func SanitizeFileName(name string) string {
	result := forbiddenFilenameChars.ReplaceAllString(name, "")
	result = strings.Trim(result, " .")
	if utf8.RuneCountInString(result) > 200 {
		result = string([]rune(result)[:200])
		result = strings.Trim(result, " .")
	}
	if result == "" {
		result = "unknown"
	}
	return result
}

// AlbumFolderName builds the per-album folder name "{artist} - {title}".
func AlbumFolderName(artist, title string) string {
	return SanitizeFileName(fmt.Sprintf("%s - %s", artist, title))
}

// TrackFileName builds the track filename "{artist} - {title}.{ext}".
func TrackFileName(artist, title, ext string) string {
	return fmt.Sprintf("%s - %s.%s", SanitizeFileName(artist), SanitizeFileName(title), strings.ToLower(ext))
}

// ExtractTitleFromFilename attempts to recover the track title from a filename
// formatted as "Artist - Title.ext" or "Artist - Album - Title.ext". When the
// album artist is known its prefix is stripped first.
func ExtractTitleFromFilename(filename, albumArtist string) string {
	base := filepath.Base(filename)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if albumArtist != "" {
		prefix := SanitizeFileName(albumArtist) + " - "
		if len(base) > len(prefix) && strings.EqualFold(base[:len(prefix)], prefix) {
			return strings.TrimSpace(base[len(prefix):])
		}
	}

	parts := strings.Split(base, " - ")
	if len(parts) >= 2 {
		return strings.TrimSpace(parts[len(parts)-1])
	}
	return strings.TrimSpace(base)
}

// VerifyFileSize reports whether the file on disk matches the expected byte
// count, returning the actual size alongside.
func VerifyFileSize(filePath string, expectedSize int64) (bool, int64, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return false, 0, fmt.Errorf("failed to stat file: %w", err)
	}
	return info.Size() == expectedSize, info.Size(), nil
}

// VerifyFileIntegrity performs additional checks on downloaded files
func VerifyFileIntegrity(filePath string, expectedSize int64) error {
	if expectedSize <= 0 {
		return nil // Skip verification if no expected size
	}

	matches, actualSize, err := VerifyFileSize(filePath, expectedSize)
	if err != nil {
		return fmt.Errorf("file verification failed: %w", err)
	}
	if !matches {
		return fmt.Errorf("file size mismatch: expected %d bytes, got %d bytes", expectedSize, actualSize)
	}
	return nil
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// CreateDirIfNotExists creates a directory if it doesn't exist
func CreateDirIfNotExists(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// TruncateString truncates a string to the specified length, adding ellipsis if truncated.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// IdToString renders a catalog identifier, which may arrive as a string or a
// JSON number, as a string.
func IdToString(id interface{}) string {
	switch v := id.(type) {
	case string:
		return v
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

// GetUserInput prompts the user for input with a default value
func GetUserInput(prompt, defaultValue string) string {
	if defaultValue != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, defaultValue)
	}
	ColorPrompt.Print(prompt + ": ")
	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		input := strings.TrimSpace(scanner.Text())
		if input == "" && defaultValue != "" {
			return defaultValue
		}
		return input
	}
	return defaultValue
}

// GetYesNoInput prompts the user for a yes/no input with a default value
func GetYesNoInput(prompt string, defaultValue string) bool {
	for {
		input := GetUserInput(prompt, defaultValue)
		switch strings.ToLower(input) {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		default:
			ColorError.Printf("Invalid input. Please enter 'y' or 'n'.\n")
		}
	}
}

// ParseSelectionInput parses a string like "1-7, 10, 12-15" into a slice of unique integers.
func ParseSelectionInput(input string, max int) ([]int, error) {
	selected := make(map[int]bool)
	var result []int

	parts := strings.Split(input, ",")
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			rangeParts := strings.Split(part, "-")
			if len(rangeParts) != 2 {
				return nil, fmt.Errorf("invalid range format: %s", part)
			}
			start, err1 := strconv.Atoi(strings.TrimSpace(rangeParts[0]))
			if err1 != nil {
				return nil, fmt.Errorf("invalid start of range: %s", rangeParts[0])
			}
			end, err2 := strconv.Atoi(strings.TrimSpace(rangeParts[1]))
			if err2 != nil {
				return nil, fmt.Errorf("invalid end of range: %s", rangeParts[1])
			}

			if start > end {
				start, end = end, start
			}

			for i := start; i <= end; i++ {
				if i >= 1 && i <= max && !selected[i] {
					selected[i] = true
					result = append(result, i)
				}
			}
		} else {
			num, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid number: %s", part)
			}
			if num >= 1 && num <= max && !selected[num] {
				selected[num] = true
				result = append(result, num)
			}
		}
	}

	return result, nil
}
