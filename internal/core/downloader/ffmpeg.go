package downloader

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ConvertTrack re-encodes a downloaded FLAC file into the target format
// using ffmpeg, carrying the metadata over. Returns the converted file path.
func ConvertTrack(inputFile, format, bitrate string) (string, error) {
	outputExt := format
	if format == "alac" {
		outputExt = "m4a"
	}
	outputFile := strings.TrimSuffix(inputFile, filepath.Ext(inputFile)) + "." + outputExt

	var cmd *exec.Cmd
	switch format {
	case "mp3":
		cmd = exec.Command("ffmpeg", "-i", inputFile, "-b:a", bitrate+"k", "-vn", "-map_metadata", "0", outputFile)
	case "alac":
		cmd = exec.Command("ffmpeg", "-i", inputFile, "-c:a", "alac", "-vn", "-map_metadata", "0", outputFile)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}

	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("failed to convert track: %w\nffmpeg output: %s", err, string(output))
	}

	if _, err := os.Stat(outputFile); os.IsNotExist(err) {
		return "", fmt.Errorf("converted file not found after conversion")
	}

	return outputFile, nil
}
