package acoustid

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

const fpcalcProbeTimeout = 5 * time.Second

// Fingerprint is the output of one fpcalc run over an audio file.
type Fingerprint struct {
	Duration    float64 `json:"duration"`
	Fingerprint string  `json:"fingerprint"`
}

// Fpcalc wraps the Chromaprint fpcalc executable.
type Fpcalc struct {
	path string
}

// NewFpcalc returns an fpcalc wrapper for the given executable path. An
// empty path falls back to looking up "fpcalc" on PATH.
func NewFpcalc(path string) *Fpcalc {
	if path == "" {
		path = "fpcalc"
	}
	return &Fpcalc{path: path}
}

// Available probes whether the fpcalc executable can actually run. Used at
// startup so fingerprint fallback can be disabled cleanly instead of failing
// per track.
func (f *Fpcalc) Available() bool {
	ctx, cancel := context.WithTimeout(context.Background(), fpcalcProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.path, "-version")
	return cmd.Run() == nil
}

// Calculate runs fpcalc over the file and parses its JSON output.
func (f *Fpcalc) Calculate(ctx context.Context, filePath string) (*Fingerprint, error) {
	cmd := exec.CommandContext(ctx, f.path, "-json", filePath)
	output, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("fpcalc failed on %s: %s", filePath, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("fpcalc failed on %s: %w", filePath, err)
	}

	var fp Fingerprint
	if err := json.Unmarshal(output, &fp); err != nil {
		return nil, fmt.Errorf("failed to parse fpcalc output: %w", err)
	}
	if fp.Fingerprint == "" || fp.Duration <= 0 {
		return nil, fmt.Errorf("fpcalc produced no usable fingerprint for %s", filePath)
	}

	return &fp, nil
}
