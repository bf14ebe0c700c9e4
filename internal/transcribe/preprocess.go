package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
)

// soxAvailable caches whether sox is in PATH (checked once at startup).
var soxAvailable *bool

// CheckSox checks if sox is available in PATH. Call once at startup.
func CheckSox() bool {
	if soxAvailable != nil {
		return *soxAvailable
	}
	_, err := exec.LookPath("sox")
	avail := err == nil
	soxAvailable = &avail
	return avail
}

// Preprocess normalizes arbitrary audio containers for speech recognition
// using sox: resample to 16kHz mono and normalize volume.
//
// Returns the path to a temporary WAV file and a cleanup function.
// If sox is unavailable, returns the original path with a no-op cleanup.
func Preprocess(ctx context.Context, inputPath string) (string, func(), error) {
	noop := func() {}

	if !CheckSox() {
		return inputPath, noop, nil
	}

	// Unique output per call; analyses run concurrently and must not
	// share a scratch file.
	tmp, err := os.CreateTemp("", "voxmood-preprocess-*.wav")
	if err != nil {
		return inputPath, noop, fmt.Errorf("create preprocess output: %w", err)
	}
	outPath := tmp.Name()
	tmp.Close()

	cmd := exec.CommandContext(ctx, "sox",
		inputPath, outPath,
		"rate", "16000",
		"channels", "1",
		"norm",
	)
	if err := cmd.Run(); err != nil {
		// Clean up partial output
		os.Remove(outPath)
		return inputPath, noop, fmt.Errorf("sox preprocess: %w", err)
	}

	cleanup := func() {
		os.Remove(outPath)
	}
	return outPath, cleanup, nil
}
