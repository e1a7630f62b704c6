package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// markers c2patool prints when a file has no manifest store
var noManifestMarkers = []string{
	"no claim found",
	"jumbfnotfound",
	"no c2pa manifest",
	"manifest not found",
}

// C2PATool extracts manifest stores by running the c2patool binary.
// Signature and trust-chain validation are performed by the tool.
type C2PATool struct {
	Binary  string
	Timeout time.Duration
}

// NewC2PATool creates a new c2patool extractor
func NewC2PATool(binary string, timeout time.Duration) *C2PATool {
	if binary == "" {
		binary = "c2patool"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &C2PATool{
		Binary:  binary,
		Timeout: timeout,
	}
}

// Extract runs the tool on a file and decodes its report
func (c *C2PATool) Extract(ctx context.Context, path string) (*ManifestStore, error) {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.Binary, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		output := strings.TrimSpace(stderr.String() + "\n" + stdout.String())
		if isNoManifest(output) {
			return nil, ErrNoProvenance
		}

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%s exited with %d: %s", c.Binary, exitErr.ExitCode(), output)
		}
		return nil, fmt.Errorf("run %s: %w", c.Binary, err)
	}

	store, err := DecodeManifestStore(&stdout)
	if err != nil {
		return nil, err
	}

	return store, nil
}

func isNoManifest(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range noManifestMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
