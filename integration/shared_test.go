//go:build basic || database

// Package integration contains end-to-end tests of the repopulse binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
// Or with database containers: go test -tags database ./integration
package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a shared repopulse binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the repopulse binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "repopulse-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "repopulse")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build repopulse: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// runRepopulse runs the binary with env appended to the test environment and
// returns its stdout.
func runRepopulse(t *testing.T, env []string, args ...string) string {
	t.Helper()
	cmd := repopulseCommand(t, env, args...)
	output, err := cmd.Output()
	if err != nil {
		var stderr []byte
		if exitErr, ok := err.(*exec.ExitError); ok {
			stderr = exitErr.Stderr
		}
		require.NoError(t, err, "command failed: %s\nstdout: %s\nstderr: %s", cmd.String(), output, stderr)
	}
	return string(output)
}

// runRepopulseCombined is like runRepopulse but returns stdout and stderr together.
func runRepopulseCombined(t *testing.T, env []string, args ...string) string {
	t.Helper()
	cmd := repopulseCommand(t, env, args...)
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "command failed: %s\noutput: %s", cmd.String(), output)
	return string(output)
}

func repopulseCommand(t *testing.T, env []string, args ...string) *exec.Cmd {
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = t.TempDir() // keep config files of the checkout out of the run
	cmd.Env = append(os.Environ(), env...)
	return cmd
}

// writeFixtures writes CSV tables for repository 1 and returns their paths by query.
func writeFixtures(t *testing.T) map[string]string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"contributors_query": "id,cntrb_id,created_at\n" +
			"1,a,2023-01-01T00:00:00Z\n" +
			"1,b,2023-01-15T00:00:00Z\n" +
			"1,a,2023-04-01T00:00:00Z\n",
		"issues_query": "id,issue_id,created,closed\n" +
			"1,10,2024-01-01,2024-01-03\n" +
			"1,11,2024-01-02,\n" +
			"1,12,2024-01-01,2024-01-06\n",
		"issue_response_query": "id,issue_id,cntrb_id,created_at,closed_at,msg_timestamp,msg_cntrb_id\n" +
			"1,x,alice,2024-01-01,,2024-01-02,bob\n" +
			"1,y,carol,2024-01-01,,,\n",
	}
	paths := make(map[string]string, len(files))
	for query, content := range files {
		path := filepath.Join(dir, query+".csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		paths[query] = path
	}
	return paths
}

// loadFixtures imports every fixture table for repository 1.
func loadFixtures(t *testing.T, env []string) {
	t.Helper()
	for query, path := range writeFixtures(t) {
		runRepopulse(t, env, "load", "csv", path, "--query", query, "--repo-id", "1")
	}
}
