package cmd

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/smallsh/core/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()

	out := &bytes.Buffer{}
	rootCmd.SetOut(out)
	rootCmd.SetErr(out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())

	return out.String()
}

func TestEndToEnd(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}

	dir := t.TempDir()

	out := execute(t, "--config", dir, "init")
	assert.Contains(t, out, "- writing config.yaml")
	assert.FileExists(t, filepath.Join(dir, "config.yaml"))

	out = execute(t, "--config", dir, "init")
	assert.Contains(t, out, "already exists, skipping")

	execute(t, "--config", dir, "-c", "true")
	assert.Equal(t, 0, exitStatus)
	assert.FileExists(t, filepath.Join(dir, "events.log"))

	out = execute(t, "--config", dir, "events", "report")
	assert.Contains(t, out, "log_entries: 2")
	assert.Contains(t, out, "sessions: 1")
	assert.Contains(t, out, "foreground: 1")

	// A second session, then a report limited to the first one.
	execute(t, "--config", dir, "-c", "true")

	out = execute(t, "--config", dir, "events", "report")
	assert.Contains(t, out, "log_entries: 4")
	assert.Contains(t, out, "sessions: 2")

	fd, err := os.Open(filepath.Join(dir, "events.log"))
	require.NoError(t, err)
	defer fd.Close()
	var sessions []string
	require.NoError(t, logger.ReadJSONLinesLog(fd, func(e *logger.Event) {
		sessions = append(sessions, e.SessionID)
	}))
	require.Len(t, sessions, 4)
	require.NotEqual(t, sessions[0], sessions[3])

	out = execute(t, "--config", dir, "events", "report", "--session", sessions[0][:8])
	assert.Contains(t, out, "log_entries: 2")
	assert.Contains(t, out, "sessions: 1")

	out = execute(t, "builtins")
	for _, name := range []string{"background", "cd", "exit", "foreground", "help", "status"} {
		assert.Contains(t, out, name)
	}
}
