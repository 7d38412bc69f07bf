package config

import (
	"io"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(io.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("LoadConfigFile", func(t *testing.T) {
		_, err := Load(filepath.Join(tempDir, ConfigurationName))
		assert.Nil(t, err)
	})

	t.Run("Reinitialize", func(t *testing.T) {
		_, err := Initialize(tempDir, log.New(io.Discard, "", 0))
		assert.Nil(t, err)
	})

	t.Run("OpenEventLog", func(t *testing.T) {
		fd, err := cfg.OpenEventLog()
		assert.Nil(t, err)
		_, err = fd.Write([]byte("{}\n"))
		assert.Nil(t, err)
		fd.Close()

		rd, err := cfg.ReadEventLog()
		assert.Nil(t, err)
		rd.Close()
	})

	t.Run("HistoryPath", func(t *testing.T) {
		assert.Equal(t, filepath.Join(tempDir, "history"), cfg.HistoryPath())
	})
}

func TestDefaultHistoryPath(t *testing.T) {
	// The in-memory defaults have nowhere on disk to keep history.
	assert.Equal(t, "", Default().HistoryPath())
}
