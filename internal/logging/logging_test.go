package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Terminal(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Level: "debug", Terminal: true, Stdout: &buf})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	log.WithField("component", "bootstrap").Debug("map engine loaded")
	assert.Contains(t, buf.String(), "map engine loaded")
	assert.Contains(t, buf.String(), "DEBUG")
	assert.Contains(t, buf.String(), "bootstrap")
}

func TestNew_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	log, closer, err := New(Options{Level: "nonsense", Dir: dir})
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())

	log.Info("map ready")
	log.Debug("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format("2006-01-02.log")))
	require.NoError(t, err)
	assert.Contains(t, string(data), "map ready")
	assert.NotContains(t, string(data), "hidden")
}
