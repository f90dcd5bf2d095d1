package logger

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLevelAndFormat(t *testing.T) {
	l := logrus.New()
	Configure(l, Options{Level: "debug", JSON: true})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())

	var buf bytes.Buffer
	l.SetOutput(&buf)
	l.WithField("booking_id", "bk-1").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "bk-1", entry["booking_id"])
	assert.Equal(t, "hello", entry["msg"])
}

func TestConfigureBadLevelFallsBackToInfo(t *testing.T) {
	l := logrus.New()
	Configure(l, Options{Level: "loud"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	_, ok := l.Formatter.(*logrus.TextFormatter)
	assert.True(t, ok)
}

func TestRotatingFileWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	w := RotatingFile(path)
	_, err := w.Write([]byte("line\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.FileExists(t, path)
}
