package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLineFormat(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("dev", "info", WithConsole(&buf), WithName("conftest"))
	require.NoError(t, err)

	log.Info("Browser launched", zap.String("browser", "chrome"))
	log.Debug("hidden")
	require.NoError(t, log.Close())

	line := strings.TrimSpace(buf.String())
	parts := strings.Split(line, " | ")
	require.GreaterOrEqual(t, len(parts), 4, line)

	_, err = time.Parse(TimeLayout, parts[0])
	assert.NoError(t, err)
	assert.Equal(t, "INFO", parts[1])
	assert.Equal(t, "conftest", parts[2])
	assert.Equal(t, "Browser launched", parts[3])
	assert.Contains(t, line, `"browser": "chrome"`)
	assert.NotContains(t, buf.String(), "hidden")
}

func TestFileSink(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.Local)

	log, err := New("dev", "debug", WithConsole(&bytes.Buffer{}), WithFileDir(dir), withNow(func() time.Time { return fixed }))
	require.NoError(t, err)

	log.Named("session").Warn("Screenshot failed")
	require.NoError(t, log.Close())

	assert.Equal(t, filepath.Join(dir, "execution_2026-03-04_05-06-07.log"), log.FilePath)
	data, err := os.ReadFile(log.FilePath)
	require.NoError(t, err)
	assert.Contains(t, string(data), " | WARN | framework.session | Screenshot failed")
}

func TestProdUsesJSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("prod", "info", WithConsole(&buf))
	require.NoError(t, err)

	log.Info("hello")
	require.NoError(t, log.Close())

	assert.True(t, strings.HasPrefix(buf.String(), "{"), buf.String())
	assert.Contains(t, buf.String(), `"msg":"hello"`)
}

func TestBadLevel(t *testing.T) {
	_, err := New("dev", "loud")
	assert.Error(t, err)
}

func TestNop(t *testing.T) {
	log := Nop()
	log.Info("nothing")
	assert.NoError(t, log.Close())
}
