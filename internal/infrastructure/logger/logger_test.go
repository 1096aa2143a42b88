package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestForEnvironment(t *testing.T) {
	prod := ForEnvironment("production")
	assert.Equal(t, "json", prod.Format)
	assert.Equal(t, "info", prod.Level)

	dev := ForEnvironment("development")
	assert.Equal(t, "console", dev.Format)
	assert.Equal(t, "debug", dev.Level)
	assert.Equal(t, "stderr", dev.Output)

	for _, env := range []string{"production", "development", ""} {
		l, err := New(ForEnvironment(env))
		require.NoError(t, err, env)
		assert.NotNil(t, l)
	}
}

func TestNew_Levels(t *testing.T) {
	for _, level := range []string{"", "debug", "INFO", "warn", "error"} {
		_, err := New(&Config{Level: level, Output: "stderr"})
		assert.NoError(t, err, level)
	}
	_, err := New(&Config{Level: "bogus", Output: "stderr"})
	assert.ErrorContains(t, err, "invalid log level")
}

func TestNew_FileOutputWithService(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	l, err := New(&Config{Level: "warn", Format: "json", Output: path, Service: "ledgerctl"})
	require.NoError(t, err)

	l.Info("filtered out")
	l.Warn("overpayment rejected", zap.String("code", "OVERPAYMENT"))
	require.NoError(t, Sync(l))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "overpayment rejected", entry["msg"])
	assert.Equal(t, "ledgerctl", entry["service"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "OVERPAYMENT", entry["code"])
	assert.Contains(t, entry, "time")
}

func TestNew_ConsoleFileIsPlain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.log")
	l, err := New(&Config{Format: "console", Output: path})
	require.NoError(t, err)
	l.Info("lease registered")
	require.NoError(t, Sync(l))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "INFO")
	assert.NotContains(t, string(raw), "\x1b[")
}

func TestNew_UnwritableFile(t *testing.T) {
	_, err := New(&Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.Error(t, err)
}

func TestTee(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.log")
	base, err := New(&Config{Level: "info", Format: "json", Output: path, Service: "ledgerctl"})
	require.NoError(t, err)

	extra, logs := observer.New(zapcore.InfoLevel)
	l := Tee(base, extra, nil)
	l.Info("lease registered", zap.String("lease_no", "LSE-2025-0001"))
	require.NoError(t, l.Sync())

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "lease registered", entry.Message)
	assert.Equal(t, "LSE-2025-0001", entry.ContextMap()["lease_no"])
	assert.NotContains(t, entry.ContextMap(), "service", "fields added before the tee stay on the base core")

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"lease_no":"LSE-2025-0001"`)
}
