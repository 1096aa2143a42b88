package migration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add leases table", "add_leases_table"},
		{"Add-Leases-Table", "add_leases_table"},
		{"ADD_LEASES_TABLE", "add_leases_table"},
		{"add__leases__table", "add_leases_table"},
		{"Meter Readings 2", "meter_readings_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"trailing_", "trailing"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	mf, err := createAt(dir, "index payments by txn", "Unique transaction ids per account", now)
	require.NoError(t, err)

	assert.Equal(t, "20250203040506", mf.Version)
	assert.Equal(t, filepath.Join(dir, "20250203040506_index_payments_by_txn.up.sql"), mf.UpPath)
	assert.Equal(t, filepath.Join(dir, "20250203040506_index_payments_by_txn.down.sql"), mf.DownPath)

	up, err := os.ReadFile(mf.UpPath)
	require.NoError(t, err)
	assert.Contains(t, string(up), "-- index payments by txn")
	assert.Contains(t, string(up), "Unique transaction ids per account")
	assert.Contains(t, string(up), "BEGIN;")

	down, err := os.ReadFile(mf.DownPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(down), "-- index payments by txn (rollback)"))
}

func TestCreateMigration_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	now := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

	_, err := createAt(dir, "same", "", now)
	require.NoError(t, err)

	_, err = createAt(dir, "same", "", now)
	require.Error(t, err)
}

func TestCreateMigration_EmptyName(t *testing.T) {
	_, err := createAt(t.TempDir(), "!!!", "", time.Now())
	require.Error(t, err)
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"20250102000000_second.up.sql",
		"20250102000000_second.down.sql",
		"20250101000000_first.up.sql",
		"20250101000000_first.down.sql",
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o644))
	}

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250101000000_first", "20250102000000_second"}, names)
}

func TestListMigrations_MissingDir(t *testing.T) {
	names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "migrations")
	names, err := ListMigrations(dir)
	require.NoError(t, err)
	require.NotEmpty(t, names)

	for _, name := range names {
		_, err := os.Stat(filepath.Join(dir, name+".down.sql"))
		assert.NoError(t, err, "%s has no down migration", name)
	}
}
