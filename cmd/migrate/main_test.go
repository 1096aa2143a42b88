package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCreateThenList(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "create", "Add Meter Notes", "notes column on meters", "--path", dir, "--log-level", "error")
	require.NoError(t, err)

	ups, err := filepath.Glob(filepath.Join(dir, "*_add_meter_notes.up.sql"))
	require.NoError(t, err)
	require.Len(t, ups, 1)
	downs, err := filepath.Glob(filepath.Join(dir, "*_add_meter_notes.down.sql"))
	require.NoError(t, err)
	require.Len(t, downs, 1)

	out, err := run(t, "list", "--path", dir, "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "_add_meter_notes")
}

func TestArgumentValidation(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		args []string
	}{
		{"step needs a count", []string{"step"}},
		{"step count must be numeric", []string{"step", "many"}},
		{"goto version must be numeric", []string{"goto", "latest"}},
		{"force version must be numeric", []string{"force", "x"}},
		{"down needs confirmation", []string{"down"}},
		{"create needs a name", []string{"create"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, append(tt.args, "--path", dir, "--log-level", "error")...)
			assert.Error(t, err)
		})
	}
}

func TestResolveMigrationsPath(t *testing.T) {
	dir := t.TempDir()
	got, err := resolveMigrationsPath(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	got, err = resolveMigrationsPath("")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(got))
	assert.Equal(t, defaultMigrationsPath, filepath.Base(got))
}
