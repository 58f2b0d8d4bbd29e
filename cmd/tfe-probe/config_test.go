package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestConfigInit_CreatesOptionsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yml")

	out, err := runCommand(t, "config", "init", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Options file created")

	out, err = runCommand(t, "config", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Options file is valid")
}

func TestConfigInit_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opts.yml")
	_, err := runCommand(t, "config", "init", path)
	require.NoError(t, err)

	_, err = runCommand(t, "config", "init", path)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestConfigValidate_MissingFile(t *testing.T) {
	_, err := runCommand(t, "config", "validate", filepath.Join(t.TempDir(), "absent.yml"))

	require.Error(t, err)
}

func TestReport_RequiresOrgFlag(t *testing.T) {
	_, err := runCommand(t, "report")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "org")
}
