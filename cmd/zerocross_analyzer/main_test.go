package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestCLIHelpAndSubcommands(t *testing.T) {
	tests := []struct {
		args    []string
		wantOut string
		wantErr bool
	}{
		{args: []string{"--help"}, wantOut: "oscilloscope CSV exports"},
		{args: []string{"analyze", "--help"}, wantOut: "--min-interval"},
		{args: []string{"config", "--help"}, wantOut: "effective configuration"},
		{args: []string{"version"}, wantOut: "zerocross_analyzer dev"},
		{args: []string{"unknown"}, wantErr: true},
	}
	for _, tt := range tests {
		out, err := execute(t, tt.args...)
		if tt.wantErr {
			assert.Error(t, err, "%v", tt.args)
			continue
		}
		require.NoError(t, err, "%v", tt.args)
		assert.Contains(t, out, tt.wantOut, "%v", tt.args)
	}
}

func TestConfigCommandPrintsOverrides(t *testing.T) {
	out, err := execute(t, "config", "--workers", "7", "--locale", "ja", "--format", "pdf,sqlite")
	require.NoError(t, err)

	assert.Contains(t, out, "workers: 7")
	assert.Contains(t, out, "locale: ja")
	assert.Contains(t, out, "- pdf")
	assert.Contains(t, out, "- sqlite")
	assert.Contains(t, out, "encoding: shift_jis")
}

func TestConfigCommandRejectsInvalidValues(t *testing.T) {
	_, err := execute(t, "config", "--min-interval", "-1")
	assert.ErrorContains(t, err, "analysis.min_interval")
}

func TestAnalyzeCommand(t *testing.T) {
	in := t.TempDir()
	src := writeWave(t, in, "scope.csv", 0.4)
	outDir := t.TempDir()

	out, err := execute(t, "analyze", "--encoding", "utf-8", "--output-dir", outDir,
		"--format", "xlsx,csv", "--output", "result", "--no-color", "--log-level", "error", src)
	require.NoError(t, err)

	assert.Contains(t, out, "scope.csv")
	assert.FileExists(t, filepath.Join(outDir, "result.xlsx"))
	assert.FileExists(t, filepath.Join(outDir, "result", "scope.csv"))
}

func TestAnalyzeCommandWithoutFiles(t *testing.T) {
	_, err := execute(t, "analyze", "--output-dir", t.TempDir())
	assert.ErrorIs(t, err, ErrNoInputs)
}

func TestAnalyzeCommandUsesConfigFile(t *testing.T) {
	in := t.TempDir()
	src := writeWave(t, in, "scope.csv", 0.4)
	outDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "zerocross.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("input:\n  encoding: utf-8\noutput:\n  formats: [sqlite]\n  dir: "+outDir+"\n"), 0o600))

	_, err := execute(t, "analyze", "--config", cfgPath, "--output", "db", "--log-level", "error", src)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "db.db"))
}
