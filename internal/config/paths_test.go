package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	cfg := Default()
	cfg.Output.Dir = "out"
	abs := filepath.Join(t.TempDir(), "elsewhere.db")
	cfg.Output.SQLiteFile = abs

	p := cfg.GetPaths()

	assert.Equal(t, filepath.Join("out", DefaultUnifiedFile), p.UnifiedCSV)
	assert.Equal(t, filepath.Join("out", "summary"), p.SummaryDir)
	assert.Equal(t, filepath.Join("out", "insights"), p.InsightsDir)
	assert.Equal(t, filepath.Join("out", DefaultReportFile), p.RunReport)
	assert.Equal(t, abs, p.SQLiteDB, "absolute paths are kept")
	assert.Equal(t, filepath.Join(DefaultInputDir, "Year2014.csv"), p.ResolveInput("Year2014.csv"))
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Output.Dir = filepath.Join(t.TempDir(), "nested", "out")

	p := cfg.GetPaths()
	require.NoError(t, p.EnsureDirectories())

	for _, dir := range []string{p.OutputDir, p.SummaryDir, p.InsightsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
	assert.True(t, FileExists(p.OutputDir))
	assert.False(t, FileExists(p.UnifiedCSV))
}
