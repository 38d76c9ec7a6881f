package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValidateRequiresSourcePath(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source path")
}

func TestValidateRejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.SourcePath = "."
	cfg.Threshold = 0
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownFormat(t *testing.T) {
	cfg := Default()
	cfg.SourcePath = "."
	cfg.OutputFormat = OutputFormat("yaml")
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsUnknownLanguage(t *testing.T) {
	cfg := Default()
	cfg.SourcePath = "."
	cfg.Languages = []string{"cobol"}
	require.Error(t, cfg.Validate())
}

func TestLoadKDLFileMissingIsNotError(t *testing.T) {
	base := Default()
	cfg, err := LoadKDLFile(filepath.Join(t.TempDir(), "absent.kdl"), base)
	require.NoError(t, err)
	assert.Equal(t, base, cfg)
}

func TestLoadKDLFileAppliesValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".dupescan.kdl")
	contents := `
source-path "./src"
languages "golang" "rust"
excludes "**/vendor/**" "**/testdata/**"
output-format "text"
threshold 8
threads 4
max-file-size "2MB"
debug #true
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg, err := LoadKDLFile(path, Default())
	require.NoError(t, err)

	assert.Equal(t, "./src", cfg.SourcePath)
	assert.Equal(t, []string{"golang", "rust"}, cfg.Languages)
	assert.Equal(t, []string{"**/vendor/**", "**/testdata/**"}, cfg.Excludes)
	assert.Equal(t, FormatText, cfg.OutputFormat)
	assert.Equal(t, 8, cfg.Threshold)
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, int64(2*1024*1024), cfg.MaxFileSize)
	assert.True(t, cfg.Debug)
}
