package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curago/curago/dedup"
	"github.com/curago/curago/quality"
	"github.com/curago/curago/validate"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	require.Equal(t, "./pipeline", cfg.PipelineDir)
	require.Equal(t, "go-json", cfg.Codec)
}

func TestLoad_OverridesAndFallbacks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curago.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pipeline_dir: /data/pipeline
training_data_dir: /data/training
pipeline_name: cmmc
auto_merge: true
dedup:
  lsh_threshold: 0.9
quality:
  min_answer_length: 150
validation:
  min_records: 5
archive:
  enabled: true
  backend: minio
  endpoint: localhost:9000
  bucket: curago
  compression: lz4
  rate_limit_bytes: 1048576
audit:
  enabled: true
  table: curago-audit
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/data/pipeline", cfg.PipelineDir)
	require.Equal(t, "cmmc", cfg.PipelineName)
	require.True(t, cfg.AutoMerge)
	require.True(t, cfg.Archive.Enabled)
	require.Equal(t, "minio", cfg.Archive.Backend)
	require.Equal(t, "lz4", cfg.Archive.Compression)
	require.Equal(t, 1048576, cfg.Archive.RateLimitBytes)
	require.Equal(t, "curago-audit", cfg.Audit.Table)

	// Set fields override, unset fields keep package defaults.
	d := cfg.DedupOptions()
	require.Equal(t, 0.9, d.LSHThreshold)
	require.Equal(t, dedup.DefaultNumPerm, d.NumPerm)

	q := cfg.QualityConfig()
	require.Equal(t, 150, q.MinAnswerLength)
	require.Equal(t, quality.DefaultMaxAnswerLength, q.MaxAnswerLength)

	v := cfg.ValidationConfig()
	require.Equal(t, 5, v.MinRecords)
	require.Equal(t, validate.DefaultRequiredSystemPrompt, v.RequiredSystemPrompt)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "curago.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline_dir: [unterminated"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}
