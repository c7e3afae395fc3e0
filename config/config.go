// Package config loads pipeline configuration from a YAML file.
//
// All fields are optional; zero values fall back to the package
// defaults of the stage they configure.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/curago/curago/dedup"
	"github.com/curago/curago/quality"
	"github.com/curago/curago/validate"
)

// DefaultFileName is the config file looked up when none is given.
const DefaultFileName = "curago.yaml"

// Config is the on-disk pipeline configuration.
type Config struct {
	// PipelineDir is the version store's base directory.
	PipelineDir string `yaml:"pipeline_dir"`

	// TrainingDataDir holds the canonical training files merges append
	// to and the dedup index seeds from.
	TrainingDataDir string `yaml:"training_data_dir"`

	// StatePath persists exact-duplicate fingerprints between runs.
	// Empty disables persistence.
	StatePath string `yaml:"state_path"`

	// PipelineName tags audit events.
	PipelineName string `yaml:"pipeline_name"`

	// Codec selects the record codec: "json" or "go-json".
	Codec string `yaml:"codec"`

	// AutoMerge merges each successful snapshot into the training file.
	AutoMerge bool `yaml:"auto_merge"`

	// SkipValidation lets a failed validation through to auto-merge.
	SkipValidation bool `yaml:"skip_validation"`

	Dedup      DedupConfig      `yaml:"dedup"`
	Quality    QualityConfig    `yaml:"quality"`
	Validation ValidationConfig `yaml:"validation"`
	Archive    ArchiveConfig    `yaml:"archive"`
	Audit      AuditConfig      `yaml:"audit"`
}

// DedupConfig mirrors dedup.Options.
type DedupConfig struct {
	NumPerm      int     `yaml:"num_perm"`
	ShingleSize  int     `yaml:"shingle_size"`
	LSHThreshold float64 `yaml:"lsh_threshold"`
}

// QualityConfig mirrors quality.Config.
type QualityConfig struct {
	MinContentLength  int     `yaml:"min_content_length"`
	MinAnswerLength   int     `yaml:"min_answer_length"`
	MaxAnswerLength   int     `yaml:"max_answer_length"`
	MaxTableRatio     float64 `yaml:"max_table_ratio"`
	MinAlphaRatio     float64 `yaml:"min_alpha_ratio"`
	MaxImageArtifacts int     `yaml:"max_image_artifacts"`
}

// ValidationConfig mirrors validate.Config.
type ValidationConfig struct {
	MinRecords           int     `yaml:"min_records"`
	MaxQualityDropPct    float64 `yaml:"max_quality_drop_pct"`
	MinAvgAnswerLength   int     `yaml:"min_avg_answer_length"`
	MaxAvgAnswerLength   int     `yaml:"max_avg_answer_length"`
	RequiredSystemPrompt string  `yaml:"required_system_prompt"`
}

// ArchiveConfig configures optional snapshot archival to object
// storage.
type ArchiveConfig struct {
	Enabled bool `yaml:"enabled"`

	// Backend is "local", "memory", "minio" or "s3".
	Backend string `yaml:"backend"`

	// Bucket and Prefix locate the objects. For the local backend,
	// Bucket is the directory path.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`

	// Endpoint, AccessKey, SecretKey and UseSSL apply to the minio
	// backend. The s3 backend uses the default AWS credential chain.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`

	// Compression is "gzip", "lz4" or "none".
	Compression string `yaml:"compression"`

	// RateLimitBytes throttles uploads to bytes per second. Zero means
	// unlimited.
	RateLimitBytes int `yaml:"rate_limit_bytes"`
}

// AuditConfig configures the optional DynamoDB audit trail.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Table   string `yaml:"table"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		PipelineDir:     "./pipeline",
		TrainingDataDir: "./training_data",
		PipelineName:    "default",
		Codec:           "go-json",
	}
}

// Load reads a YAML config file. A missing file yields Default().
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// DedupOptions converts to dedup.Options, zero fields falling back to
// the dedup defaults.
func (c Config) DedupOptions() dedup.Options {
	o := dedup.DefaultOptions()
	if c.Dedup.NumPerm > 0 {
		o.NumPerm = c.Dedup.NumPerm
	}
	if c.Dedup.ShingleSize > 0 {
		o.ShingleSize = c.Dedup.ShingleSize
	}
	if c.Dedup.LSHThreshold > 0 {
		o.LSHThreshold = c.Dedup.LSHThreshold
	}
	return o
}

// QualityConfig converts to quality.Config, zero fields falling back to
// the quality defaults.
func (c Config) QualityConfig() quality.Config {
	q := quality.DefaultConfig()
	if c.Quality.MinContentLength > 0 {
		q.MinContentLength = c.Quality.MinContentLength
	}
	if c.Quality.MinAnswerLength > 0 {
		q.MinAnswerLength = c.Quality.MinAnswerLength
	}
	if c.Quality.MaxAnswerLength > 0 {
		q.MaxAnswerLength = c.Quality.MaxAnswerLength
	}
	if c.Quality.MaxTableRatio > 0 {
		q.MaxTableRatio = c.Quality.MaxTableRatio
	}
	if c.Quality.MinAlphaRatio > 0 {
		q.MinAlphaRatio = c.Quality.MinAlphaRatio
	}
	if c.Quality.MaxImageArtifacts > 0 {
		q.MaxImageArtifacts = c.Quality.MaxImageArtifacts
	}
	return q
}

// ValidationConfig converts to validate.Config, zero fields falling
// back to the validation defaults.
func (c Config) ValidationConfig() validate.Config {
	v := validate.DefaultConfig()
	if c.Validation.MinRecords > 0 {
		v.MinRecords = c.Validation.MinRecords
	}
	if c.Validation.MaxQualityDropPct > 0 {
		v.MaxQualityDropPct = c.Validation.MaxQualityDropPct
	}
	if c.Validation.MinAvgAnswerLength > 0 {
		v.MinAvgAnswerLength = c.Validation.MinAvgAnswerLength
	}
	if c.Validation.MaxAvgAnswerLength > 0 {
		v.MaxAvgAnswerLength = c.Validation.MaxAvgAnswerLength
	}
	if c.Validation.RequiredSystemPrompt != "" {
		v.RequiredSystemPrompt = c.Validation.RequiredSystemPrompt
	}
	return v
}
