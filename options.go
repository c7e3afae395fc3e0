package curago

import (
	"log/slog"

	"github.com/curago/curago/archive"
	"github.com/curago/curago/audit"
	"github.com/curago/curago/codec"
	"github.com/curago/curago/dedup"
	"github.com/curago/curago/quality"
	"github.com/curago/curago/validate"
)

type options struct {
	codec            codec.Codec
	dedup            dedup.Options
	quality          quality.Config
	validation       validate.Config
	skipValidation   bool
	autoMerge        bool
	statePath        string
	pipelineName     string
	archiver         *archive.Archiver
	auditSink        audit.Sink
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Pipeline constructor behavior.
type Option func(*options)

// WithCodec configures the codec used for record and state files.
//
// If nil is passed, codec.Default is used.
func WithCodec(c codec.Codec) Option {
	return func(o *options) {
		if c == nil {
			c = codec.Default
		}
		o.codec = c
	}
}

// WithDedupOptions overrides the deduplication parameters (permutation
// count, shingle size, LSH threshold).
func WithDedupOptions(d dedup.Options) Option {
	return func(o *options) {
		o.dedup = d
	}
}

// WithQualityConfig overrides the quality filter thresholds.
func WithQualityConfig(c quality.Config) Option {
	return func(o *options) {
		o.quality = c
	}
}

// WithValidationConfig overrides the validation thresholds.
func WithValidationConfig(c validate.Config) Option {
	return func(o *options) {
		o.validation = c
	}
}

// WithSkipValidation disables the validation gate. Snapshots are still
// validated and the result reported, but a failed validation no longer
// blocks auto-merge.
func WithSkipValidation() Option {
	return func(o *options) {
		o.skipValidation = true
	}
}

// WithAutoMerge merges each successful snapshot into the training file
// at the end of the run. Without it, merging stays a separate explicit
// step.
func WithAutoMerge() Option {
	return func(o *options) {
		o.autoMerge = true
	}
}

// WithStatePath configures where exact-duplicate fingerprints are
// persisted between runs. Without it, dedup state lives only for the
// pipeline's lifetime and is rebuilt from the training data on start.
func WithStatePath(path string) Option {
	return func(o *options) {
		o.statePath = path
	}
}

// WithPipelineName sets the pipeline identifier stamped on audit
// events. Defaults to "default".
func WithPipelineName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.pipelineName = name
		}
	}
}

// WithArchiver uploads every new snapshot to object storage.
// Pass nil to disable archival.
func WithArchiver(a *archive.Archiver) Option {
	return func(o *options) {
		o.archiver = a
	}
}

// WithAuditSink records snapshot, merge, rollback and delete events to
// an external trail. Pass nil to disable auditing.
func WithAuditSink(s audit.Sink) Option {
	return func(o *options) {
		if s != nil {
			o.auditSink = s
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring
// pipeline stages. Pass nil to disable metrics collection.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc != nil {
			o.metricsCollector = mc
		}
	}
}

// WithLogger configures structured logging for pipeline stages.
// Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLogLevel creates a text logger with the specified level and sets
// it. Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		codec:            codec.Default,
		dedup:            dedup.DefaultOptions(),
		quality:          quality.DefaultConfig(),
		validation:       validate.DefaultConfig(),
		pipelineName:     "default",
		auditSink:        audit.NopSink{},
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
