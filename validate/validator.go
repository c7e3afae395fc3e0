// Package validate audits an already-filtered, already-deduplicated
// batch before it is allowed near the training corpus.
//
// Validation never drops records. Violations are data in the Result,
// not errors: format problems are the hard failure class, quality
// findings are soft warnings surfaced for human review. A batch passes
// iff it has zero format errors.
package validate

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/curago/curago/codec"
	"github.com/curago/curago/corpus"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
)

// Defaults for the validation configuration.
const (
	DefaultMinRecords           = 10
	DefaultMaxQualityDropPct    = 5.0
	DefaultMinAvgAnswerLength   = 200
	DefaultMaxAvgAnswerLength   = 5000
	DefaultRequiredSystemPrompt = "CMMC"
)

// Config holds the validation thresholds.
type Config struct {
	// MinRecords is the minimum batch size; smaller batches fail.
	MinRecords int
	// MaxQualityDropPct bounds the mean-answer-length drift against
	// the existing corpus, in percent.
	MaxQualityDropPct float64
	// MinAvgAnswerLength / MaxAvgAnswerLength bound the batch mean.
	MinAvgAnswerLength int
	MaxAvgAnswerLength int
	// RequiredSystemPrompt must appear in every system turn.
	RequiredSystemPrompt string
}

// DefaultConfig returns the standard validation thresholds.
func DefaultConfig() Config {
	return Config{
		MinRecords:           DefaultMinRecords,
		MaxQualityDropPct:    DefaultMaxQualityDropPct,
		MinAvgAnswerLength:   DefaultMinAvgAnswerLength,
		MaxAvgAnswerLength:   DefaultMaxAvgAnswerLength,
		RequiredSystemPrompt: DefaultRequiredSystemPrompt,
	}
}

// Result is the structured outcome of a validation pass. Rendering is
// the caller's concern.
type Result struct {
	Passed          bool               `json:"passed"`
	TotalRecords    int                `json:"total_records"`
	FormatErrors    []string           `json:"format_errors,omitempty"`
	QualityWarnings []string           `json:"quality_warnings,omitempty"`
	ComparisonNotes []string           `json:"comparison_notes,omitempty"`
	Stats           map[string]float64 `json:"stats,omitempty"`
	SourceList      []string           `json:"source_list,omitempty"`
}

func (r *Result) formatError(format string, args ...any) {
	r.FormatErrors = append(r.FormatErrors, fmt.Sprintf(format, args...))
}

func (r *Result) warn(format string, args ...any) {
	r.QualityWarnings = append(r.QualityWarnings, fmt.Sprintf(format, args...))
}

func (r *Result) note(format string, args ...any) {
	r.ComparisonNotes = append(r.ComparisonNotes, fmt.Sprintf(format, args...))
}

func (r *Result) stat(key string, value float64) {
	if r.Stats == nil {
		r.Stats = make(map[string]float64)
	}
	r.Stats[key] = value
}

// Summary returns a short human-readable status line.
func (r Result) Summary() string {
	status := "PASSED"
	if !r.Passed {
		status = "FAILED"
	}
	return fmt.Sprintf("validation %s: %d records, %d format errors, %d quality warnings",
		status, r.TotalRecords, len(r.FormatErrors), len(r.QualityWarnings))
}

// Validator runs the audit checks. It never mutates the batch.
type Validator struct {
	cfg   Config
	fsys  fs.FileSystem
	codec codec.Codec
}

// New creates a Validator. Zero-valued thresholds fall back to the
// defaults.
func New(cfg Config) *Validator {
	if cfg.MinRecords <= 0 {
		cfg.MinRecords = DefaultMinRecords
	}
	if cfg.MaxQualityDropPct <= 0 {
		cfg.MaxQualityDropPct = DefaultMaxQualityDropPct
	}
	if cfg.MinAvgAnswerLength <= 0 {
		cfg.MinAvgAnswerLength = DefaultMinAvgAnswerLength
	}
	if cfg.MaxAvgAnswerLength <= 0 {
		cfg.MaxAvgAnswerLength = DefaultMaxAvgAnswerLength
	}
	if cfg.RequiredSystemPrompt == "" {
		cfg.RequiredSystemPrompt = DefaultRequiredSystemPrompt
	}
	return &Validator{cfg: cfg, fsys: fs.Default, codec: codec.Default}
}

// WithFS overrides the file system used for corpus comparison loads.
func (v *Validator) WithFS(fsys fs.FileSystem) *Validator {
	if fsys != nil {
		v.fsys = fsys
	}
	return v
}

// WithCodec overrides the codec used for corpus comparison loads.
func (v *Validator) WithCodec(c codec.Codec) *Validator {
	if c != nil {
		v.codec = c
	}
	return v
}

// ValidateAll runs every check over the batch. When existingDir is
// non-empty, the batch is additionally compared against the corpus
// stored there.
func (v *Validator) ValidateAll(records []model.Record, existingDir string) Result {
	result := Result{TotalRecords: len(records)}

	v.checkFormat(records, &result)
	v.checkQuality(records, &result)
	if existingDir != "" {
		v.checkAgainstExisting(records, existingDir, &result)
	}

	result.Passed = len(result.FormatErrors) == 0
	return result
}

func (v *Validator) checkFormat(records []model.Record, result *Result) {
	expectedRoles := []string{model.RoleSystem, model.RoleUser, model.RoleAssistant}

	for i, rec := range records {
		if len(rec.Messages) < 3 {
			result.formatError("record %d: needs >= 3 messages, got %d", i, len(rec.Messages))
			continue
		}

		for j, want := range expectedRoles {
			if got := rec.Messages[j].Role; got != want {
				result.formatError("record %d: message %d role is %q, expected %q", i, j, got, want)
			}
		}

		for j, msg := range rec.Messages {
			if model.TrimEmpty(msg.Content) {
				result.formatError("record %d: message %d has empty content", i, j)
			}
		}

		if !strings.Contains(rec.Messages[0].Content, v.cfg.RequiredSystemPrompt) {
			result.warn("record %d: system prompt missing %q", i, v.cfg.RequiredSystemPrompt)
		}

		if rec.Source == "" {
			result.warn("record %d: missing source field", i)
		}
	}
}

func (v *Validator) checkQuality(records []model.Record, result *Result) {
	if len(records) < v.cfg.MinRecords {
		result.formatError("too few records: %d < minimum %d", len(records), v.cfg.MinRecords)
		return
	}

	lengths := answerLengths(records)
	if len(lengths) > 0 {
		avg, minLen, maxLen := lengthStats(lengths)

		result.stat("avg_answer_length", math.Round(avg))
		result.stat("min_answer_length", float64(minLen))
		result.stat("max_answer_length", float64(maxLen))

		if avg < float64(v.cfg.MinAvgAnswerLength) {
			result.warn("average answer length (%.0f) below threshold (%d)", avg, v.cfg.MinAvgAnswerLength)
		}
		if avg > float64(v.cfg.MaxAvgAnswerLength) {
			result.warn("average answer length (%.0f) above threshold (%d)", avg, v.cfg.MaxAvgAnswerLength)
		}
	}

	sources := model.Sources(records)
	result.stat("unique_sources", float64(len(sources)))
	if len(sources) > 20 {
		sources = sources[:20]
	}
	result.SourceList = sources
}

func (v *Validator) checkAgainstExisting(records []model.Record, existingDir string, result *Result) {
	existing, err := corpus.LoadDir(v.fsys, existingDir, v.codec)
	if err != nil {
		result.note("failed to load existing corpus: %v", err)
		return
	}
	if len(existing) == 0 {
		result.note("no existing training data found for comparison")
		return
	}

	existingLengths := answerLengths(existing)
	newLengths := answerLengths(records)

	if len(existingLengths) > 0 && len(newLengths) > 0 {
		existingAvg, _, _ := lengthStats(existingLengths)
		newAvg, _, _ := lengthStats(newLengths)

		result.stat("existing_avg_length", math.Round(existingAvg))
		result.stat("new_avg_length", math.Round(newAvg))

		pctDiff := math.Abs(newAvg-existingAvg) / existingAvg * 100
		if pctDiff > v.cfg.MaxQualityDropPct {
			result.warn("average answer length differs by %.1f%% from existing data (existing: %.0f, new: %.0f)",
				pctDiff, existingAvg, newAvg)
		}
	}

	result.note("compared against %d existing records", len(existing))
	result.stat("existing_record_count", float64(len(existing)))
	result.stat("addition_pct", math.Round(float64(len(records))/float64(len(existing))*1000)/10)
}

func answerLengths(records []model.Record) []int {
	lengths := make([]int, 0, len(records))
	for _, rec := range records {
		if rec.HasChatShape() {
			lengths = append(lengths, utf8.RuneCountInString(rec.Answer()))
		}
	}
	return lengths
}

func lengthStats(lengths []int) (avg float64, minLen, maxLen int) {
	minLen, maxLen = lengths[0], lengths[0]
	sum := 0
	for _, l := range lengths {
		sum += l
		if l < minLen {
			minLen = l
		}
		if l > maxLen {
			maxLen = l
		}
	}
	return float64(sum) / float64(len(lengths)), minLen, maxLen
}

