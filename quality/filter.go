// Package quality rejects structurally degenerate text before it can
// reach deduplication or a snapshot.
//
// The filter is a stateless predicate pipeline over a fixed check
// order; it short-circuits on the first failing check, so only one
// rejection reason is ever reported per text.
package quality

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/curago/curago/model"
)

// Defaults for the quality configuration.
const (
	DefaultMinContentLength  = 100
	DefaultMinAnswerLength   = 200
	DefaultMaxAnswerLength   = 8000
	DefaultMaxImageArtifacts = 2
)

// Default ratio bounds.
const (
	DefaultMaxTableRatio = 0.3
	DefaultMinAlphaRatio = 0.3
)

// Config holds the quality thresholds. Lengths and ratios are measured
// in characters (runes), not bytes, so multi-byte text is not penalized.
type Config struct {
	// MinContentLength is the raw pre-filter length floor, applied
	// before conversion.
	MinContentLength int
	// MinAnswerLength and MaxAnswerLength bound converted answers.
	MinAnswerLength int
	MaxAnswerLength int
	// MaxTableRatio rejects text dominated by table markup.
	MaxTableRatio float64
	// MinAlphaRatio rejects text with too few letters.
	MinAlphaRatio float64
	// MaxImageArtifacts caps leftover image placeholders from PDF and
	// HTML extraction.
	MaxImageArtifacts int
}

// DefaultConfig returns the standard quality thresholds.
func DefaultConfig() Config {
	return Config{
		MinContentLength:  DefaultMinContentLength,
		MinAnswerLength:   DefaultMinAnswerLength,
		MaxAnswerLength:   DefaultMaxAnswerLength,
		MaxTableRatio:     DefaultMaxTableRatio,
		MinAlphaRatio:     DefaultMinAlphaRatio,
		MaxImageArtifacts: DefaultMaxImageArtifacts,
	}
}

// Reason identifies which check rejected a text. The zero value means
// the text was accepted.
type Reason string

// Rejection reasons, in evaluation order.
const (
	ReasonNone               Reason = ""
	ReasonTooShort           Reason = "too_short"
	ReasonTooLong            Reason = "too_long"
	ReasonSectionNumbersOnly Reason = "section_numbers_only"
	ReasonTableBordersOnly   Reason = "table_borders_only"
	ReasonTableHeavy         Reason = "table_heavy"
	ReasonLowAlpha           Reason = "low_alpha"
	ReasonImageArtifacts     Reason = "image_artifacts"
)

const imageArtifact = "<!-- image -->"

var (
	sectionNumbersRe = regexp.MustCompile(`^\s*[\d.]+\s*$`)
	tableBordersRe   = regexp.MustCompile(`^[\s|_\-=]+$`)
)

// Evaluate checks an answer text against the configured thresholds,
// using MinAnswerLength as the length floor. It returns whether the
// text is accepted and, if not, the first failing check.
func Evaluate(text string, cfg Config) (bool, Reason) {
	return check(text, cfg, cfg.MinAnswerLength)
}

// EvaluateRaw is Evaluate with the smaller MinContentLength floor used
// for raw text before conversion.
func EvaluateRaw(text string, cfg Config) (bool, Reason) {
	return check(text, cfg, cfg.MinContentLength)
}

func check(text string, cfg Config, minLength int) (bool, Reason) {
	length := utf8.RuneCountInString(text)

	if length < minLength {
		return false, ReasonTooShort
	}
	if cfg.MaxAnswerLength > 0 && length > cfg.MaxAnswerLength {
		return false, ReasonTooLong
	}

	trimmed := strings.TrimSpace(text)
	if sectionNumbersRe.MatchString(trimmed) {
		return false, ReasonSectionNumbersOnly
	}
	if tableBordersRe.MatchString(trimmed) {
		return false, ReasonTableBordersOnly
	}

	tableChars := strings.Count(text, "|") +
		3*strings.Count(text, "---") +
		3*strings.Count(text, "===")
	if float64(tableChars)/float64(length) > cfg.MaxTableRatio {
		return false, ReasonTableHeavy
	}

	alpha := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if float64(alpha)/float64(length) < cfg.MinAlphaRatio {
		return false, ReasonLowAlpha
	}

	if strings.Count(text, imageArtifact) > cfg.MaxImageArtifacts {
		return false, ReasonImageArtifacts
	}

	return true, ReasonNone
}

// Stats aggregates the outcome of a batch filter pass.
type Stats struct {
	Total    int            `json:"total"`
	Passed   int            `json:"passed"`
	Rejected map[Reason]int `json:"rejected"`
}

func (s *Stats) reject(r Reason) {
	if s.Rejected == nil {
		s.Rejected = make(map[Reason]int)
	}
	s.Rejected[r]++
}

// RejectedTotal returns the total number of rejections across reasons.
func (s Stats) RejectedTotal() int {
	n := 0
	for _, c := range s.Rejected {
		n += c
	}
	return n
}

// FilterBatch evaluates each record's answer, returning the accepted
// subset and per-reason rejection counts.
func FilterBatch(records []model.Record, cfg Config) ([]model.Record, Stats) {
	stats := Stats{Total: len(records)}
	kept := make([]model.Record, 0, len(records))

	for _, rec := range records {
		ok, reason := Evaluate(rec.Answer(), cfg)
		if ok {
			kept = append(kept, rec)
			stats.Passed++
		} else {
			stats.reject(reason)
		}
	}
	return kept, stats
}

// FilterRawBatch evaluates raw records on the text under contentKey
// with the raw length floor, before conversion.
func FilterRawBatch(raws []model.Raw, contentKey string, cfg Config) ([]model.Raw, Stats) {
	stats := Stats{Total: len(raws)}
	kept := make([]model.Raw, 0, len(raws))

	for _, raw := range raws {
		ok, reason := EvaluateRaw(raw.Text(contentKey), cfg)
		if ok {
			kept = append(kept, raw)
			stats.Passed++
		} else {
			stats.reject(reason)
		}
	}
	return kept, stats
}
