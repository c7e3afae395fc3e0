package curago

import (
	"context"
	"fmt"
	"time"

	"github.com/curago/curago/audit"
	"github.com/curago/curago/codec"
	"github.com/curago/curago/dedup"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
	"github.com/curago/curago/quality"
	"github.com/curago/curago/validate"
	"github.com/curago/curago/version"
)

// Pipeline walks record batches through quality filtering,
// deduplication, validation and snapshotting. Not safe for concurrent
// use; run batches sequentially.
type Pipeline struct {
	store     *version.Store
	index     *dedup.Index
	validator *validate.Validator
	codec     codec.Codec
	opts      options
}

// RunResult reports what happened to one batch.
type RunResult struct {
	// Input is the batch size before any stage ran.
	Input int `json:"input"`
	// Quality is the filter stage outcome.
	Quality quality.Stats `json:"quality"`
	// Dedup is the deduplication stage outcome.
	Dedup dedup.Stats `json:"dedup"`
	// Validation is the validation outcome for the surviving records,
	// nil when nothing survived.
	Validation *validate.Result `json:"validation,omitempty"`
	// Version is the snapshot id, "" when no snapshot was created.
	Version string `json:"version,omitempty"`
	// Merged reports whether the snapshot was auto-merged.
	Merged bool `json:"merged"`
	// MergedPath is the training file the snapshot was merged into.
	MergedPath string `json:"merged_path,omitempty"`
}

// Survivors returns how many records made it into the snapshot.
func (r RunResult) Survivors() int { return r.Dedup.Unique }

// Summary returns a short human-readable status line.
func (r RunResult) Summary() string {
	if r.Version == "" {
		return fmt.Sprintf("no snapshot: %d records in, %d survived", r.Input, r.Survivors())
	}
	status := "created"
	if r.Merged {
		status = "created and merged"
	}
	return fmt.Sprintf("%s %s: %d records in, %d survived", r.Version, status, r.Input, r.Survivors())
}

// New creates a Pipeline on an opened version store. The dedup index is
// seeded from the store's training directory and, when a state path is
// configured, restored from the persisted fingerprints.
func New(store *version.Store, optFns ...Option) (*Pipeline, error) {
	o := applyOptions(optFns)

	p := &Pipeline{
		store:     store,
		index:     dedup.New(o.dedup),
		validator: validate.New(o.validation).WithCodec(o.codec),
		codec:     o.codec,
		opts:      o,
	}

	if o.statePath != "" {
		if err := p.index.Restore(fs.Default, o.statePath, o.codec); err != nil {
			return nil, fmt.Errorf("restore dedup state: %w", err)
		}
	}
	if dir := store.TrainingDir(); dir != "" {
		if _, err := p.index.SeedFromDir(fs.Default, dir, o.codec); err != nil {
			return nil, fmt.Errorf("seed dedup index: %w", err)
		}
	}

	return p, nil
}

// Store returns the underlying version store.
func (p *Pipeline) Store() *version.Store { return p.store }

// Index returns the underlying dedup index, for inspection.
func (p *Pipeline) Index() *dedup.Index { return p.index }

// Run processes one batch: filter, deduplicate, validate, snapshot and
// optionally merge. An empty post-dedup batch creates no snapshot and
// is not an error. A failed validation still creates the snapshot (so
// the batch can be inspected and rolled back) but blocks auto-merge
// unless validation is skipped.
func (p *Pipeline) Run(ctx context.Context, records []model.Record, description string) (RunResult, error) {
	log := p.opts.logger.WithBatch(description)
	result := RunResult{Input: len(records)}

	start := time.Now()
	kept, qstats := quality.FilterBatch(records, p.opts.quality)
	result.Quality = qstats
	p.opts.metricsCollector.RecordFilter(qstats.Total, qstats.RejectedTotal(), time.Since(start))
	log.LogFilter(ctx, qstats.Total, qstats.Passed)

	start = time.Now()
	unique, dstats := p.index.DeduplicateBatch(kept)
	result.Dedup = dstats
	p.opts.metricsCollector.RecordDedup(dstats.TotalInput, dstats.Exact, dstats.Near, time.Since(start))
	log.LogDedup(ctx, dstats.TotalInput, dstats.Unique, dstats.Exact, dstats.Near)

	if len(unique) == 0 {
		log.InfoContext(ctx, "nothing survived filtering and deduplication, no snapshot")
		return result, p.persistState()
	}

	start = time.Now()
	vr := p.validator.ValidateAll(unique, p.store.TrainingDir())
	result.Validation = &vr
	p.opts.metricsCollector.RecordValidation(vr.Passed, time.Since(start))
	log.LogValidation(ctx, vr.Passed, len(vr.FormatErrors), len(vr.QualityWarnings))

	start = time.Now()
	id, err := p.store.CreateSnapshot(unique, description, model.Sources(unique))
	p.opts.metricsCollector.RecordSnapshot(len(unique), time.Since(start), err)
	log.LogSnapshot(ctx, id, len(unique), err)
	if err != nil {
		return result, fmt.Errorf("create snapshot: %w", err)
	}
	result.Version = id

	if err := p.opts.auditSink.Record(ctx, audit.Event{
		Pipeline:    p.opts.pipelineName,
		Action:      audit.ActionSnapshot,
		Version:     id,
		RecordCount: len(unique),
		Detail:      description,
	}); err != nil {
		log.WarnContext(ctx, "audit event failed", "error", err)
	}

	if p.opts.archiver != nil {
		err := p.opts.archiver.ArchiveVersion(ctx, p.store, id)
		log.LogArchive(ctx, id, err)
		if err != nil {
			return result, fmt.Errorf("archive version: %w", err)
		}
	}

	if p.opts.autoMerge {
		if !vr.Passed && !p.opts.skipValidation {
			log.WarnContext(ctx, "validation failed, skipping auto-merge",
				"version", id,
			)
		} else {
			path, err := p.merge(ctx, id, len(unique))
			if err != nil {
				return result, err
			}
			result.Merged = true
			result.MergedPath = path
		}
	}

	return result, p.persistState()
}

// MergeToTraining merges a version into the training file, with audit.
// An empty id merges the current version.
func (p *Pipeline) MergeToTraining(ctx context.Context, id string) (string, error) {
	if id == "" {
		id = p.store.CurrentVersion()
	}
	info, err := p.store.GetInfo(id)
	if err != nil {
		return "", err
	}
	return p.merge(ctx, id, info.RecordCount)
}

func (p *Pipeline) merge(ctx context.Context, id string, count int) (string, error) {
	start := time.Now()
	path, err := p.store.MergeToTraining(id)
	p.opts.metricsCollector.RecordMerge(time.Since(start), err)
	p.opts.logger.LogMerge(ctx, id, path, err)
	if err != nil {
		return "", err
	}

	if err := p.opts.auditSink.Record(ctx, audit.Event{
		Pipeline:    p.opts.pipelineName,
		Action:      audit.ActionMerge,
		Version:     id,
		RecordCount: count,
	}); err != nil {
		p.opts.logger.WarnContext(ctx, "audit event failed", "error", err)
	}
	return path, nil
}

// Rollback moves the store's current pointer, with audit.
func (p *Pipeline) Rollback(ctx context.Context, target string) ([]model.Record, error) {
	records, err := p.store.Rollback(target)
	if err != nil {
		return nil, err
	}
	p.opts.logger.InfoContext(ctx, "rolled back", "version", target, "records", len(records))

	if err := p.opts.auditSink.Record(ctx, audit.Event{
		Pipeline:    p.opts.pipelineName,
		Action:      audit.ActionRollback,
		Version:     target,
		RecordCount: len(records),
	}); err != nil {
		p.opts.logger.WarnContext(ctx, "audit event failed", "error", err)
	}
	return records, nil
}

// DeleteVersion removes a non-current version, with audit.
func (p *Pipeline) DeleteVersion(ctx context.Context, id string) error {
	if err := p.store.DeleteVersion(id); err != nil {
		return err
	}
	p.opts.logger.InfoContext(ctx, "version deleted", "version", id)

	if err := p.opts.auditSink.Record(ctx, audit.Event{
		Pipeline: p.opts.pipelineName,
		Action:   audit.ActionDelete,
		Version:  id,
	}); err != nil {
		p.opts.logger.WarnContext(ctx, "audit event failed", "error", err)
	}
	return nil
}

// persistState saves the exact-duplicate fingerprints when a state path
// is configured. MinHash signatures are not persisted; the near index
// is rebuilt from the training data on the next start.
func (p *Pipeline) persistState() error {
	if p.opts.statePath == "" {
		return nil
	}
	if err := p.index.Persist(fs.Default, p.opts.statePath, p.codec); err != nil {
		return fmt.Errorf("persist dedup state: %w", err)
	}
	return nil
}
