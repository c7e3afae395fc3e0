// Package curago curates supervised fine-tuning corpora: it filters,
// deduplicates, validates and versions batches of chat-format training
// records before they reach the canonical training set.
//
// # Quick Start
//
//	ctx := context.Background()
//
//	store, _ := version.Open("./pipeline",
//	    version.WithTrainingDir("./training_data"))
//
//	p, _ := curago.New(store,
//	    curago.WithStatePath("./pipeline/dedup_state.json"),
//	    curago.WithLogLevel(slog.LevelInfo))
//
//	result, _ := p.Run(ctx, records, "federal register batch 2026-08")
//	fmt.Println(result.Summary())
//
// A run walks each batch through four stages:
//
//  1. Quality filtering — length, structure and artifact checks on the
//     assistant answer (package quality).
//  2. Deduplication — exact fingerprints plus MinHash/LSH near-duplicate
//     detection against everything already admitted (package dedup).
//  3. Validation — format errors, aggregate statistics and comparison
//     against the existing training corpus (package validate).
//  4. Snapshot — survivors become an immutable version with metadata
//     and a movable current pointer (package version).
//
// Merging a version into the training file is a separate, explicit
// step; a failed validation blocks it unless the pipeline is configured
// to skip validation.
//
// # Durability
//
// Versions are immutable once written. Rollback moves a pointer, never
// deletes data. Optional archival copies versions to object storage
// (package archive), and an optional audit sink records lifecycle
// events (package audit).
package curago
