package curago

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/curago/curago/archive"
	"github.com/curago/curago/audit"
	"github.com/curago/curago/blobstore"
	"github.com/curago/curago/codec"
	"github.com/curago/curago/corpus"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
	"github.com/curago/curago/quality"
	"github.com/curago/curago/validate"
	"github.com/curago/curago/version"
)

const testSystemPrompt = "You are a CMMC compliance expert."

// answers holds lexically distinct training answers, each long enough
// to pass the default quality filter and far enough apart that the
// near-duplicate detector never confuses two of them.
var answers = []string{
	"Limit information system access to authorized users and to the kinds of transactions those users are permitted to execute. Provisioning an account requires a documented approval, and dormant accounts are disabled after ninety days of inactivity so orphaned credentials cannot linger.",
	"Audit records capture the event type, timestamp, source, and outcome for every privileged operation. Logs are forwarded to a central collector within five minutes, retained for one year, and reviewed weekly for indicators of unauthorized activity or repeated authentication failures.",
	"An incident response capability covers preparation, detection, analysis, containment, recovery, and user reporting. Suspected compromises of covered defense information must be reported to the designated authority within seventy-two hours of discovery, including known affected hosts.",
	"Media containing controlled unclassified information is encrypted with FIPS-validated cryptography before leaving the facility. Sanitization follows the destruction matrix, and transfer to non-organizational systems demands a signed agreement describing handling obligations.",
	"Configuration baselines enumerate the operating system version, installed packages, enabled services, and boundary firewall rules for every asset class. Deviations require a change ticket, and unauthorized software discovered during scans is removed within one business day.",
	"Risk assessments weigh threat likelihood against the magnitude of harm to operations, assets, and individuals. Findings feed a plan of action with milestones, owners, and target dates, and residual risk above the tolerance line needs executive acknowledgment in writing.",
	"Awareness training makes managers, administrators, and general staff conscious of the security risks tied to their duties. Role-based modules refresh annually, insider threat indicators get their own segment, and completion is tracked in the learning management system.",
	"Physical access to server rooms is gated by badge readers with two-factor verification at the outer door. Visitors are escorted at all times, entry logs are kept for three years, and delivery areas are isolated from spaces where sensitive processing occurs.",
	"Vulnerability scans run against all internet-facing assets every week and the internal estate every month. Critical findings are remediated inside fourteen days, high findings inside thirty, and exceptions carry a compensating control documented by the system owner.",
	"Flow-down clauses obligate subcontractors handling covered defense information to implement the same safeguarding requirements as the prime. Suppliers self-attest before award, and the prime validates a sample of attestations through questionnaires or on-site review.",
}

func answerFor(i int) string { return answers[i%len(answers)] }

func record(i int, answer string) model.Record {
	return model.NewRecord(
		testSystemPrompt,
		fmt.Sprintf("Question %d about compliance requirements?", i),
		answer,
		fmt.Sprintf("source_%d", i),
	)
}

func testBatch(n int) []model.Record {
	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, record(i, answerFor(i)))
	}
	return records
}

func openTestStore(t *testing.T) (*version.Store, string) {
	t.Helper()
	trainingDir := t.TempDir()
	store, err := version.Open(t.TempDir(), version.WithTrainingDir(trainingDir))
	require.NoError(t, err)
	return store, trainingDir
}

// loose relaxes validation so small test batches pass.
func loose() Option {
	return WithValidationConfig(validate.Config{MinRecords: 1})
}

type capturingSink struct {
	events []audit.Event
}

func (s *capturingSink) Record(_ context.Context, ev audit.Event) error {
	s.events = append(s.events, ev)
	return nil
}

func TestPipeline_RunCreatesSnapshot(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	p, err := New(store, loose())
	require.NoError(t, err)

	result, err := p.Run(ctx, testBatch(5), "first batch")
	require.NoError(t, err)

	require.Equal(t, 5, result.Input)
	require.Equal(t, 5, result.Quality.Passed)
	require.Equal(t, 5, result.Dedup.Unique)
	require.Equal(t, "v001", result.Version)
	require.NotNil(t, result.Validation)
	require.True(t, result.Validation.Passed)
	require.False(t, result.Merged)

	info, err := store.GetInfo("v001")
	require.NoError(t, err)
	require.Equal(t, 5, info.RecordCount)
	require.Equal(t, "first batch", info.Description)
	require.Len(t, info.Sources, 5)
}

func TestPipeline_RunDropsBadAndDuplicateRecords(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	p, err := New(store, loose())
	require.NoError(t, err)

	batch := []model.Record{
		record(0, answerFor(0)),
		record(1, "3.2.1"),      // quality reject
		record(2, answerFor(0)), // exact duplicate of record 0
		record(3, answerFor(1)), // unique
	}

	result, err := p.Run(ctx, batch, "mixed batch")
	require.NoError(t, err)

	require.Equal(t, 4, result.Input)
	require.Equal(t, 1, result.Quality.RejectedTotal())
	require.Equal(t, 1, result.Dedup.Exact)
	require.Equal(t, 2, result.Dedup.Unique)
	require.Equal(t, 2, result.Survivors())
}

func TestPipeline_RunAgainstSeededTrainingData(t *testing.T) {
	ctx := context.Background()
	store, trainingDir := openTestStore(t)

	// Existing corpus already contains record 0's answer.
	existing := []model.Record{record(0, answerFor(0)), record(1, answerFor(1))}
	require.NoError(t, corpus.WriteFile(fs.Default,
		filepath.Join(trainingDir, corpus.TrainFile), existing, codec.Default))

	p, err := New(store, loose())
	require.NoError(t, err)

	batch := []model.Record{
		record(2, answerFor(0)), // exact dup of training data
		record(3, answerFor(2)),
	}

	result, err := p.Run(ctx, batch, "seeded")
	require.NoError(t, err)
	require.Equal(t, 1, result.Dedup.Exact)
	require.Equal(t, 1, result.Dedup.Unique)
}

func TestPipeline_EmptySurvivorSetCreatesNoSnapshot(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	p, err := New(store, loose())
	require.NoError(t, err)

	result, err := p.Run(ctx, []model.Record{record(0, "3.2.1")}, "all rejected")
	require.NoError(t, err)
	require.Equal(t, "", result.Version)
	require.Equal(t, "", store.CurrentVersion())
	require.Nil(t, result.Validation)
	require.Contains(t, result.Summary(), "no snapshot")
}

func TestPipeline_AutoMergeBlockedByFailedValidation(t *testing.T) {
	ctx := context.Background()
	store, trainingDir := openTestStore(t)

	// Default MinRecords (10) fails a 3-record batch.
	p, err := New(store,
		WithValidationConfig(validate.Config{MinRecords: 10}),
		WithAutoMerge(),
	)
	require.NoError(t, err)

	result, err := p.Run(ctx, testBatch(3), "too small")
	require.NoError(t, err)

	// Snapshot still exists for inspection, but nothing was merged.
	require.Equal(t, "v001", result.Version)
	require.False(t, result.Validation.Passed)
	require.False(t, result.Merged)
	require.NoFileExists(t, filepath.Join(trainingDir, corpus.TrainFile))
}

func TestPipeline_AutoMergeWithSkipValidation(t *testing.T) {
	ctx := context.Background()
	store, trainingDir := openTestStore(t)

	p, err := New(store,
		WithValidationConfig(validate.Config{MinRecords: 10}),
		WithAutoMerge(),
		WithSkipValidation(),
	)
	require.NoError(t, err)

	result, err := p.Run(ctx, testBatch(3), "forced through")
	require.NoError(t, err)
	require.True(t, result.Merged)
	require.Equal(t, filepath.Join(trainingDir, corpus.TrainFile), result.MergedPath)

	merged, _, err := corpus.ReadFile(fs.Default, result.MergedPath, codec.Default)
	require.NoError(t, err)
	require.Len(t, merged, 3)
}

func TestPipeline_StatePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	statePath := filepath.Join(t.TempDir(), "dedup_state.json")

	store, _ := openTestStore(t)
	p, err := New(store, loose(), WithStatePath(statePath))
	require.NoError(t, err)

	_, err = p.Run(ctx, testBatch(3), "first run")
	require.NoError(t, err)
	require.FileExists(t, statePath)

	// A fresh pipeline over a fresh store restores the fingerprints and
	// rejects the same answers as exact duplicates.
	store2, _ := openTestStore(t)
	p2, err := New(store2, loose(), WithStatePath(statePath))
	require.NoError(t, err)

	result, err := p2.Run(ctx, testBatch(3), "second run")
	require.NoError(t, err)
	require.Equal(t, 3, result.Dedup.Exact)
	require.Equal(t, 0, result.Dedup.Unique)
}

func TestPipeline_AuditTrail(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	sink := &capturingSink{}
	p, err := New(store, loose(),
		WithAuditSink(sink),
		WithPipelineName("cmmc"),
	)
	require.NoError(t, err)

	_, err = p.Run(ctx, testBatch(3), "audited")
	require.NoError(t, err)
	_, err = p.Run(ctx, testBatch(3)[2:], "") // all dups, no snapshot
	require.NoError(t, err)

	_, err = p.MergeToTraining(ctx, "v001")
	require.NoError(t, err)

	_, err = p.Run(ctx, []model.Record{record(9, answerFor(9))}, "second version")
	require.NoError(t, err)
	_, err = p.Rollback(ctx, "v001")
	require.NoError(t, err)
	require.NoError(t, p.DeleteVersion(ctx, "v002"))

	var actions []string
	for _, ev := range sink.events {
		require.Equal(t, "cmmc", ev.Pipeline)
		actions = append(actions, ev.Action)
	}
	require.Equal(t, []string{
		audit.ActionSnapshot,
		audit.ActionMerge,
		audit.ActionSnapshot,
		audit.ActionRollback,
		audit.ActionDelete,
	}, actions)
}

func TestPipeline_ArchivesEachSnapshot(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	blobs := blobstore.NewMemoryStore()
	p, err := New(store, loose(), WithArchiver(archive.New(blobs)))
	require.NoError(t, err)

	result, err := p.Run(ctx, testBatch(3), "archived")
	require.NoError(t, err)
	require.Equal(t, "v001", result.Version)

	names, err := blobs.List(ctx, "v001/")
	require.NoError(t, err)
	require.Equal(t, []string{"v001/records.jsonl.gz", "v001/version_info.json"}, names)

	// The archive round-trips: the restored snapshot matches the stored one.
	restored, info, err := archive.New(blobs).RestoreVersion(ctx, "v001")
	require.NoError(t, err)
	require.Len(t, restored, 3)
	require.Equal(t, 3, info.RecordCount)
	require.Equal(t, "archived", info.Description)
}

func TestPipeline_MetricsCollected(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	metrics := &BasicMetricsCollector{}
	p, err := New(store, loose(), WithMetricsCollector(metrics))
	require.NoError(t, err)

	_, err = p.Run(ctx, testBatch(4), "metered")
	require.NoError(t, err)

	stats := metrics.GetStats()
	require.Equal(t, int64(1), stats.FilterRuns)
	require.Equal(t, int64(4), stats.FilterInput)
	require.Equal(t, int64(1), stats.DedupRuns)
	require.Equal(t, int64(1), stats.SnapshotCount)
	require.Equal(t, int64(4), stats.SnapshotRecords)
	require.Equal(t, int64(0), stats.SnapshotErrors)
}

func TestPipeline_QualityConfigRespected(t *testing.T) {
	ctx := context.Background()
	store, _ := openTestStore(t)

	// Raise the floor past every answer in the batch.
	p, err := New(store, loose(),
		WithQualityConfig(quality.Config{
			MinAnswerLength: 100000,
			MaxAnswerLength: 200000,
			MaxTableRatio:   0.3,
			MinAlphaRatio:   0.3,
		}),
	)
	require.NoError(t, err)

	result, err := p.Run(ctx, testBatch(3), "floored")
	require.NoError(t, err)
	require.Equal(t, 3, result.Quality.RejectedTotal())
	require.Equal(t, "", result.Version)
}
