// Command curago runs the training-data curation pipeline: quality
// filtering, deduplication, validation and versioned snapshots.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/curago/curago"
	"github.com/curago/curago/archive"
	"github.com/curago/curago/audit"
	"github.com/curago/curago/blobstore"
	minioblob "github.com/curago/curago/blobstore/minio"
	s3blob "github.com/curago/curago/blobstore/s3"
	"github.com/curago/curago/codec"
	"github.com/curago/curago/compress"
	"github.com/curago/curago/config"
	"github.com/curago/curago/version"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var (
	cfgPath string
	verbose bool

	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "curago",
	Short: "Curate fine-tuning training data",
	Long: `Curago filters, deduplicates, validates and versions batches of
chat-format training records before they reach the training set.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		return err
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.DefaultFileName, "config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func recordCodec() codec.Codec {
	c, ok := codec.ByName(cfg.Codec)
	if !ok {
		return codec.Default
	}
	return c
}

func openStore() (*version.Store, error) {
	return version.Open(cfg.PipelineDir,
		version.WithTrainingDir(cfg.TrainingDataDir),
		version.WithCodec(recordCodec()),
	)
}

func newArchiver(ctx context.Context) (*archive.Archiver, error) {
	if !cfg.Archive.Enabled {
		return nil, nil
	}

	var (
		store blobstore.Store
		err   error
	)
	switch cfg.Archive.Backend {
	case "local":
		store = blobstore.NewLocalStore(cfg.Archive.Bucket)
	case "memory":
		store = blobstore.NewMemoryStore()
	case "minio":
		client, cerr := minio.New(cfg.Archive.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.Archive.AccessKey, cfg.Archive.SecretKey, ""),
			Secure: cfg.Archive.UseSSL,
		})
		if cerr != nil {
			return nil, fmt.Errorf("minio client: %w", cerr)
		}
		store = minioblob.NewStore(client, cfg.Archive.Bucket, cfg.Archive.Prefix)
	case "s3":
		store, err = s3blob.New(ctx, cfg.Archive.Bucket, cfg.Archive.Prefix)
		if err != nil {
			return nil, fmt.Errorf("s3 client: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown archive backend: %q", cfg.Archive.Backend)
	}

	comp := compress.Default
	if cfg.Archive.Compression != "" {
		var ok bool
		comp, ok = compress.ByName(cfg.Archive.Compression)
		if !ok {
			return nil, fmt.Errorf("unknown archive compression: %q", cfg.Archive.Compression)
		}
	}

	return archive.New(store,
		archive.WithCompressor(comp),
		archive.WithCodec(recordCodec()),
		archive.WithRateLimit(cfg.Archive.RateLimitBytes),
	), nil
}

func newAuditSink(ctx context.Context) (audit.Sink, error) {
	if !cfg.Audit.Enabled {
		return audit.NopSink{}, nil
	}
	return audit.NewDynamoDBSinkDefault(ctx, cfg.Audit.Table)
}

func newPipeline(ctx context.Context) (*curago.Pipeline, error) {
	store, err := openStore()
	if err != nil {
		return nil, err
	}

	archiver, err := newArchiver(ctx)
	if err != nil {
		return nil, err
	}
	sink, err := newAuditSink(ctx)
	if err != nil {
		return nil, err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := []curago.Option{
		curago.WithCodec(recordCodec()),
		curago.WithDedupOptions(cfg.DedupOptions()),
		curago.WithQualityConfig(cfg.QualityConfig()),
		curago.WithValidationConfig(cfg.ValidationConfig()),
		curago.WithStatePath(cfg.StatePath),
		curago.WithPipelineName(cfg.PipelineName),
		curago.WithArchiver(archiver),
		curago.WithAuditSink(sink),
		curago.WithLogLevel(level),
	}
	if cfg.AutoMerge {
		opts = append(opts, curago.WithAutoMerge())
	}
	if cfg.SkipValidation {
		opts = append(opts, curago.WithSkipValidation())
	}

	return curago.New(store, opts...)
}
