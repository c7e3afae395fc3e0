// Package archive copies version snapshots into object storage so the
// pipeline host is not the only place history lives.
//
// An archived version is two objects under its id: the compressed
// record file and the plain version metadata. The record object carries
// the compressor's extension, so restores pick the compressor from the
// object name.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/curago/curago/blobstore"
	"github.com/curago/curago/codec"
	"github.com/curago/curago/compress"
	"github.com/curago/curago/corpus"
	"github.com/curago/curago/model"
	"github.com/curago/curago/version"
)

const (
	recordsObject = "records.jsonl"
	infoObject    = "version_info.json"
)

// Archiver uploads and restores version snapshots.
type Archiver struct {
	store   blobstore.Store
	comp    compress.Compressor
	codec   codec.Codec
	limiter *rate.Limiter
}

// Option configures an Archiver.
type Option func(*Archiver)

// WithCompressor sets the compressor for record objects.
func WithCompressor(c compress.Compressor) Option {
	return func(a *Archiver) {
		if c != nil {
			a.comp = c
		}
	}
}

// WithCodec sets the codec used to re-encode restored records.
func WithCodec(c codec.Codec) Option {
	return func(a *Archiver) {
		if c != nil {
			a.codec = c
		}
	}
}

// WithRateLimit throttles uploads to bytesPerSec. Zero means unlimited.
func WithRateLimit(bytesPerSec int) Option {
	return func(a *Archiver) {
		if bytesPerSec > 0 {
			a.limiter = rate.NewLimiter(rate.Limit(bytesPerSec), bytesPerSec)
		}
	}
}

// New creates an Archiver on the given blob store.
func New(store blobstore.Store, opts ...Option) *Archiver {
	a := &Archiver{
		store: store,
		comp:  compress.Default,
		codec: codec.Default,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// waitBytes blocks until the limiter admits n bytes, in burst-sized
// chunks so large objects do not exceed the limiter's burst.
func (a *Archiver) waitBytes(ctx context.Context, n int) error {
	if a.limiter == nil {
		return nil
	}
	burst := a.limiter.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := a.limiter.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

func (a *Archiver) put(ctx context.Context, name string, data []byte) error {
	if err := a.waitBytes(ctx, len(data)); err != nil {
		return err
	}
	return a.store.Put(ctx, name, data)
}

// ArchiveVersion uploads one version's record file and metadata. The
// two objects are uploaded concurrently; the operation fails if either
// upload fails.
func (a *Archiver) ArchiveVersion(ctx context.Context, vs *version.Store, id string) error {
	recordsData, infoData, err := vs.VersionFiles(id)
	if err != nil {
		return err
	}

	compressed, err := a.comp.Compress(recordsData)
	if err != nil {
		return fmt.Errorf("compress records: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.put(gctx, id+"/"+recordsObject+a.comp.Ext(), compressed)
	})
	g.Go(func() error {
		return a.put(gctx, id+"/"+infoObject, infoData)
	})
	return g.Wait()
}

// RestoreVersion downloads an archived version's records and metadata.
func (a *Archiver) RestoreVersion(ctx context.Context, id string) ([]model.Record, version.Info, error) {
	var info version.Info

	infoData, err := a.store.Get(ctx, id+"/"+infoObject)
	if err != nil {
		return nil, info, fmt.Errorf("get version info: %w", err)
	}
	if err := a.codec.Unmarshal(infoData, &info); err != nil {
		return nil, info, fmt.Errorf("parse version info: %w", err)
	}

	names, err := a.store.List(ctx, id+"/"+recordsObject)
	if err != nil {
		return nil, info, err
	}
	if len(names) == 0 {
		return nil, info, fmt.Errorf("get records: %w", blobstore.ErrNotFound)
	}

	data, err := a.store.Get(ctx, names[0])
	if err != nil {
		return nil, info, err
	}

	comp, ok := compressorForName(names[0])
	if !ok {
		return nil, info, fmt.Errorf("unknown archive extension on %s", names[0])
	}
	plain, err := comp.Decompress(data)
	if err != nil {
		return nil, info, fmt.Errorf("decompress records: %w", err)
	}

	records, _, err := corpus.ReadRecords(bytes.NewReader(plain), a.codec)
	return records, info, err
}

// ArchivedVersions lists the version ids present in the archive.
func (a *Archiver) ArchivedVersions(ctx context.Context) ([]string, error) {
	names, err := a.store.List(ctx, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, name := range names {
		id, _, ok := strings.Cut(name, "/")
		if !ok {
			continue
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func compressorForName(name string) (compress.Compressor, bool) {
	switch {
	case strings.HasSuffix(name, ".gz"):
		return compress.Gzip{}, true
	case strings.HasSuffix(name, ".lz4"):
		return compress.LZ4{}, true
	case strings.HasSuffix(name, ".jsonl"):
		return compress.None{}, true
	default:
		return nil, false
	}
}
