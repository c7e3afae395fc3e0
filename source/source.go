// Package source defines the boundary to the scrapers that feed the
// pipeline, plus the disk loader for raw records they leave behind.
//
// Scraper implementations live outside this module; the pipeline only
// depends on the Provider interface and on the on-disk layout
// `<rawDir>/<source>/<date>/records.json` that every provider writes.
package source

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/curago/curago/codec"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
)

// Provider produces raw records for one source.
type Provider interface {
	// Name is the stable source identifier, e.g. "nist_csrc".
	Name() string
	// Fetch retrieves raw records, optionally limited to content
	// published since the given marker (provider-defined format, ""
	// for a full fetch).
	Fetch(ctx context.Context, since string) ([]model.Raw, error)
}

// rawRecordsFile is the file each provider writes per scrape run.
const rawRecordsFile = "records.json"

// LoadLatestRaw loads the most recent raw records for a source from
// `<rawDir>/<name>/<date>/records.json`, scanning date directories
// newest first. A source with no raw data yields nothing, not an error.
func LoadLatestRaw(fsys fs.FileSystem, rawDir, name string, c codec.Codec) ([]model.Raw, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	if c == nil {
		c = codec.Default
	}

	sourceDir := filepath.Join(rawDir, name)
	entries, err := fsys.ReadDir(sourceDir)
	if err != nil {
		return nil, nil
	}

	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			dates = append(dates, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))

	for _, date := range dates {
		path := filepath.Join(sourceDir, date, rawRecordsFile)
		if !fs.Exists(fsys, path) {
			continue
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		var raws []model.Raw
		if err := c.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return raws, nil
	}
	return nil, nil
}
