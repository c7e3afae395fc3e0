// Package corpus reads and writes newline-delimited JSON record files.
//
// The canonical training corpus is a directory holding train.jsonl and
// validation.jsonl. Bulk loads are tolerant: a line that fails to parse
// is skipped and counted, never aborting the rest of a multi-megabyte
// file.
package corpus

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/curago/curago/codec"
	"github.com/curago/curago/internal/fs"
	"github.com/curago/curago/model"
)

// Standard split file names inside a corpus directory.
const (
	TrainFile      = "train.jsonl"
	ValidationFile = "validation.jsonl"
)

// maxLineSize bounds a single record line (answers are capped well below
// this by the quality filter; the headroom is for metadata).
const maxLineSize = 16 << 20

// ReadRecords decodes jsonl records from r. Lines that fail to decode
// are skipped; the count of skipped lines is returned alongside.
func ReadRecords(r io.Reader, c codec.Codec) ([]model.Record, int, error) {
	if c == nil {
		c = codec.Default
	}

	var (
		records []model.Record
		skipped int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec model.Record
		if err := c.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, skipped, fmt.Errorf("scan records: %w", err)
	}
	return records, skipped, nil
}

// ReadFile loads a jsonl record file. A missing file yields no records
// and no error; the corpus directory layout makes both splits optional.
func ReadFile(fsys fs.FileSystem, path string, c codec.Codec) ([]model.Record, int, error) {
	if fsys == nil {
		fsys = fs.Default
	}

	f, err := fsys.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	defer f.Close()

	return ReadRecords(f, c)
}

// LoadDir loads all records from the standard splits under dir, in
// train-then-validation order. Missing splits contribute nothing.
func LoadDir(fsys fs.FileSystem, dir string, c codec.Codec) ([]model.Record, error) {
	var all []model.Record
	for _, name := range []string{TrainFile, ValidationFile} {
		recs, _, err := ReadFile(fsys, filepath.Join(dir, name), c)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", name, err)
		}
		all = append(all, recs...)
	}
	return all, nil
}

// WriteRecords encodes records to w, one JSON object per line.
func WriteRecords(w io.Writer, records []model.Record, c codec.Codec) error {
	if c == nil {
		c = codec.Default
	}

	bw := bufio.NewWriter(w)
	for _, rec := range records {
		data, err := c.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal record: %w", err)
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile writes records as a jsonl file at path, creating parent
// directories as needed.
func WriteFile(fsys fs.FileSystem, path string, records []model.Record, c codec.Codec) error {
	if fsys == nil {
		fsys = fs.Default
	}
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := fsys.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if err := WriteRecords(f, records, c); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
