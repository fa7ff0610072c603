// Package staging manages the durable intermediate files the pipeline writes
// between fetch and upload: one newline-delimited JSON file per batch, moved
// into the archive directory with a timestamped name once consumed.
package staging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/safcost/banksync/internal/domain"
)

// UploadedPrefix marks archived batch files whose upload was confirmed.
const UploadedPrefix = "Uploaded-"

// Store reads and writes staged record files in one directory and archives
// consumed files into another.
type Store struct {
	dir        string
	archiveDir string
}

// NewStore creates a Store over the given active and archive directories.
func NewStore(dir, archiveDir string) *Store {
	return &Store{dir: dir, archiveDir: archiveDir}
}

// DailyName is the staged file name for a given run date, ddmmyy-based like
// the data files this system has always produced.
func DailyName(t time.Time) string {
	return t.Format("020106") + ".jsonl"
}

// Path returns the full path of a staged file.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether the named staged file is present.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Latest returns the name of the most recently modified .jsonl file in the
// store directory. The second return is false when the directory is empty or
// holds no staged files.
func (s *Store) Latest() (string, bool, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("list staged files in %q: %w", s.dir, err)
	}

	var (
		name   string
		newest time.Time
		found  bool
	)
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".jsonl" {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", false, fmt.Errorf("stat staged file %q: %w", e.Name(), err)
		}
		if !found || info.ModTime().After(newest) {
			name = e.Name()
			newest = info.ModTime()
			found = true
		}
	}
	return name, found, nil
}

// Write persists the records as one JSON object per line. The file is
// written completely before the pipeline moves on, making the batch durable
// ahead of any remote mutation.
func (s *Store) Write(name string, records []domain.TransactionRecord) error {
	path := s.Path(name)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create staged file %q: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, rec := range records {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record for %q: %w", path, err)
		}
		if _, err := w.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write staged file %q: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush staged file %q: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync staged file %q: %w", path, err)
	}

	return nil
}

// Read loads all records from the named staged file, preserving line order.
func (s *Store) Read(name string) ([]domain.TransactionRecord, error) {
	path := s.Path(name)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staged file %q: %w", path, err)
	}
	defer f.Close()

	var records []domain.TransactionRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec domain.TransactionRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("decode %q line %d: %w", path, lineNum, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read staged file %q: %w", path, err)
	}

	return records, nil
}

// Archive moves the named staged file into the archive directory under a
// timestamp-suffixed name, optionally prefixed. An existing archive entry is
// never overwritten; colliding names get a numeric suffix.
func (s *Store) Archive(name, prefix string) (string, error) {
	src := s.Path(name)
	if _, err := os.Stat(src); err != nil {
		return "", fmt.Errorf("archive %q: %w", src, err)
	}

	if err := os.MkdirAll(s.archiveDir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir %q: %w", s.archiveDir, err)
	}

	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	stamp := time.Now().Format("20060102_150405")

	dst := filepath.Join(s.archiveDir, fmt.Sprintf("%s%s_%s%s", prefix, base, stamp, ext))
	for n := 1; ; n++ {
		if _, err := os.Stat(dst); os.IsNotExist(err) {
			break
		}
		dst = filepath.Join(s.archiveDir, fmt.Sprintf("%s%s_%s_%d%s", prefix, base, stamp, n, ext))
	}

	if err := os.Rename(src, dst); err != nil {
		return "", fmt.Errorf("archive %q -> %q: %w", src, dst, err)
	}

	return dst, nil
}
