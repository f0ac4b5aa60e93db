package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
)

// fileStore keeps the snapshot as a single JSON document.
//
// Files:
//   - <path>                (day -> prayer -> "HH:MM")
//   - <prefix>.fired.json   (last fired mark)
//
// The snapshot's month is taken from the file's modification time, so the
// document itself stays a plain day-keyed map.
type fileStore struct {
	log logx.Logger
	fs  afero.Fs
	loc *time.Location

	mu sync.Mutex

	snapshotPath string
	firedPath    string
}

type firedRecord struct {
	Date   string `json:"date"`
	Prayer string `json:"prayer"`
}

func openFile(afs afero.Fs, cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.Local
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if err := afs.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	return &fileStore{
		log:          log,
		fs:           afs,
		loc:          loc,
		snapshotPath: path,
		firedPath:    filepath.Join(dir, base+".fired.json"),
	}, nil
}

func (s *fileStore) Close() error { return nil }

func (s *fileStore) SaveTable(ctx context.Context, tb prayer.Table) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeAtomicLocked(s.snapshotPath, encodeTable(tb)); err != nil {
		return err
	}
	// Pin the mtime inside the table's month; a save just after midnight on
	// the 1st must not look like last month's data, and vice versa.
	stamp := time.Date(tb.Year, tb.Month, 1, 12, 0, 0, 0, s.loc)
	if now := time.Now().In(s.loc); now.Year() == tb.Year && now.Month() == tb.Month {
		stamp = now
	}
	if err := s.fs.Chtimes(s.snapshotPath, stamp, stamp); err != nil {
		s.log.Debug("snapshot chtimes failed", logx.Err(err))
	}
	return nil
}

func (s *fileStore) LoadTable(ctx context.Context) (prayer.Table, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	fi, err := s.fs.Stat(s.snapshotPath)
	if errors.Is(err, fs.ErrNotExist) {
		return prayer.Table{}, false, nil
	}
	if err != nil {
		return prayer.Table{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	b, err := afero.ReadFile(s.fs, s.snapshotPath)
	if err != nil {
		return prayer.Table{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return prayer.Table{}, false, fmt.Errorf("%w: decode %s: %v", ErrCache, s.snapshotPath, err)
	}
	mt := fi.ModTime().In(s.loc)
	tb, err := decodeTable(doc, mt.Year(), mt.Month())
	if err != nil {
		return prayer.Table{}, false, err
	}
	return tb, true, nil
}

func (s *fileStore) PutFired(ctx context.Context, m FiredMark) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeAtomicLocked(s.firedPath, firedRecord{Date: m.Date, Prayer: m.Prayer.String()})
}

func (s *fileStore) LastFired(ctx context.Context) (FiredMark, bool, error) {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := afero.ReadFile(s.fs, s.firedPath)
	if errors.Is(err, fs.ErrNotExist) {
		return FiredMark{}, false, nil
	}
	if err != nil {
		return FiredMark{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	var r firedRecord
	if err := json.Unmarshal(b, &r); err != nil {
		return FiredMark{}, false, fmt.Errorf("%w: decode %s: %v", ErrCache, s.firedPath, err)
	}
	n, err := prayer.ParseName(r.Prayer)
	if err != nil || r.Date == "" {
		return FiredMark{}, false, fmt.Errorf("%w: bad fired record %+v", ErrCache, r)
	}
	return FiredMark{Date: r.Date, Prayer: n}, true, nil
}

// writeAtomicLocked encodes v to a temp file next to path and renames it into
// place, so readers see either the old document or the new one.
func (s *fileStore) writeAtomicLocked(path string, v any) error {
	tmp := path + ".tmp"
	f, err := s.fs.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return s.fs.Rename(tmp, path)
}
