package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"adhan/internal/prayer"
	logx "adhan/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	st := &sqliteStore{db: db, log: log}

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveTable replaces the whole snapshot in one transaction.
func (s *sqliteStore) SaveTable(ctx context.Context, tb prayer.Table) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot`); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshot_meta(id, year, month, saved_at) VALUES(1,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET year=excluded.year, month=excluded.month, saved_at=excluded.saved_at`,
		tb.Year, int(tb.Month), time.Now().Format(time.RFC3339),
	)
	if err != nil {
		return err
	}
	for day, row := range encodeTable(tb) {
		for name, at := range row {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO snapshot(day, prayer, at) VALUES(?,?,?)`, day, name, at); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) LoadTable(ctx context.Context) (prayer.Table, bool, error) {
	if s == nil || s.db == nil {
		return prayer.Table{}, false, ErrDisabled
	}
	var year, month int
	err := s.db.QueryRowContext(ctx, `SELECT year, month FROM snapshot_meta WHERE id = 1`).Scan(&year, &month)
	if errors.Is(err, sql.ErrNoRows) {
		return prayer.Table{}, false, nil
	}
	if err != nil {
		return prayer.Table{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT day, prayer, at FROM snapshot`)
	if err != nil {
		return prayer.Table{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	defer rows.Close()

	doc := document{}
	for rows.Next() {
		var day, name, at string
		if err := rows.Scan(&day, &name, &at); err != nil {
			return prayer.Table{}, false, fmt.Errorf("%w: %v", ErrCache, err)
		}
		if doc[day] == nil {
			doc[day] = map[string]string{}
		}
		doc[day][name] = at
	}
	if err := rows.Err(); err != nil {
		return prayer.Table{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	tb, err := decodeTable(doc, year, time.Month(month))
	if err != nil {
		return prayer.Table{}, false, err
	}
	return tb, true, nil
}

func (s *sqliteStore) PutFired(ctx context.Context, m FiredMark) error {
	if s == nil || s.db == nil {
		return ErrDisabled
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fired(id, date, prayer) VALUES(1,?,?)
		 ON CONFLICT(id) DO UPDATE SET date=excluded.date, prayer=excluded.prayer`,
		m.Date, m.Prayer.String(),
	)
	return err
}

func (s *sqliteStore) LastFired(ctx context.Context) (FiredMark, bool, error) {
	if s == nil || s.db == nil {
		return FiredMark{}, false, ErrDisabled
	}
	var date, name string
	err := s.db.QueryRowContext(ctx, `SELECT date, prayer FROM fired WHERE id = 1`).Scan(&date, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return FiredMark{}, false, nil
	}
	if err != nil {
		return FiredMark{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	n, err := prayer.ParseName(name)
	if err != nil {
		return FiredMark{}, false, fmt.Errorf("%w: %v", ErrCache, err)
	}
	return FiredMark{Date: date, Prayer: n}, true, nil
}
