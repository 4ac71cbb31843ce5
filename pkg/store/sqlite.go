// sentinel
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/caas-team/sentinel/pkg/cycle"
)

var _ Store = (*SQLite)(nil)

const table = "cycle_reports"

// schema keeps the full report as a json document next to the summary columns,
// so new fields in the check results need no migration.
const schema = `
CREATE TABLE IF NOT EXISTS cycle_reports (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	cycle_id TEXT NOT NULL UNIQUE,
	seq INTEGER NOT NULL,
	triggered_by TEXT NOT NULL,
	started_at TIMESTAMP NOT NULL,
	duration_ms INTEGER NOT NULL,
	total_checks INTEGER NOT NULL,
	passed_checks INTEGER NOT NULL,
	failed_checks INTEGER NOT NULL,
	degraded BOOLEAN NOT NULL,
	report TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cycle_reports_started_at ON cycle_reports(started_at);
`

// readConns bounds the read pool serving the control api
const readConns = 4

// SQLite persists reports in a sqlite database file.
// Appends go through a single writer connection; queries use a separate
// query-only pool, so readers never wait for the writer.
type SQLite struct {
	writer    *sql.DB
	reader    *sql.DB
	retention int
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewSQLite opens or creates the database at path.
// If retention is positive, only the newest retention reports are kept.
func NewSQLite(ctx context.Context, path string, retention int) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	writer, err := open(ctx, "file:"+path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", 1)
	if err != nil {
		return nil, err
	}
	if _, err := writer.ExecContext(ctx, schema); err != nil {
		_ = writer.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	reader, err := open(ctx, "file:"+path+"?_pragma=query_only(1)&_pragma=busy_timeout(5000)", readConns)
	if err != nil {
		_ = writer.Close()
		return nil, err
	}

	return &SQLite{writer: writer, reader: reader, retention: retention}, nil
}

func open(ctx context.Context, dsn string, conns int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(conns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func (s *SQLite) Append(ctx context.Context, report *cycle.Report) (err error) {
	if s.closed.Load() {
		return ErrStoreClosed
	}
	doc, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}

	tx, err := s.writer.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	r, err := sq.Insert(table).
		Columns("cycle_id", "seq", "triggered_by", "started_at", "duration_ms",
			"total_checks", "passed_checks", "failed_checks", "degraded", "report").
		Values(report.ID, report.Seq, string(report.Trigger), report.StartedAt, report.DurationMs,
			report.TotalChecks, report.PassedChecks, report.FailedChecks, report.Degraded, string(doc)).
		RunWith(tx).ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("storing report: %w", err)
	}

	if s.retention > 0 {
		id, err := r.LastInsertId()
		if err != nil {
			return err
		}
		if _, err = sq.Delete(table).Where(sq.LtOrEq{"id": id - int64(s.retention)}).
			RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("pruning reports: %w", err)
		}
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, n int) ([]*cycle.Report, error) {
	if s.closed.Load() {
		return nil, ErrStoreClosed
	}
	rows, err := sq.Select("report").From(table).
		OrderBy("id DESC").
		Limit(uint64(ClampRecent(n))). //nolint:gosec // clamped to [1, MaxRecent]
		RunWith(s.reader).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying reports: %w", err)
	}
	defer rows.Close()

	var reports []*cycle.Report
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, err
		}
		var report cycle.Report
		if err := json.Unmarshal([]byte(doc), &report); err != nil {
			return nil, fmt.Errorf("failed to decode report: %w", err)
		}
		reports = append(reports, &report)
	}
	return reports, rows.Err()
}

func (s *SQLite) LastSeq(ctx context.Context) (uint64, error) {
	if s.closed.Load() {
		return 0, ErrStoreClosed
	}
	var seq sql.NullInt64
	err := sq.Select("MAX(seq)").From(table).RunWith(s.reader).QueryRowContext(ctx).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("querying last sequence: %w", err)
	}
	if !seq.Valid {
		return 0, nil
	}
	return uint64(seq.Int64), nil //nolint:gosec // sequence numbers are positive
}

func (s *SQLite) Close() (err error) {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		err = errors.Join(s.reader.Close(), s.writer.Close())
	})
	return err
}
