package exporter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"shipbreaking/internal/dataprocessing"
	apperrors "shipbreaking/internal/errors"
	"shipbreaking/pkg/contracts/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS vessels (
	run_id      TEXT NOT NULL,
	year        INTEGER,
	imo         INTEGER NOT NULL,
	name        TEXT,
	type        TEXT,
	gt          REAL,
	ldt         REAL,
	built       INTEGER,
	last_flag   TEXT,
	place       TEXT,
	country     TEXT,
	age         INTEGER,
	ldt_source  TEXT,
	source_file TEXT,
	source_row  INTEGER
);
CREATE INDEX IF NOT EXISTS idx_vessels_imo ON vessels (imo);
CREATE TABLE IF NOT EXISTS cleaning_log (
	run_id     TEXT NOT NULL,
	timestamp  DATETIME,
	source     TEXT,
	year       INTEGER,
	source_row INTEGER,
	raw_imo    TEXT,
	name       TEXT,
	reason     TEXT,
	detail     TEXT
);
CREATE TABLE IF NOT EXISTS summaries (
	run_id      TEXT NOT NULL,
	dimension   TEXT NOT NULL,
	group_key   TEXT NOT NULL,
	vessels     INTEGER,
	gt_count    INTEGER,
	mean_gt     REAL,
	median_gt   REAL,
	ldt_count   INTEGER,
	mean_ldt    REAL,
	total_ldt   REAL,
	imputed_ldt INTEGER,
	age_count   INTEGER,
	mean_age    REAL
);`

// Store persists a run's dataset to SQLite
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// OpenStore opens (creating if needed) the SQLite database at path and applies the schema
func OpenStore(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open sqlite", err).WithContext("path", path)
	}
	// One connection serialises writers on the file
	db.SetMaxOpenConns(1)

	s := &Store{db: db, path: path, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return apperrors.NewStorageError("failed to apply sqlite schema", err).WithContext("path", s.path)
	}
	return nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun replaces the database contents with the dataset of one run
func (s *Store) SaveRun(ctx context.Context, runID string, records []domain.VesselRecord,
	cleaning []*dataprocessing.CleaningResult, summaries map[string][]domain.GroupSummary) error {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewStorageError("failed to begin transaction", err).WithContext("path", s.path)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"vessels", "cleaning_log", "summaries"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return apperrors.NewStorageError("failed to clear table", err).WithContext("table", table)
		}
	}

	if err := insertVessels(ctx, tx, runID, records); err != nil {
		return err
	}
	operations, err := insertCleaningLog(ctx, tx, runID, cleaning)
	if err != nil {
		return err
	}
	if err := insertSummaries(ctx, tx, runID, summaries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewStorageError("failed to commit run", err).WithContext("path", s.path)
	}

	s.logger.InfoContext(ctx, "Saved run to sqlite",
		slog.String("path", s.path),
		slog.Int("vessels", len(records)),
		slog.Int("cleaning_operations", operations))

	return nil
}

func insertVessels(ctx context.Context, tx *sql.Tx, runID string, records []domain.VesselRecord) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO vessels (
		run_id, year, imo, name, type, gt, ldt, built, last_flag, place, country, age, ldt_source, source_file, source_row
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare vessel insert", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			runID, r.Year, r.IMO, r.Name, r.Type, r.GT, r.LDT, r.Built,
			r.LastFlag, r.Place, r.Country, r.Age, string(r.LDTSource), r.SourceFile, r.SourceRow)
		if err != nil {
			return apperrors.NewStorageError("failed to insert vessel", err).WithContext("imo", r.IMO)
		}
	}
	return nil
}

func insertCleaningLog(ctx context.Context, tx *sql.Tx, runID string, results []*dataprocessing.CleaningResult) (int, error) {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cleaning_log (
		run_id, timestamp, source, year, source_row, raw_imo, name, reason, detail
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, apperrors.NewStorageError("failed to prepare cleaning log insert", err)
	}
	defer stmt.Close()

	n := 0
	for _, result := range results {
		for _, op := range result.Operations {
			_, err := stmt.ExecContext(ctx,
				runID, op.Timestamp.UTC().Format(time.RFC3339Nano), op.Source, op.Year, op.Row,
				op.RawIMO, op.Name, string(op.Reason), op.Detail)
			if err != nil {
				return n, apperrors.NewStorageError("failed to insert cleaning operation", err).
					WithContext("source", op.Source).
					WithContext("row", op.Row)
			}
			n++
		}
	}
	return n, nil
}

func insertSummaries(ctx context.Context, tx *sql.Tx, runID string, summaries map[string][]domain.GroupSummary) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO summaries (
		run_id, dimension, group_key, vessels, gt_count, mean_gt, median_gt, ldt_count, mean_ldt, total_ldt, imputed_ldt, age_count, mean_age
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return apperrors.NewStorageError("failed to prepare summary insert", err)
	}
	defer stmt.Close()

	for _, dimension := range SummaryDimensions {
		for _, g := range summaries[dimension] {
			_, err := stmt.ExecContext(ctx,
				runID, dimension, g.Key, g.Count, g.GTCount, g.MeanGT, g.MedianGT,
				g.LDTCount, g.MeanLDT, g.TotalLDT, g.ImputedLDT, g.AgeCount, g.MeanAge)
			if err != nil {
				return apperrors.NewStorageError("failed to insert summary", err).
					WithContext("dimension", dimension).
					WithContext("key", g.Key)
			}
		}
	}
	return nil
}

// Vessels reads back the stored dataset ordered by insertion
func (s *Store) Vessels(ctx context.Context) ([]domain.VesselRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		year, imo, name, type, gt, ldt, built, last_flag, place, country, age, ldt_source, source_file, source_row
		FROM vessels ORDER BY rowid`)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to query vessels", err)
	}
	defer func() { _ = rows.Close() }()

	var records []domain.VesselRecord
	for rows.Next() {
		var (
			r      domain.VesselRecord
			source string
		)
		if err := rows.Scan(&r.Year, &r.IMO, &r.Name, &r.Type, &r.GT, &r.LDT, &r.Built,
			&r.LastFlag, &r.Place, &r.Country, &r.Age, &source, &r.SourceFile, &r.SourceRow); err != nil {
			return nil, apperrors.NewStorageError("failed to scan vessel", err)
		}
		r.LDTSource = domain.LDTSource(source)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewStorageError("failed to read vessels", err)
	}
	return records, nil
}

// Count returns the number of rows in one of the store's tables
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	switch table {
	case "vessels", "cleaning_log", "summaries":
	default:
		return 0, apperrors.NewAppValidationError(fmt.Sprintf("unknown table %q", table))
	}

	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, apperrors.NewStorageError("failed to count rows", err).WithContext("table", table)
	}
	return n, nil
}
