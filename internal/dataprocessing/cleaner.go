package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"shipbreaking/internal/config"
	"shipbreaking/internal/validation"
	"shipbreaking/pkg/contracts/domain"
)

// DropReason explains why the cleaner removed a row
type DropReason string

const (
	DropInvalidIMO     DropReason = "invalid_imo"
	DropDuplicateIMO   DropReason = "duplicate_imo"
	DropYearOutOfRange DropReason = "year_out_of_range"
	DropInvalidRecord  DropReason = "invalid_record"
)

// CleaningOperation is the audit entry for one removed row
type CleaningOperation struct {
	Timestamp time.Time  `json:"timestamp"`
	Source    string     `json:"source"`
	Year      int        `json:"year"`
	Row       int        `json:"row"`
	RawIMO    string     `json:"raw_imo"`
	Name      string     `json:"name"`
	Reason    DropReason `json:"reason"`
	Detail    string     `json:"detail,omitempty"`
}

// CleaningResult summarises cleaning of one yearly table
type CleaningResult struct {
	Source     string              `json:"source"`
	Year       int                 `json:"year"`
	Input      int                 `json:"input"`
	Kept       int                 `json:"kept"`
	Dropped    map[DropReason]int  `json:"dropped"`
	Operations []CleaningOperation `json:"-"`
}

type firstSeen struct {
	source string
	row    int
}

// Cleaner removes rows with malformed or repeated IMO numbers.
// A Cleaner remembers every IMO it has kept, so all tables of a run must go
// through the same instance for IMO uniqueness to hold across years.
type Cleaner struct {
	cfg       config.CleaningConfig
	validator *validation.RecordValidator
	seen      map[int]firstSeen
	logger    *slog.Logger
}

// NewCleaner creates a cleaner for one pipeline run
func NewCleaner(cfg config.CleaningConfig, logger *slog.Logger) *Cleaner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		cfg:       cfg,
		validator: validation.NewRecordValidator(cfg.IMOChecksum),
		seen:      make(map[int]firstSeen),
		logger:    logger,
	}
}

// Clean returns a new table holding the valid, first-seen rows of t
func (c *Cleaner) Clean(ctx context.Context, t *domain.YearTable) (*domain.YearTable, *CleaningResult) {
	result := &CleaningResult{
		Source:  t.Source,
		Year:    t.Year,
		Input:   t.Len(),
		Dropped: make(map[DropReason]int),
	}
	out := &domain.YearTable{
		Year:    t.Year,
		Source:  t.Source,
		Records: make([]domain.VesselRecord, 0, t.Len()),
	}

	drop := func(rec domain.VesselRecord, reason DropReason, detail string) {
		result.Dropped[reason]++
		result.Operations = append(result.Operations, CleaningOperation{
			Timestamp: time.Now().UTC(),
			Source:    rec.SourceFile,
			Year:      t.Year,
			Row:       rec.SourceRow,
			RawIMO:    rec.RawIMO,
			Name:      rec.Name,
			Reason:    reason,
			Detail:    detail,
		})
	}

	for _, rec := range t.Records {
		imo, ok := validation.NormalizeIMO(rec.RawIMO)
		if !ok {
			drop(rec, DropInvalidIMO, "not seven digits")
			continue
		}
		rec.IMO = imo

		if rec.Year.Valid && (rec.Year.Int64 < int64(c.cfg.MinYear) || rec.Year.Int64 > int64(c.cfg.MaxYear)) {
			drop(rec, DropYearOutOfRange, fmt.Sprintf("year %d", rec.Year.Int64))
			continue
		}

		if c.cfg.IMOChecksum && !validation.ValidIMOChecksum(imo) {
			drop(rec, DropInvalidIMO, "check digit mismatch")
			continue
		}

		if err := c.validator.Validate(&rec); err != nil {
			drop(rec, DropInvalidRecord, err.Error())
			continue
		}

		if first, dup := c.seen[imo]; dup {
			drop(rec, DropDuplicateIMO, fmt.Sprintf("first seen in %s row %d", first.source, first.row))
			continue
		}
		c.seen[imo] = firstSeen{source: rec.SourceFile, row: rec.SourceRow}

		out.Records = append(out.Records, rec)
	}

	result.Kept = out.Len()

	c.logger.InfoContext(ctx, "Cleaned source",
		slog.String("source", t.Source),
		slog.Int("year", t.Year),
		slog.Int("input", result.Input),
		slog.Int("kept", result.Kept),
		slog.Int("invalid_imo", result.Dropped[DropInvalidIMO]),
		slog.Int("duplicate_imo", result.Dropped[DropDuplicateIMO]))

	return out, result
}

// TotalDropped returns the number of rows removed for any reason
func (r *CleaningResult) TotalDropped() int {
	n := 0
	for _, v := range r.Dropped {
		n += v
	}
	return n
}
