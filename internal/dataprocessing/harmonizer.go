package dataprocessing

import (
	"context"
	"database/sql"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"shipbreaking/internal/config"
	apperrors "shipbreaking/internal/errors"
	"shipbreaking/pkg/contracts/domain"
)

// DefaultAliases returns the built-in raw header names per canonical column.
// Names are compared after NormalizeHeader.
func DefaultAliases() map[string][]string {
	return map[string][]string{
		domain.ColumnIMO:      {"IMO", "IMO NUMBER", "IMO#", "IMO NO", "IMO NO."},
		domain.ColumnName:     {"NAME", "NAME OF SHIP", "VESSEL", "VESSEL NAME"},
		domain.ColumnType:     {"TYPE", "TYPE OF SHIP", "SHIP TYPE", "TYPE OF VESSEL"},
		domain.ColumnGT:       {"GT", "GROSS TONNAGE", "GROSS TONNAGE (GT)", "GROSS TONNAGE, GT"},
		domain.ColumnLDT:      {"LDT", "LIGHT DISPLACEMENT TONNAGE", "LIGHTWEIGHT", "LIGHT WEIGHT"},
		domain.ColumnBuilt:    {"BUILT", "BUILT IN (Y)", "YEAR BUILT", "BUILD YEAR"},
		domain.ColumnLastFlag: {"LAST FLAG", "FLAG", "CHANGE OF FLAG FOR BREAKING", "FLAG CHANGED FOR BREAKING"},
		domain.ColumnPlace:    {"PLACE", "DESTINATION CITY", "PLACE OF DEMOLITION", "LOCATION"},
		domain.ColumnCountry:  {"COUNTRY", "DESTINATION COUNTRY", "COUNTRY OF DEMOLITION"},
		domain.ColumnYear:     {"YEAR"},
	}
}

// SchemaReport describes how one raw table was mapped onto the canonical schema
type SchemaReport struct {
	Source string `json:"source"`
	Year   int    `json:"year"`
	// Mapped holds canonical column -> raw header
	Mapped   map[string]string `json:"mapped"`
	Dropped  []string          `json:"dropped,omitempty"`
	Missing  []string          `json:"missing,omitempty"`
	Warnings []string          `json:"warnings,omitempty"`
	Rows     int               `json:"rows"`
	// NullCells counts numeric cells that were present but unusable, per column
	NullCells map[string]int `json:"null_cells,omitempty"`
}

// Harmonizer maps raw yearly tables onto the canonical schema
type Harmonizer struct {
	lookup map[string]aliasEntry
	next   map[string]int
	logger *slog.Logger
}

// aliasEntry ranks an alias within its canonical column. Lower ranks win when
// several headers of one table map to the same column.
type aliasEntry struct {
	canonical string
	rank      int
}

// NewHarmonizer builds a harmonizer from the default alias table plus extra aliases.
// Extra aliases keyed by an unknown canonical column are ignored with a warning.
func NewHarmonizer(extra map[string][]string, logger *slog.Logger) *Harmonizer {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Harmonizer{
		lookup: make(map[string]aliasEntry),
		next:   make(map[string]int),
		logger: logger,
	}

	// Canonical order keeps the first registration of a shared alias deterministic
	defaults := DefaultAliases()
	for _, canonical := range domain.CanonicalColumns {
		h.register(canonical, defaults[canonical])
	}

	for canonical, aliases := range extra {
		key := NormalizeHeader(canonical)
		if _, ok := defaults[key]; !ok {
			logger.Warn("Ignoring aliases for unknown column", slog.String("column", canonical))
			continue
		}
		h.register(key, aliases)
	}

	return h
}

// register appends aliases to canonical's priority list. Extra aliases
// registered later rank after the defaults.
func (h *Harmonizer) register(canonical string, aliases []string) {
	for _, alias := range append([]string{canonical}, aliases...) {
		key := NormalizeHeader(alias)
		if _, exists := h.lookup[key]; exists {
			continue
		}
		h.lookup[key] = aliasEntry{canonical: canonical, rank: h.next[canonical]}
		h.next[canonical]++
	}
}

// NormalizeHeader trims, upper-cases and collapses internal whitespace of a header cell
func NormalizeHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// Canonical returns the canonical column for a raw header
func (h *Harmonizer) Canonical(header string) (string, bool) {
	e, ok := h.lookup[NormalizeHeader(header)]
	return e.canonical, ok
}

// IsIMOHeader reports whether a raw header names the IMO column
func (h *Harmonizer) IsIMOHeader(header string) bool {
	c, ok := h.Canonical(header)
	return ok && c == domain.ColumnIMO
}

// Harmonize converts a raw table into typed records. A table without an IMO
// column cannot be harmonized and yields a schema error.
func (h *Harmonizer) Harmonize(ctx context.Context, raw *domain.RawTable) (*domain.YearTable, *SchemaReport, error) {
	report := &SchemaReport{
		Source:    raw.Source,
		Year:      raw.Year,
		Mapped:    make(map[string]string),
		NullCells: make(map[string]int),
	}

	index := make(map[string]int)
	ranks := make(map[string]int)
	for i, header := range raw.Header {
		name := strings.TrimSpace(header)
		entry, ok := h.lookup[NormalizeHeader(header)]
		if !ok {
			if name != "" {
				report.Dropped = append(report.Dropped, name)
			}
			continue
		}
		canonical := entry.canonical
		if _, taken := index[canonical]; taken {
			// Alias priority decides, ties go to the leftmost header
			if entry.rank >= ranks[canonical] {
				report.Dropped = append(report.Dropped, name)
				continue
			}
			report.Dropped = append(report.Dropped, report.Mapped[canonical])
		}
		index[canonical] = i
		ranks[canonical] = entry.rank
		report.Mapped[canonical] = name
	}

	for _, canonical := range domain.CanonicalColumns {
		if _, ok := index[canonical]; !ok {
			report.Missing = append(report.Missing, canonical)
		}
	}

	if _, ok := index[domain.ColumnIMO]; !ok {
		return nil, report, apperrors.NewSchemaError("source has no IMO column", nil).
			WithContext("source", raw.Source).
			WithContext("year", raw.Year)
	}

	if _, ok := index[domain.ColumnName]; !ok {
		report.Warnings = append(report.Warnings, "no NAME column")
		h.logger.WarnContext(ctx, "Source has no NAME column",
			slog.String("source", raw.Source),
			slog.Int("year", raw.Year))
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	table := &domain.YearTable{
		Year:    raw.Year,
		Source:  raw.Source,
		Records: make([]domain.VesselRecord, 0, len(raw.Rows)),
	}

	for n, row := range raw.Rows {
		rec := domain.VesselRecord{
			Name:       cell(row, domain.ColumnName),
			RawIMO:     cell(row, domain.ColumnIMO),
			Type:       cell(row, domain.ColumnType),
			Country:    cell(row, domain.ColumnCountry),
			Place:      cell(row, domain.ColumnPlace),
			LastFlag:   cell(row, domain.ColumnLastFlag),
			SourceFile: raw.Source,
			SourceRow:  rowNumber(raw, n),
		}

		rec.GT = h.tonnage(cell(row, domain.ColumnGT), domain.ColumnGT, report)
		rec.LDT = h.tonnage(cell(row, domain.ColumnLDT), domain.ColumnLDT, report)
		if rec.LDT.Valid {
			rec.LDTSource = domain.LDTSourceObserved
		}

		rec.Built = parseYear(cell(row, domain.ColumnBuilt), config.MinBuiltYear, config.MaxBuiltYear)
		if !rec.Built.Valid && cell(row, domain.ColumnBuilt) != "" {
			report.NullCells[domain.ColumnBuilt]++
		}

		rec.Year = parseYear(cell(row, domain.ColumnYear), 0, math.MaxInt32)
		if !rec.Year.Valid && raw.Year != 0 {
			rec.Year = sql.NullInt64{Int64: int64(raw.Year), Valid: true}
		}

		table.Records = append(table.Records, rec)
	}
	report.Rows = len(table.Records)

	h.logger.InfoContext(ctx, "Harmonized source",
		slog.String("source", raw.Source),
		slog.Int("year", raw.Year),
		slog.Int("rows", report.Rows),
		slog.Int("mapped_columns", len(report.Mapped)),
		slog.Int("dropped_columns", len(report.Dropped)))

	return table, report, nil
}

// tonnage parses a GT or LDT cell; non-positive or unparsable values are null
func (h *Harmonizer) tonnage(s, column string, report *SchemaReport) sql.NullFloat64 {
	if s == "" {
		return sql.NullFloat64{}
	}
	v, ok := ParseNumber(s)
	if !ok || v <= 0 {
		report.NullCells[column]++
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func rowNumber(raw *domain.RawTable, n int) int {
	if n < len(raw.RowNumbers) {
		return raw.RowNumbers[n]
	}
	return raw.HeaderRow + n + 1
}

// ParseNumber parses a numeric cell, ignoring thousands separators and spaces
func ParseNumber(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		if r == ',' || r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseYear parses a whole year within [lo, hi]. Spreadsheet floats such as
// "1990.0" are accepted.
func parseYear(s string, lo, hi int) sql.NullInt64 {
	v, ok := ParseNumber(s)
	if !ok || v != math.Trunc(v) {
		return sql.NullInt64{}
	}
	year := int(v)
	if year < lo || year > hi {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(year), Valid: true}
}
