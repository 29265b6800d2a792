package dataprocessing

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"shipbreaking/internal/config"
	apperrors "shipbreaking/internal/errors"
	"shipbreaking/internal/files"
	"shipbreaking/internal/validation"
	"shipbreaking/pkg/contracts/domain"
)

// LoadIssue records a yearly file that could not be loaded
type LoadIssue struct {
	Year   int    `json:"year"`
	Source string `json:"source"`
	Reason string `json:"reason"`
}

// Loader reads yearly source files into raw tables
type Loader struct {
	delimiter      rune
	headerScanRows int
	harmonizer     *Harmonizer
	validator      *validation.FileValidator
	logger         *slog.Logger
}

// NewLoader creates a loader. The harmonizer's alias table is used to recognise
// the header row.
func NewLoader(cfg config.InputConfig, harmonizer *Harmonizer, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	if harmonizer == nil {
		harmonizer = NewHarmonizer(cfg.Aliases, logger)
	}

	delimiter := ','
	if r, _ := utf8.DecodeRuneInString(cfg.Delimiter); r != utf8.RuneError {
		delimiter = r
	}

	scan := cfg.HeaderScanRows
	if scan <= 0 {
		scan = config.DefaultHeaderScanRows
	}

	return &Loader{
		delimiter:      delimiter,
		headerScanRows: scan,
		harmonizer:     harmonizer,
		validator:      validation.NewFileValidator(logger),
		logger:         logger,
	}
}

// LoadAll loads every file in order. Files that are missing or unreadable are
// logged, reported and skipped; only when none loads is an error returned.
func (l *Loader) LoadAll(ctx context.Context, yearFiles []files.YearFile) ([]*domain.RawTable, []LoadIssue, error) {
	var tables []*domain.RawTable
	var issues []LoadIssue

	for _, yf := range yearFiles {
		if err := ctx.Err(); err != nil {
			return nil, issues, err
		}

		raw, err := l.Load(ctx, yf)
		if err != nil {
			l.logger.WarnContext(ctx, "Skipping source file",
				slog.Int("year", yf.Year),
				slog.String("file", yf.Path),
				slog.String("error", err.Error()))
			issues = append(issues, LoadIssue{Year: yf.Year, Source: yf.Name, Reason: err.Error()})
			continue
		}
		tables = append(tables, raw)
	}

	if len(tables) == 0 {
		return nil, issues, apperrors.NewNotFoundError("loadable source file").
			WithContext("files", len(yearFiles))
	}

	return tables, issues, nil
}

// Load reads one yearly file according to its format
func (l *Loader) Load(ctx context.Context, yf files.YearFile) (*domain.RawTable, error) {
	if err := l.validator.ValidateSourceFile(yf.Path); err != nil {
		return nil, err
	}

	var (
		raw *domain.RawTable
		err error
	)
	switch yf.Format {
	case files.FormatCSV:
		raw, err = l.LoadCSV(yf.Path, yf.Year)
	case files.FormatXLSX:
		raw, err = l.LoadXLSX(yf.Path, yf.Year)
	default:
		return nil, fmt.Errorf("unsupported format %q for %s", yf.Format, yf.Path)
	}
	if err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "Loaded source file",
		slog.Int("year", yf.Year),
		slog.String("file", yf.Name),
		slog.Int("rows", raw.Len()),
		slog.Int("header_row", raw.HeaderRow))

	return raw, nil
}

// LoadCSV reads a delimited file. A UTF-8 BOM is skipped and rows may have
// differing numbers of fields.
func (l *Loader) LoadCSV(path string, year int) (*domain.RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to open file", err).WithContext("file", path)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}

	reader := csv.NewReader(br)
	reader.Comma = l.delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	var lines []int
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read CSV", err).WithContext("file", path)
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, record)
		lines = append(lines, line)
	}

	return l.buildTable(rows, lines, year, path), nil
}

// LoadXLSX reads the first sheet whose leading rows contain an IMO header,
// falling back to the first sheet of the workbook.
func (l *Loader) LoadXLSX(path string, year int) (*domain.RawTable, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).WithContext("file", path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, apperrors.NewParsingError("workbook has no sheets", nil).WithContext("file", path)
	}

	var rows [][]string
	sheetName := ""
	for _, name := range sheets {
		sheetRows, err := f.GetRows(name)
		if err != nil {
			continue
		}
		if l.findHeader(sheetRows) >= 0 {
			rows = sheetRows
			sheetName = name
			break
		}
	}

	if sheetName == "" {
		sheetName = sheets[0]
		rows, err = f.GetRows(sheetName)
		if err != nil {
			return nil, apperrors.NewParsingError("failed to read sheet", err).
				WithContext("file", path).
				WithContext("sheet", sheetName)
		}
	}

	l.logger.Debug("Reading sheet",
		slog.String("file", filepath.Base(path)),
		slog.String("sheet", sheetName),
		slog.Int("total_rows", len(rows)))

	// excelize row i is sheet row i+1
	lines := make([]int, len(rows))
	for i := range rows {
		lines[i] = i + 1
	}

	return l.buildTable(rows, lines, year, path), nil
}

// findHeader returns the index of the first row within the scan window that
// holds an IMO header, or -1
func (l *Loader) findHeader(rows [][]string) int {
	for i := 0; i < len(rows) && i < l.headerScanRows; i++ {
		for _, cell := range rows[i] {
			if l.harmonizer.IsIMOHeader(cell) {
				return i
			}
		}
	}
	return -1
}

// buildTable splits rows into header and data. Without a recognisable header
// the first non-empty row is used so the harmonizer can report the schema.
func (l *Loader) buildTable(rows [][]string, lines []int, year int, path string) *domain.RawTable {
	raw := &domain.RawTable{
		Year:   year,
		Source: filepath.Base(path),
	}

	header := l.findHeader(rows)
	if header < 0 {
		for i, row := range rows {
			if !blankRow(row) {
				header = i
				break
			}
		}
	}
	if header < 0 {
		return raw
	}

	raw.Header = rows[header]
	raw.HeaderRow = lines[header]

	for i := header + 1; i < len(rows); i++ {
		if blankRow(rows[i]) {
			continue
		}
		raw.Rows = append(raw.Rows, rows[i])
		raw.RowNumbers = append(raw.RowNumbers, lines[i])
	}

	return raw
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
