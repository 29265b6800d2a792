package exporter

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "shipbreaking/internal/errors"
	"shipbreaking/pkg/contracts/domain"
)

// Workbook sheet names
const (
	UnifiedSheet = "Unified"
	sheetPrefix  = "By "
)

// SummarySheetName returns the sheet holding a summary dimension, e.g. "By TYPE"
func SummarySheetName(dimension string) string {
	return sheetPrefix + dimension
}

// WorkbookExporter writes the dataset and its summaries to an XLSX workbook
type WorkbookExporter struct {
	logger *slog.Logger
}

// NewWorkbookExporter creates a workbook exporter
func NewWorkbookExporter(logger *slog.Logger) *WorkbookExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookExporter{logger: logger}
}

// Write saves records on the Unified sheet and each summary on its own sheet
func (w *WorkbookExporter) Write(path string, records []domain.VesselRecord, summaries map[string][]domain.GroupSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", UnifiedSheet); err != nil {
		return workbookError(err, path, UnifiedSheet)
	}

	if err := w.writeUnified(f, records); err != nil {
		return workbookError(err, path, UnifiedSheet)
	}

	for _, dimension := range SummaryDimensions {
		groups, ok := summaries[dimension]
		if !ok {
			continue
		}
		sheet := SummarySheetName(dimension)
		if err := w.writeSummary(f, sheet, groups); err != nil {
			return workbookError(err, path, sheet)
		}
	}

	f.SetActiveSheet(0)
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save workbook", err).WithContext("path", path)
	}

	w.logger.Info("Wrote workbook",
		slog.String("path", path),
		slog.Int("rows", len(records)),
		slog.Int("summary_sheets", len(summaries)))

	return nil
}

func (w *WorkbookExporter) writeUnified(f *excelize.File, records []domain.VesselRecord) error {
	sw, err := f.NewStreamWriter(UnifiedSheet)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", toCells(DatasetHeaders())); err != nil {
		return err
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, recordCells(r)); err != nil {
			return err
		}
	}

	return sw.Flush()
}

func (w *WorkbookExporter) writeSummary(f *excelize.File, sheet string, groups []domain.GroupSummary) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}

	if err := sw.SetRow("A1", toCells(SummaryHeaders)); err != nil {
		return err
	}

	for i, g := range groups {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			g.Key, g.Count, g.GTCount, g.MeanGT, g.MedianGT,
			g.LDTCount, g.MeanLDT, g.TotalLDT, g.ImputedLDT, g.AgeCount, g.MeanAge,
		}
		if err := sw.SetRow(cell, row); err != nil {
			return err
		}
	}

	return sw.Flush()
}

// recordCells mirrors RecordRow with typed cells; nulls stay empty
func recordCells(r domain.VesselRecord) []interface{} {
	return []interface{}{
		nullableInt(r.Year),
		formatIMO(r.IMO),
		r.Name,
		r.Type,
		nullableFloat(r.GT),
		nullableFloat(r.LDT),
		nullableInt(r.Built),
		r.LastFlag,
		r.Place,
		r.Country,
		nullableInt(r.Age),
		string(r.LDTSource),
	}
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

func workbookError(err error, path, sheet string) error {
	return apperrors.NewStorageError("failed to write workbook sheet", err).
		WithContext("path", path).
		WithContext("sheet", sheet)
}
