package exporter

import (
	"log/slog"
	"time"

	"shipbreaking/internal/config"
	"shipbreaking/internal/dataprocessing"
	"shipbreaking/pkg/contracts/domain"
)

// DatasetHeaders returns the unified dataset columns: the canonical schema
// followed by the derived AGE and LDT SOURCE columns
func DatasetHeaders() []string {
	headers := make([]string, 0, len(domain.CanonicalColumns)+2)
	headers = append(headers, domain.CanonicalColumns...)
	return append(headers, domain.ColumnAge, domain.ColumnLDTSource)
}

// RecordRow converts a record into cells ordered as DatasetHeaders
func RecordRow(r domain.VesselRecord) []string {
	row := make([]string, 0, len(domain.CanonicalColumns)+2)
	for _, column := range domain.CanonicalColumns {
		row = append(row, cellValue(r, column))
	}
	return append(row, formatNullInt(r.Age), string(r.LDTSource))
}

func cellValue(r domain.VesselRecord, column string) string {
	switch column {
	case domain.ColumnYear:
		return formatNullInt(r.Year)
	case domain.ColumnIMO:
		return formatIMO(r.IMO)
	case domain.ColumnName:
		return r.Name
	case domain.ColumnType:
		return r.Type
	case domain.ColumnGT:
		return formatNullFloat(r.GT)
	case domain.ColumnLDT:
		return formatNullFloat(r.LDT)
	case domain.ColumnBuilt:
		return formatNullInt(r.Built)
	case domain.ColumnLastFlag:
		return r.LastFlag
	case domain.ColumnPlace:
		return r.Place
	case domain.ColumnCountry:
		return r.Country
	}
	return ""
}

// DatasetExporter writes the unified dataset and its companion CSV files
type DatasetExporter struct {
	paths     *config.Paths
	csvWriter *CSVWriter
	logger    *slog.Logger
}

// NewDatasetExporter creates a CSV exporter for the given output locations
func NewDatasetExporter(paths *config.Paths, bom bool, logger *slog.Logger) *DatasetExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetExporter{
		paths:     paths,
		csvWriter: NewCSVWriter(paths, bom, logger),
		logger:    logger,
	}
}

// WriteUnified streams the combined records to the unified dataset CSV
func (e *DatasetExporter) WriteUnified(records []domain.VesselRecord) (string, error) {
	stream, err := e.csvWriter.CreateStreamWriter(e.paths.UnifiedCSV, DatasetHeaders())
	if err != nil {
		return "", err
	}

	for _, r := range records {
		if err := stream.WriteRecord(RecordRow(r)); err != nil {
			stream.Close()
			return "", err
		}
	}

	if err := stream.Close(); err != nil {
		return "", err
	}

	e.logger.Info("Wrote unified dataset",
		slog.String("path", stream.Path()),
		slog.Int("rows", stream.Rows()))

	return stream.Path(), nil
}

// CleaningLogHeaders are the columns of the cleaning audit log
var CleaningLogHeaders = []string{"timestamp", "source", "year", "row", "raw_imo", "name", "reason", "detail"}

// WriteCleaningLog writes one line per row removed by the cleaner
func (e *DatasetExporter) WriteCleaningLog(results []*dataprocessing.CleaningResult) (string, error) {
	var rows [][]string
	for _, result := range results {
		for _, op := range result.Operations {
			rows = append(rows, []string{
				op.Timestamp.Format(time.RFC3339),
				op.Source,
				formatInt(op.Year),
				formatInt(op.Row),
				op.RawIMO,
				op.Name,
				string(op.Reason),
				op.Detail,
			})
		}
	}

	if err := e.csvWriter.WriteSimpleCSV(e.paths.CleaningLog, CleaningLogHeaders, rows); err != nil {
		return "", err
	}

	e.logger.Info("Wrote cleaning log",
		slog.String("path", e.paths.CleaningLog),
		slog.Int("operations", len(rows)))

	return e.paths.CleaningLog, nil
}
