// Package exporter writes the harmonized shipbreaking dataset and its companions.
//
// CSVWriter is the low-level writer (optionally prefixed with a UTF-8 BOM for
// spreadsheet tools) used by DatasetExporter for the unified dataset, the
// cleaning log, the grouped summaries and the insight tables.
//
// WorkbookExporter writes the same dataset to an XLSX workbook and Store keeps
// it in a SQLite database. WriteReport records the outcome of a run as JSON.
//
// Example usage:
//
//	exp := exporter.NewDatasetExporter(paths, cfg.Output.BOM, logger)
//	if _, err := exp.WriteUnified(agg.Records); err != nil {
//		return err
//	}
//	if _, err := exp.WriteSummaries(agg.Summaries); err != nil {
//		return err
//	}
package exporter
