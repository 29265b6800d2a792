// Package dataprocessing turns the yearly shipbreaking files into one harmonized
// dataset. It holds the stages the operation runner drives, in order:
//
//  1. Loader: reads a CSV or XLSX file into a raw table, locating the header row
//  2. Harmonizer: maps raw headers onto the canonical schema through an alias table
//     and parses numeric cells
//  3. Cleaner: drops rows with malformed or repeated IMO numbers, recording each drop
//  4. DeriveAge: AGE = YEAR - BUILT
//  5. Imputer: fits LDT on GT by least squares and fills missing LDT
//  6. Aggregator: concatenates and sorts the tables and summarises them by TYPE,
//     COUNTRY and YEAR, together with the chart insight tables
//
// # Usage
//
//	h := dataprocessing.NewHarmonizer(cfg.Input.Aliases, logger)
//	raw, err := dataprocessing.NewLoader(cfg.Input, h, logger).Load(ctx, yearFile)
//	table, report, err := h.Harmonize(ctx, raw)
//
// A Cleaner must be shared by every table of a run: it remembers which IMO numbers
// it has kept so the combined dataset holds each vessel once.
package dataprocessing
