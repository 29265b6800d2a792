// Package files locates the yearly shipbreaking source files.
//
// Files are either listed explicitly in configuration (year to file name) or
// discovered in the input directory by the four digit year embedded in their
// name, for example "Year2016.csv" or "shipbreaking_2023.xlsx". Only CSV and
// XLSX files are considered; Excel lock files ("~$...") are ignored.
//
// Example usage:
//
//	discovery := files.NewDiscovery(logger)
//	yearFiles, err := discovery.FindYearFiles("data/raw", 2014, 2024)
package files
