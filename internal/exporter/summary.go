package exporter

import (
	"log/slog"
	"path/filepath"
	"strings"

	"shipbreaking/pkg/contracts/domain"
)

// SummaryHeaders are the columns of every grouped summary file
var SummaryHeaders = []string{
	"key", "count", "gt_count", "mean_gt", "median_gt",
	"ldt_count", "mean_ldt", "total_ldt", "imputed_ldt", "age_count", "mean_age",
}

// SummaryDimensions lists the summary dimensions in export order
var SummaryDimensions = []string{domain.DimensionType, domain.DimensionCountry, domain.DimensionYear}

// SummaryFileName returns the file name used for a summary dimension, e.g. by_type.csv
func SummaryFileName(dimension string) string {
	return "by_" + strings.ToLower(dimension) + ".csv"
}

// SummaryRow converts a group summary into cells ordered as SummaryHeaders
func SummaryRow(s domain.GroupSummary) []string {
	return []string{
		s.Key,
		formatInt(s.Count),
		formatInt(s.GTCount),
		formatFloat(s.MeanGT),
		formatFloat(s.MedianGT),
		formatInt(s.LDTCount),
		formatFloat(s.MeanLDT),
		formatFloat(s.TotalLDT),
		formatInt(s.ImputedLDT),
		formatInt(s.AgeCount),
		formatFloat(s.MeanAge),
	}
}

// WriteSummaries writes one CSV per summary dimension into the summary directory
func (e *DatasetExporter) WriteSummaries(summaries map[string][]domain.GroupSummary) ([]string, error) {
	var written []string
	for _, dimension := range SummaryDimensions {
		groups, ok := summaries[dimension]
		if !ok {
			continue
		}

		rows := make([][]string, 0, len(groups))
		for _, g := range groups {
			rows = append(rows, SummaryRow(g))
		}

		path := filepath.Join(e.paths.SummaryDir, SummaryFileName(dimension))
		if err := e.csvWriter.WriteSimpleCSV(path, SummaryHeaders, rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	e.logger.Info("Wrote summaries", slog.Int("files", len(written)))
	return written, nil
}

// Insight file names
const (
	AgeDistributionFile = "age_distribution.csv"
	ScrapLocationsFile  = "scrap_locations.csv"
	TypeTrendsFile      = "type_trends.csv"
)

// WriteInsights writes the chart tables into the insights directory
func (e *DatasetExporter) WriteInsights(insights domain.Insights) ([]string, error) {
	ages := make([][]string, 0, len(insights.AgeDistribution))
	for _, b := range insights.AgeDistribution {
		ages = append(ages, []string{b.Label, formatInt(b.Lower), formatInt(b.Upper), formatInt(b.Count)})
	}

	locations := make([][]string, 0, len(insights.ScrapLocations))
	for _, l := range insights.ScrapLocations {
		locations = append(locations, []string{l.Country, l.Place, formatInt(l.Count), formatFloat(l.TotalLDT)})
	}

	trends := make([][]string, 0, len(insights.TypeTrends))
	for _, tt := range insights.TypeTrends {
		trends = append(trends, []string{formatInt(tt.Year), tt.Type, formatInt(tt.Count)})
	}

	files := []struct {
		name    string
		headers []string
		rows    [][]string
	}{
		{AgeDistributionFile, []string{"age_bin", "lower", "upper", "count"}, ages},
		{ScrapLocationsFile, []string{"country", "place", "count", "total_ldt"}, locations},
		{TypeTrendsFile, []string{"year", "type", "count"}, trends},
	}

	var written []string
	for _, f := range files {
		path := filepath.Join(e.paths.InsightsDir, f.name)
		if err := e.csvWriter.WriteSimpleCSV(path, f.headers, f.rows); err != nil {
			return written, err
		}
		written = append(written, path)
	}

	e.logger.Info("Wrote insights", slog.Int("files", len(written)))
	return written, nil
}
