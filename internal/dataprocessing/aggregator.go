package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strconv"

	"shipbreaking/pkg/contracts/domain"
)

// UnknownKey labels records with an empty grouping value
const UnknownKey = "UNKNOWN"

// Aggregation is the combined dataset and its grouped summaries
type Aggregation struct {
	Records   []domain.VesselRecord
	Stats     domain.DatasetStats
	Summaries map[string][]domain.GroupSummary
	Insights  domain.Insights
}

// Aggregator concatenates yearly tables and computes read-only summaries
type Aggregator struct {
	ageBinWidth int
	logger      *slog.Logger
}

// NewAggregator creates an aggregator. ageBinWidth sets the age distribution bucket size.
func NewAggregator(ageBinWidth int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if ageBinWidth <= 0 {
		ageBinWidth = 5
	}
	return &Aggregator{ageBinWidth: ageBinWidth, logger: logger}
}

// Aggregate combines tables and summarises the result by TYPE, COUNTRY and YEAR
func (a *Aggregator) Aggregate(ctx context.Context, tables []*domain.YearTable) *Aggregation {
	records := Combine(tables)

	agg := &Aggregation{
		Records: records,
		Stats:   ComputeStats(records),
		Summaries: map[string][]domain.GroupSummary{
			domain.DimensionType:    Summarize(records, domain.DimensionType),
			domain.DimensionCountry: Summarize(records, domain.DimensionCountry),
			domain.DimensionYear:    Summarize(records, domain.DimensionYear),
		},
		Insights: BuildInsights(records, a.ageBinWidth),
	}

	a.logger.InfoContext(ctx, "Aggregated dataset",
		slog.Int("rows", agg.Stats.Rows),
		slog.Int("years", len(agg.Stats.Years)),
		slog.Int("types", agg.Stats.Types),
		slog.Int("countries", agg.Stats.Countries),
		slog.Int("imputed_ldt", agg.Stats.ImputedLDT))

	return agg
}

// Combine concatenates the records of all tables and sorts them by YEAR,
// COUNTRY, PLACE, TYPE, NAME with IMO as the final tie-breaker
func Combine(tables []*domain.YearTable) []domain.VesselRecord {
	n := 0
	for _, t := range tables {
		n += t.Len()
	}

	records := make([]domain.VesselRecord, 0, n)
	for _, t := range tables {
		if t != nil {
			records = append(records, t.Records...)
		}
	}

	SortRecords(records)
	return records
}

// SortRecords orders records in place by YEAR, COUNTRY, PLACE, TYPE, NAME, IMO
func SortRecords(records []domain.VesselRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Year.Int64 != b.Year.Int64 {
			return a.Year.Int64 < b.Year.Int64
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		if a.Place != b.Place {
			return a.Place < b.Place
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.IMO < b.IMO
	})
}

// GroupKey returns the value of record r for a summary dimension
func GroupKey(r domain.VesselRecord, dimension string) string {
	var key string
	switch dimension {
	case domain.DimensionType:
		key = r.Type
	case domain.DimensionCountry:
		key = r.Country
	case domain.DimensionYear:
		if r.Year.Valid {
			key = strconv.FormatInt(r.Year.Int64, 10)
		}
	}
	if key == "" {
		return UnknownKey
	}
	return key
}

// Summarize groups records by dimension. Groups are ordered by descending
// count, then by key; YEAR groups are ordered by year.
func Summarize(records []domain.VesselRecord, dimension string) []domain.GroupSummary {
	type acc struct {
		count, imputed int
		gt, ldt, age   []float64
	}

	groups := make(map[string]*acc)
	for _, r := range records {
		key := GroupKey(r, dimension)
		g, ok := groups[key]
		if !ok {
			g = &acc{}
			groups[key] = g
		}
		g.count++
		if r.GT.Valid {
			g.gt = append(g.gt, r.GT.Float64)
		}
		if r.LDT.Valid {
			g.ldt = append(g.ldt, r.LDT.Float64)
		}
		if r.LDTSource.IsImputed() {
			g.imputed++
		}
		if r.Age.Valid {
			g.age = append(g.age, float64(r.Age.Int64))
		}
	}

	summaries := make([]domain.GroupSummary, 0, len(groups))
	for key, g := range groups {
		summaries = append(summaries, domain.GroupSummary{
			Dimension:  dimension,
			Key:        key,
			Count:      g.count,
			GTCount:    len(g.gt),
			MeanGT:     Mean(g.gt),
			MedianGT:   Median(g.gt),
			LDTCount:   len(g.ldt),
			MeanLDT:    Mean(g.ldt),
			TotalLDT:   sum(g.ldt),
			ImputedLDT: g.imputed,
			AgeCount:   len(g.age),
			MeanAge:    Mean(g.age),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if dimension == domain.DimensionYear {
			return a.Key < b.Key
		}
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Key < b.Key
	})

	return summaries
}

// ComputeStats describes the combined dataset
func ComputeStats(records []domain.VesselRecord) domain.DatasetStats {
	stats := domain.DatasetStats{Rows: len(records), Years: []int{}}

	years := make(map[int]struct{})
	types := make(map[string]struct{})
	countries := make(map[string]struct{})
	var ages, ldt []float64

	for _, r := range records {
		if r.Year.Valid {
			years[int(r.Year.Int64)] = struct{}{}
		}
		if r.Type != "" {
			types[r.Type] = struct{}{}
		}
		if r.Country != "" {
			countries[r.Country] = struct{}{}
		}
		switch {
		case r.LDTSource == domain.LDTSourceObserved:
			stats.ObservedLDT++
		case r.LDTSource.IsImputed():
			stats.ImputedLDT++
		default:
			stats.MissingLDT++
		}
		if r.LDT.Valid {
			ldt = append(ldt, r.LDT.Float64)
		}
		if r.Age.Valid {
			ages = append(ages, float64(r.Age.Int64))
		}
	}

	for y := range years {
		stats.Years = append(stats.Years, y)
	}
	sort.Ints(stats.Years)

	stats.Types = len(types)
	stats.Countries = len(countries)
	stats.MeanAge = Mean(ages)
	stats.MedianAge = Median(ages)
	stats.TotalLDT = sum(ldt)

	return stats
}

func sum(xs []float64) float64 {
	total := 0.0
	for _, x := range xs {
		total += x
	}
	return total
}
