package dataprocessing

import (
	"fmt"
	"sort"

	"shipbreaking/pkg/contracts/domain"
)

// BuildInsights derives the chart tables: age distribution, scrap locations
// and vessel type trends per year
func BuildInsights(records []domain.VesselRecord, ageBinWidth int) domain.Insights {
	return domain.Insights{
		AgeDistribution: AgeDistribution(records, ageBinWidth),
		ScrapLocations:  ScrapLocations(records),
		TypeTrends:      TypeTrends(records),
	}
}

// AgeDistribution counts records per age bin of the given width. Bins run
// contiguously from zero to the oldest vessel; empty bins are included.
func AgeDistribution(records []domain.VesselRecord, width int) []domain.AgeBin {
	if width <= 0 {
		width = 5
	}

	maxAge := -1
	for _, r := range records {
		if r.Age.Valid && int(r.Age.Int64) > maxAge {
			maxAge = int(r.Age.Int64)
		}
	}
	if maxAge < 0 {
		return []domain.AgeBin{}
	}

	bins := make([]domain.AgeBin, maxAge/width+1)
	for i := range bins {
		lower := i * width
		upper := lower + width - 1
		bins[i] = domain.AgeBin{
			Label: fmt.Sprintf("%d-%d", lower, upper),
			Lower: lower,
			Upper: upper,
		}
	}

	for _, r := range records {
		if r.Age.Valid && r.Age.Int64 >= 0 {
			bins[int(r.Age.Int64)/width].Count++
		}
	}

	return bins
}

// ScrapLocations counts records and sums LDT per COUNTRY and PLACE, most
// frequent first
func ScrapLocations(records []domain.VesselRecord) []domain.LocationCount {
	type key struct{ country, place string }

	counts := make(map[key]*domain.LocationCount)
	for _, r := range records {
		k := key{country: orUnknown(r.Country), place: orUnknown(r.Place)}
		lc, ok := counts[k]
		if !ok {
			lc = &domain.LocationCount{Country: k.country, Place: k.place}
			counts[k] = lc
		}
		lc.Count++
		if r.LDT.Valid {
			lc.TotalLDT += r.LDT.Float64
		}
	}

	locations := make([]domain.LocationCount, 0, len(counts))
	for _, lc := range counts {
		locations = append(locations, *lc)
	}

	sort.Slice(locations, func(i, j int) bool {
		a, b := locations[i], locations[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		if a.Country != b.Country {
			return a.Country < b.Country
		}
		return a.Place < b.Place
	})

	return locations
}

// TypeTrends counts records per scrapping YEAR and TYPE
func TypeTrends(records []domain.VesselRecord) []domain.TypeTrend {
	type key struct {
		year int
		typ  string
	}

	counts := make(map[key]int)
	for _, r := range records {
		if !r.Year.Valid {
			continue
		}
		counts[key{year: int(r.Year.Int64), typ: orUnknown(r.Type)}]++
	}

	trends := make([]domain.TypeTrend, 0, len(counts))
	for k, n := range counts {
		trends = append(trends, domain.TypeTrend{Year: k.year, Type: k.typ, Count: n})
	}

	sort.Slice(trends, func(i, j int) bool {
		if trends[i].Year != trends[j].Year {
			return trends[i].Year < trends[j].Year
		}
		return trends[i].Type < trends[j].Type
	})

	return trends
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownKey
	}
	return s
}
