package dataprocessing

import (
	"database/sql"

	"shipbreaking/pkg/contracts/domain"
)

// AgeStats counts the outcome of age derivation for one table
type AgeStats struct {
	Derived int `json:"derived"`
	// Flagged rows have no AGE: BUILT or YEAR is missing, or BUILT is after YEAR
	Flagged        int `json:"flagged"`
	BuiltAfterYear int `json:"built_after_year"`
}

// DeriveAge sets AGE = YEAR - BUILT on every record of t in place
func DeriveAge(t *domain.YearTable) AgeStats {
	var stats AgeStats
	for i := range t.Records {
		rec := &t.Records[i]
		rec.Age = sql.NullInt64{}

		if !rec.Built.Valid || !rec.Year.Valid {
			stats.Flagged++
			continue
		}
		if rec.Built.Int64 > rec.Year.Int64 {
			stats.Flagged++
			stats.BuiltAfterYear++
			continue
		}

		rec.Age = sql.NullInt64{Int64: rec.Year.Int64 - rec.Built.Int64, Valid: true}
		stats.Derived++
	}
	return stats
}

// Add accumulates other into s
func (s *AgeStats) Add(other AgeStats) {
	s.Derived += other.Derived
	s.Flagged += other.Flagged
	s.BuiltAfterYear += other.BuiltAfterYear
}
