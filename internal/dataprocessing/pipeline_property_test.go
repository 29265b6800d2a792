package dataprocessing

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"shipbreaking/internal/config"
	"shipbreaking/pkg/contracts/domain"
)

func tableOfIMOs(year int, imos []int) *domain.YearTable {
	t := &domain.YearTable{Year: year, Source: "Year" + strconv.Itoa(year) + ".csv"}
	for i, imo := range imos {
		t.Records = append(t.Records, domain.VesselRecord{
			RawIMO:     strconv.Itoa(imo),
			Year:       sql.NullInt64{Int64: int64(year), Valid: true},
			SourceFile: t.Source,
			SourceRow:  i + 2,
		})
	}
	return t
}

// TestCleanedIMOsAreUnique verifies that no IMO survives cleaning twice, whichever year it appears in.
func TestCleanedIMOsAreUnique(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("kept IMOs are unique and every row is accounted for", prop.ForAll(
		func(a, b []int) bool {
			c := NewCleaner(config.Default().Cleaning, nil)
			ctx := context.Background()

			inputs := []*domain.YearTable{tableOfIMOs(2020, a), tableOfIMOs(2021, b)}
			seen := make(map[int]bool)
			for _, in := range inputs {
				out, result := c.Clean(ctx, in)
				if result.Kept+result.TotalDropped() != in.Len() {
					return false
				}
				for _, r := range out.Records {
					if seen[r.IMO] {
						return false
					}
					seen[r.IMO] = true
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(999990, 1000030)),
		gen.SliceOf(gen.IntRange(999990, 1000030)),
	))

	properties.TestingRun(t)
}

// TestDerivedAgeInvariant verifies AGE = YEAR - BUILT whenever AGE is set.
func TestDerivedAgeInvariant(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("age is non-negative and consistent", prop.ForAll(
		func(built, year int) bool {
			tbl := &domain.YearTable{Records: []domain.VesselRecord{{
				Built: sql.NullInt64{Int64: int64(built), Valid: true},
				Year:  sql.NullInt64{Int64: int64(year), Valid: true},
			}}}
			DeriveAge(tbl)

			age := tbl.Records[0].Age
			if built > year {
				return !age.Valid
			}
			return age.Valid && age.Int64 >= 0 && age.Int64 == int64(year-built)
		},
		gen.IntRange(1900, 2035),
		gen.IntRange(2014, 2024),
	))

	properties.TestingRun(t)
}

// TestCombinedRowCount verifies the combined dataset holds exactly the rows of each year.
func TestCombinedRowCount(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("combined rows equal the sum of yearly rows", prop.ForAll(
		func(a, b, c []int) bool {
			tables := []*domain.YearTable{tableOfIMOs(2019, a), tableOfIMOs(2020, b), tableOfIMOs(2021, c)}
			records := Combine(tables)
			if len(records) != len(a)+len(b)+len(c) {
				return false
			}
			for i := 1; i < len(records); i++ {
				if records[i-1].Year.Int64 > records[i].Year.Int64 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.IntRange(1000000, 9999999)),
		gen.SliceOf(gen.IntRange(1000000, 9999999)),
		gen.SliceOf(gen.IntRange(1000000, 9999999)),
	))

	properties.TestingRun(t)
}

// TestImputationDeterminism verifies two runs over the same input impute identical values.
func TestImputationDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	build := func(gts []float64) []*domain.YearTable {
		tbl := &domain.YearTable{Year: 2020}
		for i, gt := range gts {
			r := domain.VesselRecord{GT: sql.NullFloat64{Float64: gt, Valid: true}}
			if i%3 != 0 {
				r.SetLDT(gt*0.35+float64(i), domain.LDTSourceObserved)
			}
			tbl.Records = append(tbl.Records, r)
		}
		return []*domain.YearTable{tbl}
	}

	properties.Property("same input gives same LDT", prop.ForAll(
		func(gts []float64) bool {
			first, second := build(gts), build(gts)
			imp := NewImputer(config.Default().Imputation, nil)
			_, err1 := imp.Impute(context.Background(), first)
			_, err2 := imp.Impute(context.Background(), second)
			if (err1 == nil) != (err2 == nil) {
				return false
			}

			for i := range first[0].Records {
				a, b := first[0].Records[i], second[0].Records[i]
				if a.LDT != b.LDT || a.LDTSource != b.LDTSource {
					return false
				}
				if a.LDT.Valid && a.LDT.Float64 < 0 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(100, 200000)),
	))

	properties.TestingRun(t)
}
