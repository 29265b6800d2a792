package domain

import (
	"database/sql"
)

// Canonical column names of the harmonized dataset
const (
	ColumnYear     = "YEAR"
	ColumnIMO      = "IMO"
	ColumnName     = "NAME"
	ColumnType     = "TYPE"
	ColumnGT       = "GT"
	ColumnLDT      = "LDT"
	ColumnBuilt    = "BUILT"
	ColumnLastFlag = "LAST FLAG"
	ColumnPlace    = "PLACE"
	ColumnCountry  = "COUNTRY"

	// Derived columns appended on export
	ColumnAge       = "AGE"
	ColumnLDTSource = "LDT SOURCE"
)

// CanonicalColumns lists the gold schema in export order.
var CanonicalColumns = []string{
	ColumnYear, ColumnIMO, ColumnName, ColumnType, ColumnGT, ColumnLDT,
	ColumnBuilt, ColumnLastFlag, ColumnPlace, ColumnCountry,
}

// LDTSource records where a record's LDT value came from
type LDTSource string

const (
	LDTSourceMissing       LDTSource = ""
	LDTSourceObserved      LDTSource = "observed"
	LDTSourceRegression    LDTSource = "regression"
	LDTSourceTypeMedian    LDTSource = "type_median"
	LDTSourceOverallMedian LDTSource = "overall_median"
)

// IsImputed reports whether the value was produced by the imputer.
func (s LDTSource) IsImputed() bool {
	return s == LDTSourceRegression || s == LDTSourceTypeMedian || s == LDTSourceOverallMedian
}

// VesselRecord is one scrapped vessel in one scrapping year.
//
// IMO is zero until the record has passed cleaning; RawIMO keeps the cell as read.
type VesselRecord struct {
	Name      string          `json:"name"`
	RawIMO    string          `json:"raw_imo,omitempty"`
	IMO       int             `json:"imo" validate:"imo"`
	Type      string          `json:"type"`
	GT        sql.NullFloat64 `json:"gt" validate:"omitempty,gte=0"`
	LDT       sql.NullFloat64 `json:"ldt" validate:"omitempty,gte=0"`
	LDTSource LDTSource       `json:"ldt_source"`
	Built     sql.NullInt64   `json:"built" validate:"omitempty,gte=1900,lte=2035"`
	Country   string          `json:"country"`
	Place     string          `json:"place"`
	Year      sql.NullInt64   `json:"year" validate:"required"`
	LastFlag  string          `json:"last_flag"`
	Age       sql.NullInt64   `json:"age" validate:"omitempty,gte=0"`

	SourceFile string `json:"source_file"`
	SourceRow  int    `json:"source_row"`
}

// HasLDT reports whether the record carries an LDT value.
func (r VesselRecord) HasLDT() bool {
	return r.LDT.Valid
}

// SetLDT stores an LDT value together with its source.
func (r *VesselRecord) SetLDT(v float64, source LDTSource) {
	r.LDT = sql.NullFloat64{Float64: v, Valid: true}
	r.LDTSource = source
}

// YearTable holds the records read from one yearly input file
type YearTable struct {
	Year    int            `json:"year"`
	Source  string         `json:"source"`
	Records []VesselRecord `json:"records"`
}

// Len returns the number of records in the table.
func (t *YearTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// RawTable is a yearly input file before harmonization: a header row and string cells.
type RawTable struct {
	Year   int        `json:"year"`
	Source string     `json:"source"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	// RowNumbers holds the 1-based source line or sheet row of each entry in Rows.
	RowNumbers []int `json:"row_numbers"`
	// HeaderRow is the 1-based position of the header in the source file.
	HeaderRow int `json:"header_row"`
}

// Len returns the number of data rows in the table.
func (t *RawTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
