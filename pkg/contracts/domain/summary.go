package domain

// Summary dimensions
const (
	DimensionType    = "TYPE"
	DimensionCountry = "COUNTRY"
	DimensionYear    = "YEAR"
)

// GroupSummary holds descriptive statistics for one group of records
type GroupSummary struct {
	Dimension  string  `json:"dimension"`
	Key        string  `json:"key"`
	Count      int     `json:"count"`
	GTCount    int     `json:"gt_count"`
	MeanGT     float64 `json:"mean_gt"`
	MedianGT   float64 `json:"median_gt"`
	LDTCount   int     `json:"ldt_count"`
	MeanLDT    float64 `json:"mean_ldt"`
	TotalLDT   float64 `json:"total_ldt"`
	ImputedLDT int     `json:"imputed_ldt"`
	AgeCount   int     `json:"age_count"`
	MeanAge    float64 `json:"mean_age"`
}

// DatasetStats describes the combined dataset as a whole
type DatasetStats struct {
	Rows        int     `json:"rows"`
	Years       []int   `json:"years"`
	Types       int     `json:"types"`
	Countries   int     `json:"countries"`
	ObservedLDT int     `json:"observed_ldt"`
	ImputedLDT  int     `json:"imputed_ldt"`
	MissingLDT  int     `json:"missing_ldt"`
	MeanAge     float64 `json:"mean_age"`
	MedianAge   float64 `json:"median_age"`
	TotalLDT    float64 `json:"total_ldt"`
}

// AgeBin counts vessels whose age falls in [Lower, Upper]
type AgeBin struct {
	Label string `json:"label"`
	Lower int    `json:"lower"`
	Upper int    `json:"upper"`
	Count int    `json:"count"`
}

// LocationCount counts vessels broken up at one country/place pair
type LocationCount struct {
	Country  string  `json:"country"`
	Place    string  `json:"place"`
	Count    int     `json:"count"`
	TotalLDT float64 `json:"total_ldt"`
}

// TypeTrend counts vessels of one type scrapped in one year
type TypeTrend struct {
	Year  int    `json:"year"`
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// Insights groups the tables consumed by the charting layer
type Insights struct {
	AgeDistribution []AgeBin        `json:"age_distribution"`
	ScrapLocations  []LocationCount `json:"scrap_locations"`
	TypeTrends      []TypeTrend     `json:"type_trends"`
}
