package config

// Application constants
const (
	AppName = "shipbreaking"

	// EnvPrefix namespaces every environment variable (SHIPBREAKING_INPUT_DIR, ...)
	EnvPrefix = "SHIPBREAKING"

	DefaultInputDir       = "data/raw"
	DefaultOutputDir      = "data/output"
	DefaultHeaderScanRows = 10

	DefaultUnifiedFile  = "shipbreaking_unified.csv"
	DefaultWorkbookFile = "shipbreaking_unified.xlsx"
	DefaultSQLiteFile   = "shipbreaking.db"
	DefaultReportFile   = "run_report.json"
	DefaultMetricsFile  = "metrics.prom"
	DefaultTraceFile    = "traces.json"
	DefaultLogFile      = "logs/shipbreaking.log"

	SummaryDirName  = "summary"
	InsightsDirName = "insights"

	// Scrapping years covered by the source datasets
	DefaultMinYear = 2014
	DefaultMaxYear = 2024

	// Built years outside this window are treated as missing
	MinBuiltYear = 1900
	MaxBuiltYear = 2035

	// DefaultMinTrainingRows is the smallest training set that can pin a line
	DefaultMinTrainingRows = 2

	// AgeBinWidth is the width in years of each age distribution bucket
	AgeBinWidth = 5
)

// Imputation fallbacks
const (
	FallbackNone   = "none"
	FallbackMedian = "median"
)
