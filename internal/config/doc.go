// Package config provides centralized configuration management for the shipbreaking
// pipeline. It handles loading configuration from multiple sources, validation, and
// resolves every input and output path the pipeline touches.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. Environment variables (highest priority), optionally seeded from a .env file
//  2. A YAML configuration file
//  3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SHIPBREAKING_* for namespacing:
//
//	SHIPBREAKING_INPUT_DIR=data/raw
//	SHIPBREAKING_INPUT_FILES=2014:Year2014.csv,2016:Year2016.xlsx
//	SHIPBREAKING_OUTPUT_DIR=data/output
//	SHIPBREAKING_IMPUTATION_FALLBACK=median
//	SHIPBREAKING_LOGGING_LEVEL=debug
//
// # YAML File
//
//	input:
//	  dir: data/raw
//	  files:
//	    2014: Year2014.csv
//	    2023: Year2023.xlsx
//	  aliases:
//	    GT: ["G.T."]
//	cleaning:
//	  min_year: 2014
//	  max_year: 2024
//	imputation:
//	  fallback: median
//
// # Validation
//
// All configuration is validated at load time with go-playground/validator struct tags.
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	paths := cfg.GetPaths()
package config
