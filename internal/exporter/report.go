package exporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"shipbreaking/internal/dataprocessing"
	apperrors "shipbreaking/internal/errors"
	"shipbreaking/pkg/contracts/domain"
)

// StepReport is the outcome of one pipeline step
type StepReport struct {
	Name       string        `json:"name"`
	Status     string        `json:"status"`
	StartedAt  time.Time     `json:"started_at,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	Error      string        `json:"error,omitempty"`
	SkipReason string        `json:"skip_reason,omitempty"`
}

// InputReport describes one yearly input file
type InputReport struct {
	Year   int    `json:"year"`
	Path   string `json:"path"`
	Format string `json:"format"`
	Rows   int    `json:"rows"`
}

// RunReport is the machine-readable account of a pipeline run
type RunReport struct {
	RunID      string    `json:"run_id"`
	Version    string    `json:"version,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`

	Steps      []StepReport                     `json:"steps"`
	Inputs     []InputReport                    `json:"inputs"`
	LoadIssues []dataprocessing.LoadIssue       `json:"load_issues,omitempty"`
	Schema     []*dataprocessing.SchemaReport   `json:"schema"`
	Cleaning   []*dataprocessing.CleaningResult `json:"cleaning"`
	Age        dataprocessing.AgeStats          `json:"age"`
	Imputation *dataprocessing.ImputationResult `json:"imputation,omitempty"`
	Stats      domain.DatasetStats              `json:"stats"`
	Outputs    []string                         `json:"outputs"`
}

// WriteReport writes the run report as indented JSON
func WriteReport(path string, report *RunReport) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewStorageError("failed to create directory", err).WithContext("path", path)
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode run report", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return apperrors.NewStorageError("failed to write run report", err).WithContext("path", path)
	}
	return nil
}

// ReadReport loads a run report written by WriteReport
func ReadReport(path string) (*RunReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("failed to read run report", err).WithContext("path", path)
	}

	var report RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, apperrors.NewParsingError("failed to decode run report", err).WithContext("path", path)
	}
	return &report, nil
}
