package operations

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"

	"shipbreaking/internal/config"
	"shipbreaking/internal/dataprocessing"
	apperrors "shipbreaking/internal/errors"
	"shipbreaking/internal/exporter"
	"shipbreaking/internal/files"
	"shipbreaking/internal/infrastructure"
	"shipbreaking/internal/validation"
	"shipbreaking/pkg/contracts/domain"
)

// Step names
const (
	StepNameLoad      = "Load yearly files"
	StepNameHarmonize = "Harmonize schema"
	StepNameClean     = "Clean records"
	StepNameDeriveAge = "Derive vessel age"
	StepNameImpute    = "Impute LDT"
	StepNameAggregate = "Aggregate dataset"
	StepNameExport    = "Export results"
)

// StageOptions carries what the pipeline steps share
type StageOptions struct {
	Config  *config.Config
	Paths   *config.Paths
	Metrics *infrastructure.PipelineMetrics
	Logger  *slog.Logger
}

func (o *StageOptions) stepLogger(stepID string) *slog.Logger {
	return infrastructure.WithComponent(o.Logger, "pipeline").With(slog.String("step", stepID))
}

// NewPipelineRegistry registers the shipbreaking steps in execution order
func NewPipelineRegistry(opts *StageOptions) (*Registry, error) {
	harmonizer := dataprocessing.NewHarmonizer(opts.Config.Input.Aliases, opts.stepLogger(StepHarmonize))

	registry := NewRegistry()
	steps := []Step{
		NewLoadStage(opts, harmonizer),
		NewHarmonizeStage(opts, harmonizer),
		NewCleanStage(opts),
		NewDeriveAgeStage(opts),
		NewImputeStage(opts),
		NewAggregateStage(opts),
		NewExportStage(opts),
	}
	for _, step := range steps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// LoadStage discovers the yearly files and reads them into raw tables
type LoadStage struct {
	BaseStage
	cfg       *config.Config
	paths     *config.Paths
	discovery *files.Discovery
	validator *validation.FileValidator
	loader    *dataprocessing.Loader
	metrics   *infrastructure.PipelineMetrics
	logger    *slog.Logger
}

// NewLoadStage creates the load step
func NewLoadStage(opts *StageOptions, harmonizer *dataprocessing.Harmonizer) *LoadStage {
	logger := opts.stepLogger(StepLoad)
	return &LoadStage{
		BaseStage: NewBaseStage(StepLoad, StepNameLoad),
		cfg:       opts.Config,
		paths:     opts.Paths,
		discovery: files.NewDiscovery(logger),
		validator: validation.NewFileValidator(logger),
		loader:    dataprocessing.NewLoader(opts.Config.Input, harmonizer, logger),
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Execute finds the yearly files and loads every readable one
func (s *LoadStage) Execute(ctx context.Context, state *OperationState) error {
	if err := s.validator.ValidateInputDirectory(s.paths.InputDir); err != nil {
		return err
	}

	var (
		yearFiles []files.YearFile
		err       error
	)
	if len(s.cfg.Input.Files) > 0 {
		yearFiles, err = s.discovery.FromConfig(s.cfg.Input.Files, s.paths.ResolveInput)
	} else {
		yearFiles, err = s.discovery.FindYearFiles(s.paths.InputDir, s.cfg.Cleaning.MinYear, s.cfg.Cleaning.MaxYear)
	}
	if err != nil {
		return err
	}
	if len(yearFiles) == 0 {
		return apperrors.NewNotFoundError("yearly source file").WithContext("dir", s.paths.InputDir)
	}
	state.Data.YearFiles = yearFiles

	raws, issues, err := s.loader.LoadAll(ctx, yearFiles)
	state.Data.LoadIssues = append(state.Data.LoadIssues, issues...)
	if err != nil {
		return err
	}
	state.Data.RawTables = raws

	total := 0
	for _, raw := range raws {
		s.metrics.RecordLoaded(ctx, raw.Year, raw.Len())
		state.Data.LoadedRows[raw.Year] = raw.Len()
		total += raw.Len()
	}
	infrastructure.AddSpanEvent(ctx, "files.loaded",
		attribute.Int("files", len(raws)),
		attribute.Int("rows", total))

	s.logger.InfoContext(ctx, "Loaded yearly files",
		slog.Int("discovered", len(yearFiles)),
		slog.Int("loaded", len(raws)),
		slog.Int("skipped", len(issues)),
		slog.Int("rows", total))
	return nil
}

// HarmonizeStage maps every raw table onto the canonical schema
type HarmonizeStage struct {
	BaseStage
	harmonizer *dataprocessing.Harmonizer
	logger     *slog.Logger
}

// NewHarmonizeStage creates the harmonize step
func NewHarmonizeStage(opts *StageOptions, harmonizer *dataprocessing.Harmonizer) *HarmonizeStage {
	return &HarmonizeStage{
		BaseStage:  NewBaseStage(StepHarmonize, StepNameHarmonize),
		harmonizer: harmonizer,
		logger:     opts.stepLogger(StepHarmonize),
	}
}

// Validate requires loaded raw tables
func (s *HarmonizeStage) Validate(state *OperationState) error {
	if len(state.Data.RawTables) == 0 {
		return NewValidationError(s.ID(), "no raw tables to harmonize")
	}
	return nil
}

// Execute harmonizes each table. A table without an IMO column is skipped
// and reported as a load issue.
func (s *HarmonizeStage) Execute(ctx context.Context, state *OperationState) error {
	data := state.Data
	data.Tables = data.Tables[:0]

	for _, raw := range data.RawTables {
		table, report, err := s.harmonizer.Harmonize(ctx, raw)
		if report != nil {
			data.Schema = append(data.Schema, report)
		}
		if err != nil {
			if !apperrors.IsType(err, apperrors.ErrTypeSchema) {
				return err
			}
			s.logger.WarnContext(ctx, "Skipping table without IMO column",
				slog.Int("year", raw.Year),
				slog.String("source", raw.Source))
			data.LoadIssues = append(data.LoadIssues, dataprocessing.LoadIssue{
				Year:   raw.Year,
				Source: raw.Source,
				Reason: err.Error(),
			})
			continue
		}
		data.Tables = append(data.Tables, table)
	}

	if len(data.Tables) == 0 {
		return apperrors.NewSchemaError("no source table has an IMO column", nil).
			WithContext("tables", len(data.RawTables))
	}

	// Raw cells are no longer needed
	data.RawTables = nil
	return nil
}

// CleanStage drops malformed and duplicate records across all tables
type CleanStage struct {
	BaseStage
	cleaner *dataprocessing.Cleaner
	metrics *infrastructure.PipelineMetrics
	logger  *slog.Logger
}

// NewCleanStage creates the clean step
func NewCleanStage(opts *StageOptions) *CleanStage {
	logger := opts.stepLogger(StepClean)
	return &CleanStage{
		BaseStage: NewBaseStage(StepClean, StepNameClean),
		cleaner:   dataprocessing.NewCleaner(opts.Config.Cleaning, logger),
		metrics:   opts.Metrics,
		logger:    logger,
	}
}

// Validate requires harmonized tables
func (s *CleanStage) Validate(state *OperationState) error {
	if len(state.Data.Tables) == 0 {
		return NewValidationError(s.ID(), "no harmonized tables to clean")
	}
	return nil
}

// Execute replaces each harmonized table with its cleaned version. Tables are
// cleaned in year order by one cleaner so the first occurrence of an IMO wins.
func (s *CleanStage) Execute(ctx context.Context, state *OperationState) error {
	data := state.Data
	cleaned := make([]*domain.YearTable, 0, len(data.Tables))
	kept, dropped := 0, 0

	for _, t := range data.Tables {
		out, result := s.cleaner.Clean(ctx, t)
		cleaned = append(cleaned, out)
		data.Cleaning = append(data.Cleaning, result)

		for reason, n := range result.Dropped {
			s.metrics.RecordDropped(ctx, string(reason), n)
		}
		kept += result.Kept
		dropped += result.TotalDropped()
	}
	data.Tables = cleaned

	s.logger.InfoContext(ctx, "Cleaned records",
		slog.Int("kept", kept),
		slog.Int("dropped", dropped))
	return nil
}

// DeriveAgeStage computes AGE for every record
type DeriveAgeStage struct {
	BaseStage
	logger *slog.Logger
}

// NewDeriveAgeStage creates the derive_age step
func NewDeriveAgeStage(opts *StageOptions) *DeriveAgeStage {
	return &DeriveAgeStage{
		BaseStage: NewBaseStage(StepDeriveAge, StepNameDeriveAge),
		logger:    opts.stepLogger(StepDeriveAge),
	}
}

// Execute derives ages table by table
func (s *DeriveAgeStage) Execute(ctx context.Context, state *OperationState) error {
	var stats dataprocessing.AgeStats
	for _, t := range state.Data.Tables {
		stats.Add(dataprocessing.DeriveAge(t))
	}
	state.Data.Age = stats

	s.logger.InfoContext(ctx, "Derived vessel age",
		slog.Int("derived", stats.Derived),
		slog.Int("flagged", stats.Flagged),
		slog.Int("built_after_year", stats.BuiltAfterYear))
	return nil
}

// ImputeStage fills missing LDT from GT
type ImputeStage struct {
	BaseStage
	imputer *dataprocessing.Imputer
	metrics *infrastructure.PipelineMetrics
}

// NewImputeStage creates the impute step
func NewImputeStage(opts *StageOptions) *ImputeStage {
	return &ImputeStage{
		BaseStage: NewBaseStage(StepImpute, StepNameImpute),
		imputer:   dataprocessing.NewImputer(opts.Config.Imputation, opts.stepLogger(StepImpute)),
		metrics:   opts.Metrics,
	}
}

// Execute runs the imputer over all tables. A regression that cannot be fit
// skips the step and leaves LDT untouched.
func (s *ImputeStage) Execute(ctx context.Context, state *OperationState) error {
	result, err := s.imputer.Impute(ctx, state.Data.Tables)
	state.Data.Imputation = result
	if err != nil {
		if apperrors.IsType(err, apperrors.ErrTypeStatistical) {
			return NewSkipError(fmt.Sprintf("%d rows left without LDT", len(result.Unimputed)), err)
		}
		return err
	}

	s.metrics.RecordImputed(ctx, string(domain.LDTSourceRegression), result.Regression)
	s.metrics.RecordImputed(ctx, string(domain.LDTSourceTypeMedian), result.TypeMedian)
	s.metrics.RecordImputed(ctx, string(domain.LDTSourceOverallMedian), result.OverallMedian)
	if result.Model != nil {
		s.metrics.RecordRegression(ctx, result.Model.RSquared, result.Model.N)
		infrastructure.AddSpanEvent(ctx, "regression.fit",
			attribute.Float64("intercept", result.Model.Intercept),
			attribute.Float64("slope", result.Model.Slope),
			attribute.Float64("r_squared", result.Model.RSquared),
			attribute.Int("training_rows", result.Model.N))
	}
	return nil
}

// AggregateStage concatenates the tables and computes the summaries
type AggregateStage struct {
	BaseStage
	aggregator *dataprocessing.Aggregator
}

// NewAggregateStage creates the aggregate step
func NewAggregateStage(opts *StageOptions) *AggregateStage {
	return &AggregateStage{
		BaseStage:  NewBaseStage(StepAggregate, StepNameAggregate),
		aggregator: dataprocessing.NewAggregator(config.AgeBinWidth, opts.stepLogger(StepAggregate)),
	}
}

// Execute builds the combined dataset
func (s *AggregateStage) Execute(ctx context.Context, state *OperationState) error {
	state.Data.Aggregation = s.aggregator.Aggregate(ctx, state.Data.Tables)
	return nil
}

// ExportStage writes the dataset, summaries and optional workbook and database
type ExportStage struct {
	BaseStage
	cfg      *config.Config
	paths    *config.Paths
	dataset  *exporter.DatasetExporter
	workbook *exporter.WorkbookExporter
	logger   *slog.Logger
}

// NewExportStage creates the export step
func NewExportStage(opts *StageOptions) *ExportStage {
	logger := opts.stepLogger(StepExport)
	return &ExportStage{
		BaseStage: NewBaseStage(StepExport, StepNameExport),
		cfg:       opts.Config,
		paths:     opts.Paths,
		dataset:   exporter.NewDatasetExporter(opts.Paths, opts.Config.Output.BOM, logger),
		workbook:  exporter.NewWorkbookExporter(logger),
		logger:    logger,
	}
}

// Validate requires an aggregated dataset
func (s *ExportStage) Validate(state *OperationState) error {
	if state.Data.Aggregation == nil {
		return NewValidationError(s.ID(), "nothing to export")
	}
	return nil
}

// Execute writes every configured output
func (s *ExportStage) Execute(ctx context.Context, state *OperationState) error {
	agg := state.Data.Aggregation

	unified, err := s.dataset.WriteUnified(agg.Records)
	if err != nil {
		return err
	}
	state.AddOutput(unified)

	cleaningLog, err := s.dataset.WriteCleaningLog(state.Data.Cleaning)
	if err != nil {
		return err
	}
	state.AddOutput(cleaningLog)

	summaries, err := s.dataset.WriteSummaries(agg.Summaries)
	if err != nil {
		return err
	}
	state.AddOutput(summaries...)

	insights, err := s.dataset.WriteInsights(agg.Insights)
	if err != nil {
		return err
	}
	state.AddOutput(insights...)

	if s.cfg.Output.XLSX {
		if err := s.workbook.Write(s.paths.Workbook, agg.Records, agg.Summaries); err != nil {
			return err
		}
		state.AddOutput(s.paths.Workbook)
	}

	if s.cfg.Output.SQLite {
		if err := s.saveSQLite(ctx, state); err != nil {
			return err
		}
		state.AddOutput(s.paths.SQLiteDB)
	}

	s.logger.InfoContext(ctx, "Exported results",
		slog.Int("rows", len(agg.Records)),
		slog.Int("files", len(state.Data.Outputs)))
	return nil
}

func (s *ExportStage) saveSQLite(ctx context.Context, state *OperationState) error {
	store, err := exporter.OpenStore(ctx, s.paths.SQLiteDB, s.logger)
	if err != nil {
		return err
	}
	defer store.Close()

	agg := state.Data.Aggregation
	return store.SaveRun(ctx, state.ID, agg.Records, state.Data.Cleaning, agg.Summaries)
}
