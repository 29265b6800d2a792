package dataprocessing

import (
	"context"
	"log/slog"

	"shipbreaking/internal/config"
	"shipbreaking/internal/regression"
	"shipbreaking/pkg/contracts/domain"
)

// Reasons a row is left without LDT
const (
	UnimputedNoGT      = "missing GT"
	UnimputedFitFailed = "regression could not be fit"
)

// UnimputedRow identifies a record whose LDT is still missing after imputation
type UnimputedRow struct {
	Source string `json:"source"`
	Row    int    `json:"row"`
	Year   int    `json:"year"`
	IMO    int    `json:"imo"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// ImputationResult describes one imputation pass over all tables of a run
type ImputationResult struct {
	Model         *regression.Model `json:"model,omitempty"`
	FitError      string            `json:"fit_error,omitempty"`
	TrainingRows  int               `json:"training_rows"`
	Targets       int               `json:"targets"`
	Regression    int               `json:"regression"`
	TypeMedian    int               `json:"type_median"`
	OverallMedian int               `json:"overall_median"`
	Unimputed     []UnimputedRow    `json:"unimputed"`
}

// Imputed returns the number of LDT values filled in
func (r *ImputationResult) Imputed() int {
	return r.Regression + r.TypeMedian + r.OverallMedian
}

// Imputer fills missing LDT from GT
type Imputer struct {
	cfg    config.ImputationConfig
	logger *slog.Logger
}

// NewImputer creates an imputer
func NewImputer(cfg config.ImputationConfig, logger *slog.Logger) *Imputer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Imputer{cfg: cfg, logger: logger}
}

// Impute fits LDT ≈ β₀ + β₁·GT on every observed (GT, LDT) pair across tables
// and writes clipped predictions into records missing LDT. When the fit fails
// no record is modified, and the statistical error is returned together with a
// result listing the rows left unimputed.
func (i *Imputer) Impute(ctx context.Context, tables []*domain.YearTable) (*ImputationResult, error) {
	result := &ImputationResult{}

	var gt, ldt []float64
	for _, t := range tables {
		for _, rec := range t.Records {
			if isTrainingRow(rec) {
				gt = append(gt, rec.GT.Float64)
				ldt = append(ldt, rec.LDT.Float64)
			}
			if !rec.LDT.Valid {
				result.Targets++
			}
		}
	}
	result.TrainingRows = len(gt)

	model, err := regression.Fit(gt, ldt, i.cfg.MinTrainingRows)
	if err != nil {
		result.FitError = err.Error()
		result.Unimputed = collectUnimputed(tables, UnimputedFitFailed)

		i.logger.WarnContext(ctx, "LDT regression could not be fit",
			slog.Int("training_rows", result.TrainingRows),
			slog.Int("targets", result.Targets),
			slog.String("error", err.Error()))

		return result, err
	}
	result.Model = model

	for _, t := range tables {
		for k := range t.Records {
			rec := &t.Records[k]
			if rec.LDT.Valid || !rec.GT.Valid {
				continue
			}
			rec.SetLDT(model.PredictNonNegative(rec.GT.Float64), domain.LDTSourceRegression)
			result.Regression++
		}
	}

	if i.cfg.Fallback == config.FallbackMedian {
		i.applyMedians(tables, result)
	}

	result.Unimputed = collectUnimputed(tables, "")

	i.logger.InfoContext(ctx, "Imputed LDT",
		slog.Float64("intercept", model.Intercept),
		slog.Float64("slope", model.Slope),
		slog.Float64("r_squared", model.RSquared),
		slog.Int("training_rows", model.N),
		slog.Int("regression", result.Regression),
		slog.Int("type_median", result.TypeMedian),
		slog.Int("overall_median", result.OverallMedian),
		slog.Int("unimputed", len(result.Unimputed)))

	return result, nil
}

// applyMedians fills rows still missing LDT with the observed median of their
// TYPE, then with the overall observed median
func (i *Imputer) applyMedians(tables []*domain.YearTable, result *ImputationResult) {
	byType := make(map[string][]float64)
	var all []float64
	for _, t := range tables {
		for _, rec := range t.Records {
			if rec.LDTSource == domain.LDTSourceObserved {
				byType[rec.Type] = append(byType[rec.Type], rec.LDT.Float64)
				all = append(all, rec.LDT.Float64)
			}
		}
	}
	if len(all) == 0 {
		return
	}

	typeMedian := make(map[string]float64, len(byType))
	for typ, values := range byType {
		if typ != "" {
			typeMedian[typ] = Median(values)
		}
	}
	overall := Median(all)

	for _, t := range tables {
		for k := range t.Records {
			rec := &t.Records[k]
			if rec.LDT.Valid {
				continue
			}
			if m, ok := typeMedian[rec.Type]; ok {
				rec.SetLDT(m, domain.LDTSourceTypeMedian)
				result.TypeMedian++
				continue
			}
			rec.SetLDT(overall, domain.LDTSourceOverallMedian)
			result.OverallMedian++
		}
	}
}

func isTrainingRow(rec domain.VesselRecord) bool {
	return rec.LDTSource == domain.LDTSourceObserved &&
		rec.GT.Valid && rec.GT.Float64 > 0 &&
		rec.LDT.Valid && rec.LDT.Float64 > 0
}

// collectUnimputed lists records without LDT. After a successful fit only rows
// without GT remain, which is the reason used when none is given.
func collectUnimputed(tables []*domain.YearTable, reason string) []UnimputedRow {
	rows := []UnimputedRow{}
	for _, t := range tables {
		for _, rec := range t.Records {
			if rec.LDT.Valid {
				continue
			}
			why := reason
			if why == "" {
				why = UnimputedNoGT
			}
			rows = append(rows, UnimputedRow{
				Source: rec.SourceFile,
				Row:    rec.SourceRow,
				Year:   int(rec.Year.Int64),
				IMO:    rec.IMO,
				Name:   rec.Name,
				Type:   rec.Type,
				Reason: why,
			})
		}
	}
	return rows
}
