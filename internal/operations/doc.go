// Package operations runs the shipbreaking harmonization pipeline as a
// sequence of named steps.
//
// Steps execute in registration order: load, harmonize, clean, derive_age,
// impute, aggregate and export. Each step reads and extends the RunData held
// by the OperationState and owns a StepState that moves from pending through
// active to completed, failed or skipped.
//
// Manager: executes the registered steps, opening a trace span and recording
// a step metric for each one. The context is checked between steps so an
// interrupt stops the run cleanly.
//
// Step: the interface every stage implements. A step that returns a SkipError
// is marked skipped and the run continues; the impute step does this when the
// regression cannot be fit. Any other error fails the run.
//
// Pipeline: wires configuration, telemetry and the steps together for one run
// and writes the run report afterwards.
//
// Example usage:
//
//	cfg, _ := config.Load("")
//	report, err := operations.NewPipeline(cfg, logger).Run(ctx)
//	if err != nil {
//		logger.Error("run failed", slog.String("status", report.Status))
//	}
package operations
