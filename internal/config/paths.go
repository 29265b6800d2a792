package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains every location the pipeline reads from or writes to.
// This is the single source of truth for file paths; components never join paths themselves.
type Paths struct {
	InputDir    string
	OutputDir   string
	SummaryDir  string
	InsightsDir string

	UnifiedCSV  string
	Workbook    string
	SQLiteDB    string
	RunReport   string
	MetricsFile string
	TraceFile   string
	CleaningLog string
}

// GetPaths resolves the configured locations. Relative output file names are placed
// under the output directory; absolute names are kept as they are.
func (c *Config) GetPaths() *Paths {
	out := c.Output.Dir
	return &Paths{
		InputDir:    c.Input.Dir,
		OutputDir:   out,
		SummaryDir:  filepath.Join(out, SummaryDirName),
		InsightsDir: filepath.Join(out, InsightsDirName),
		UnifiedCSV:  under(out, c.Output.UnifiedFile),
		Workbook:    under(out, c.Output.WorkbookFile),
		SQLiteDB:    under(out, c.Output.SQLiteFile),
		RunReport:   under(out, c.Output.ReportFile),
		MetricsFile: under(out, c.Telemetry.MetricsFile),
		TraceFile:   under(out, c.Telemetry.TraceFile),
		CleaningLog: filepath.Join(out, "cleaning_log.csv"),
	}
}

// ResolveInput returns the path of a configured yearly file
func (p *Paths) ResolveInput(name string) string {
	return under(p.InputDir, name)
}

// EnsureDirectories creates all output directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.OutputDir,
		p.SummaryDir,
		p.InsightsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// under joins name onto dir unless name is empty or already absolute
func under(dir, name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
