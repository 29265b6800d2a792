package files

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Supported source formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// yearPattern matches a four digit year not embedded in a longer number
var yearPattern = regexp.MustCompile(`(?:^|\D)((?:19|20)\d{2})(?:\D|$)`)

// YearFile is one source file and the scrapping year it covers
type YearFile struct {
	Year    int
	Path    string
	Name    string
	Format  string
	Size    int64
	ModTime time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	logger *slog.Logger
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(logger *slog.Logger) *Discovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{logger: logger}
}

// FindYearFiles lists the CSV and XLSX files in dir whose name carries a year
// within [minYear, maxYear]. The result is sorted by year. Two files for the
// same year is an error.
func (d *Discovery) FindYearFiles(dir string, minYear, maxYear int) ([]YearFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	byYear := make(map[int]YearFile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		format := FormatOf(name)
		if format == "" || strings.HasPrefix(name, "~$") {
			continue
		}

		year, ok := YearFromName(name)
		if !ok {
			d.logger.Debug("Skipping file without year in name", slog.String("file", name))
			continue
		}
		if year < minYear || year > maxYear {
			d.logger.Debug("Skipping file outside year range",
				slog.String("file", name),
				slog.Int("year", year))
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if prev, dup := byYear[year]; dup {
			return nil, fmt.Errorf("multiple files for year %d: %s and %s", year, prev.Name, name)
		}

		byYear[year] = YearFile{
			Year:    year,
			Path:    filepath.Join(dir, name),
			Name:    name,
			Format:  format,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}
	}

	files := sortedFiles(byYear)

	d.logger.Info("Discovered yearly files",
		slog.String("directory", dir),
		slog.Int("count", len(files)))

	return files, nil
}

// FromConfig builds the file list from an explicit year to path mapping.
// resolve turns a configured name into a path.
func (d *Discovery) FromConfig(mapping map[int]string, resolve func(string) string) ([]YearFile, error) {
	byYear := make(map[int]YearFile, len(mapping))
	for year, name := range mapping {
		path := name
		if resolve != nil {
			path = resolve(name)
		}

		format := FormatOf(path)
		if format == "" {
			return nil, fmt.Errorf("unsupported file type for year %d: %s", year, name)
		}

		yf := YearFile{
			Year:   year,
			Path:   path,
			Name:   filepath.Base(path),
			Format: format,
		}
		if info, err := os.Stat(path); err == nil {
			yf.Size = info.Size()
			yf.ModTime = info.ModTime()
		}
		byYear[year] = yf
	}

	return sortedFiles(byYear), nil
}

// YearFromName extracts the first plausible year from a file name
func YearFromName(name string) (int, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	m := yearPattern.FindStringSubmatch(base)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return year, true
}

// FormatOf returns the source format implied by a file extension, or "" if unsupported
func FormatOf(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return FormatCSV
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return ""
	}
}

func sortedFiles(byYear map[int]YearFile) []YearFile {
	files := make([]YearFile, 0, len(byYear))
	for _, f := range byYear {
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool {
		return files[i].Year < files[j].Year
	})
	return files
}
