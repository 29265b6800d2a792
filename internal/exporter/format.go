package exporter

import (
	"database/sql"
	"fmt"
	"strconv"
)

// formatFloat formats a float64 value for CSV output with exactly 2 decimal places
func formatFloat(f float64) string {
	return fmt.Sprintf("%.2f", f)
}

// formatInt formats an int value for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatNullFloat formats a nullable measurement without losing precision.
// Null values are written as empty cells.
func formatNullFloat(f sql.NullFloat64) string {
	if !f.Valid {
		return ""
	}
	return strconv.FormatFloat(f.Float64, 'f', -1, 64)
}

// formatNullInt formats a nullable integer; null values are empty cells
func formatNullInt(i sql.NullInt64) string {
	if !i.Valid {
		return ""
	}
	return strconv.FormatInt(i.Int64, 10)
}

// formatIMO writes the seven-digit IMO number with its leading zeros
func formatIMO(imo int) string {
	if imo <= 0 {
		return ""
	}
	return fmt.Sprintf("%07d", imo)
}

// nullableFloat returns nil for null values so spreadsheet and database cells stay empty
func nullableFloat(f sql.NullFloat64) interface{} {
	if !f.Valid {
		return nil
	}
	return f.Float64
}

// nullableInt returns nil for null values so spreadsheet and database cells stay empty
func nullableInt(i sql.NullInt64) interface{} {
	if !i.Valid {
		return nil
	}
	return i.Int64
}
