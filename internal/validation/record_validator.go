package validation

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "shipbreaking/internal/errors"
	"shipbreaking/pkg/contracts/domain"
)

// IMO numbers are seven digits; a leading zero is well-formed
const (
	minIMO = 1
	maxIMO = 9999999
)

// RecordValidator validates cleaned vessel records through struct tags
type RecordValidator struct {
	validate *validator.Validate
	checksum bool
}

// NewRecordValidator creates a validator for domain.VesselRecord. With checksum
// set the "imo" tag also verifies the IMO check digit.
func NewRecordValidator(checksum bool) *RecordValidator {
	v := &RecordValidator{
		validate: validator.New(),
		checksum: checksum,
	}

	v.validate.RegisterCustomTypeFunc(nullValue, sql.NullFloat64{}, sql.NullInt64{})
	// Registration only fails for an empty tag or nil func.
	_ = v.validate.RegisterValidation("imo", v.validateIMO)

	return v
}

// Validate checks a record's field constraints.
// Failures are returned as a validity error naming each failed field.
func (v *RecordValidator) Validate(r *domain.VesselRecord) error {
	err := v.validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("failed to validate record: %w", err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}

	return apperrors.NewValidityError("record failed validation", err).
		WithContext("fields", strings.Join(fields, ",")).
		WithContext("imo", r.RawIMO)
}

func (v *RecordValidator) validateIMO(fl validator.FieldLevel) bool {
	imo := int(fl.Field().Int())
	if imo < minIMO || imo > maxIMO {
		return false
	}
	return !v.checksum || ValidIMOChecksum(imo)
}

// nullValue lets the validator see through sql.Null* wrappers
func nullValue(field reflect.Value) interface{} {
	if valuer, ok := field.Interface().(driver.Valuer); ok {
		val, err := valuer.Value()
		if err == nil {
			return val
		}
	}
	return nil
}

// NormalizeIMO parses a raw IMO cell. Surrounding space, an "IMO" prefix and a
// trailing ".0" left by spreadsheet exports are removed; what remains must be
// exactly seven ASCII digits.
func NormalizeIMO(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if len(s) >= 3 && strings.EqualFold(s[:3], "IMO") {
		s = strings.TrimSpace(strings.TrimLeft(s[3:], " :.#"))
	}
	s = strings.TrimSuffix(s, ".0")

	if len(s) != 7 {
		return 0, false
	}

	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	if n == 0 {
		return 0, false
	}
	return n, true
}

// ValidIMOChecksum verifies the IMO check digit: the first six digits weighted
// 7 down to 2 sum to a number whose last digit is the seventh digit.
func ValidIMOChecksum(imo int) bool {
	if imo < minIMO || imo > maxIMO {
		return false
	}
	check := imo % 10
	rest := imo / 10
	sum := 0
	for weight := 2; weight <= 7; weight++ {
		sum += (rest % 10) * weight
		rest /= 10
	}
	return sum%10 == check
}
