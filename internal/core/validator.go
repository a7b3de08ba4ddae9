package core

import (
	"errors"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"eventcast/internal/types"
)

// ValidationError describes one failed field.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator with eventcast's custom tags and
// maps failures onto AppErrors.
//
// Custom tags:
//   - iso_date: YYYY-MM-DD calendar date
//   - weekday: full or three-letter English weekday name, any case
//   - is_timezone: IANA zone name accepted by time.LoadLocation
type Validator struct {
	validate *validator.Validate
	logger   *slog.Logger
}

// NewValidator builds a Validator that reports fields by their JSON name.
func NewValidator(logger *slog.Logger) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return ""
	})

	// Registration only fails on an empty tag or nil func.
	_ = v.RegisterValidation("iso_date", validateISODate)
	_ = v.RegisterValidation("weekday", validateWeekday)
	_ = v.RegisterValidation("is_timezone", validateTimezone)

	return &Validator{validate: v, logger: logger}
}

// ValidateStruct returns nil or an *types.AppError whose code reflects the
// first failure and whose details list every failure under
// "validation_errors".
func (v *Validator) ValidateStruct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		if v.logger != nil {
			v.logger.Error("validator misuse", "error", err.Error())
		}
		return types.NewAppError(types.ErrCodeInternalUnexpected, "request could not be validated", err)
	}

	fields := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, ValidationError{
			Field:   fe.Field(),
			Code:    tagToErrorCode(fe.Tag()),
			Message: fieldMessage(fe),
		})
	}

	return types.NewAppErrorWithDetails(
		types.ErrorCode(fields[0].Code),
		fields[0].Message,
		err,
		map[string]any{"validation_errors": fields},
	)
}

func tagToErrorCode(tag string) string {
	switch tag {
	case "required":
		return string(types.ErrCodeValidationMissingField)
	case "latitude":
		return string(types.ErrCodeValidationInvalidLat)
	case "longitude":
		return string(types.ErrCodeValidationInvalidLon)
	case "iso_date":
		return string(types.ErrCodeValidationInvalidDate)
	case "weekday":
		return string(types.ErrCodeValidationInvalidDay)
	case "is_timezone":
		return string(types.ErrCodeValidationInvalidTimezone)
	case "max":
		return string(types.ErrCodeValidationTooManyHours)
	case "gte", "lte":
		return string(types.ErrCodeValidationInvalidObserved)
	default:
		return string(types.ErrCodeValidationFailed)
	}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "latitude":
		return fe.Field() + " must be between -90 and 90"
	case "longitude":
		return fe.Field() + " must be between -180 and 180"
	case "iso_date":
		return fe.Field() + " must be a YYYY-MM-DD date"
	case "weekday":
		return fe.Field() + " must be a day of the week"
	case "is_timezone":
		return fe.Field() + " must be an IANA time zone"
	case "max":
		return fe.Field() + " must have at most " + fe.Param() + " entries"
	case "gte":
		return fe.Field() + " must be at least " + fe.Param()
	case "lte":
		return fe.Field() + " must be at most " + fe.Param()
	default:
		return fe.Field() + " failed " + fe.Tag() + " validation"
	}
}

func validateISODate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	_, err := time.Parse(time.DateOnly, s)
	return err == nil
}

var weekdayNames = func() map[string]bool {
	m := make(map[string]bool, 14)
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		m[name] = true
		m[name[:3]] = true
	}
	return m
}()

func validateWeekday(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	return weekdayNames[strings.ToLower(strings.TrimSpace(s))]
}

func validateTimezone(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	// LoadLocation treats "" and "UTC" specially and accepts "Local".
	if s == "Local" {
		return false
	}
	_, err := time.LoadLocation(s)
	return err == nil
}
