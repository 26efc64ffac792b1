package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	errors "github.com/frahmantamala/expense-client/internal"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validate       = validator.New()
	dateFormat     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	topLevelDomain = regexp.MustCompile(`(?i)\.[a-z]{2,}$`)
)

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

// ValidationBuilder collects rules field by field. A field stops at its first
// failing rule; every field is checked, in registration order.
type ValidationBuilder struct {
	fields []*FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{fields: make([]*FieldValidator, 0)}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := &FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return fv
}

func (fv *FieldValidator) fail(message, fallback string, code errors.ErrorCode) *errors.AppError {
	if message == "" {
		message = fallback
	}
	return errors.NewValidationFieldError(fv.FieldName, message, code)
}

func (fv *FieldValidator) Required(message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				return fv.fail(message, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeRequiredFields)
			}
		case *string:
			if v == nil || strings.TrimSpace(*v) == "" {
				return fv.fail(message, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeRequiredFields)
			}
		case nil:
			return fv.fail(message, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeRequiredFields)
		}
		return nil
	})
	return fv
}

// The remaining string rules pass on empty input; pair them with Required.

func (fv *FieldValidator) MaxLength(max int, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && utf8.RuneCountInString(v) > max {
			return fv.fail(message, fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MinLength(min int, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" && utf8.RuneCountInString(v) < min {
			return fv.fail(message, fmt.Sprintf("%s must be at least %d characters", fv.FieldName, min), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NoDigits(message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && strings.IndexFunc(v, unicode.IsDigit) >= 0 {
			return fv.fail(message, fmt.Sprintf("%s cannot contain numbers", fv.FieldName), errors.ErrCodeInvalidName)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Email(message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		if err := validate.Var(v, "email"); err != nil || !topLevelDomain.MatchString(v) {
			return fv.fail(message, "invalid email address", errors.ErrCodeInvalidEmail)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Equals(other string, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" && v != other {
			return fv.fail(message, fmt.Sprintf("%s does not match", fv.FieldName), errors.ErrCodePasswordMismatch)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) OneOf(options []string, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		for _, o := range options {
			if o == v {
				return nil
			}
		}
		return fv.fail(message, fmt.Sprintf("%s must be one of %s", fv.FieldName, strings.Join(options, ", ")), errors.ErrCodeInvalidCategory)
	})
	return fv
}

// PositiveDecimal checks a user-typed amount parses as a number greater than zero.
func (fv *FieldValidator) PositiveDecimal(message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil || !d.IsPositive() {
			return fv.fail(message, fmt.Sprintf("%s must be a positive number", fv.FieldName), errors.ErrCodeInvalidAmount)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) DateFormat(message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" && !dateFormat.MatchString(v) {
			return fv.fail(message, fmt.Sprintf("%s must be in the format YYYY-MM-DD", fv.FieldName), errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

// YearBetween checks the leading YYYY of a date string; run it after DateFormat.
func (fv *FieldValidator) YearBetween(min, max int, message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || len(v) < 4 {
			return nil
		}
		year, err := strconv.Atoi(v[:4])
		if err != nil || year < min || year > max {
			return fv.fail(message, fmt.Sprintf("Year must be between %d and %d", min, max), errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

// CalendarDate rejects well-formed strings naming impossible days such as 2024-02-30.
func (fv *FieldValidator) CalendarDate(message string) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		v, ok := value.(string)
		if !ok || v == "" {
			return nil
		}
		if _, err := time.Parse("2006-01-02", v); err != nil {
			return fv.fail(message, "Invalid date", errors.ErrCodeInvalidDate)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			err := validator(field.Value)
			if err == nil {
				continue
			}
			if details, ok := err.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
			} else {
				validationErrors = append(validationErrors, errors.ValidationError{
					Field:   field.FieldName,
					Message: err.Message,
					Code:    string(err.Code),
				})
			}
			break
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}
