package domain

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared form validator with the registry rules
// registered on it.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their JSON name, as the forms are submitted.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		// Version numbers are positive integers carried as strings.
		_ = v.RegisterValidation("positiveInteger", func(fl validator.FieldLevel) bool {
			n, err := strconv.Atoi(fl.Field().String())
			return err == nil && n > 0
		})
		// Stage names are matched the way ParseStage matches them.
		_ = v.RegisterValidation("stage", func(fl validator.FieldLevel) bool {
			_, err := ParseStage(fl.Field().String())
			return err == nil
		})

		validate = v
	})
	return validate
}

// ValidateForm runs the validator and converts failures to a ValidationError.
func ValidateForm(form interface{}) error {
	err := Validator().Struct(form)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate form: %w", err)
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			fields[fe.Field()] = "is required"
		case "max":
			fields[fe.Field()] = fmt.Sprintf("must be at most %s characters", fe.Param())
		case "positiveInteger":
			fields[fe.Field()] = "must be a positive integer"
		case "stage":
			fields[fe.Field()] = fmt.Sprintf("unknown stage %q", fe.Value())
		default:
			fields[fe.Field()] = fmt.Sprintf("invalid value %v", fe.Value())
		}
	}
	return &ValidationError{Fields: fields}
}

// ValidateVersionKey checks a version reference before it is sent to the
// backend, which numbers versions from 1.
func ValidateVersionKey(k VersionKey) error {
	if k.Name == "" {
		return ErrInvalidModelName
	}
	if k.Version == "" {
		return ErrInvalidVersion
	}
	return ValidateForm(k)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
