package config

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	nperrors "github.com/alexisbeaulieu97/nixprofile/pkg/errors"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate
)

func validatorInstance() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()

		// Report fields by their input name so messages match the workflow file.
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		validateInst = v
	})

	return validateInst
}

// Validate checks the raw inputs. It never touches anything outside the
// process, so an invalid request fails before nix is consulted.
func Validate(in Inputs) error {
	if err := validatorInstance().Struct(in); err != nil {
		return convertValidationError(err)
	}
	return nil
}

func convertValidationError(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return nperrors.NewValidationError("inputs", err.Error(), err)
	}

	ve := ves[0]
	switch ve.Tag() {
	case "required_without_all":
		return errNothingToInstall()
	case "oneof":
		return nperrors.NewValidationError(ve.Field(), `Expected an input of either "true" or "false"`, err)
	default:
		return nperrors.NewValidationError(ve.Field(), "failed validation for tag '"+ve.Tag()+"'", err)
	}
}

func errNothingToInstall() error {
	return nperrors.NewValidationError("", "Neither the `packages`, the `expr` nor the `dummy-bins` input is given", nil)
}
