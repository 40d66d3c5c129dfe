// Package validator wraps go-playground/validator/v10 for struct-tag
// validation of request/config structs. No other package in this module
// imports it; the core s3up package validates schemas and provider configs
// directly.
package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	registerCustomValidations()
}

func registerCustomValidations() {
	validate.RegisterValidation("providerkind", func(fl validator.FieldLevel) bool {
		kind := fl.Field().String()
		switch kind {
		case "aws", "r2", "spaces", "minio", "gcs", "s3-compatible":
			return true
		default:
			return false
		}
	})
}

// Validate validates a struct and returns a map of field errors, or nil
// when the struct is valid.
func Validate(s interface{}) map[string]string {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	errs := make(map[string]string)
	for _, fe := range err.(validator.ValidationErrors) {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			errs[field] = "This field is required"
		case "min":
			errs[field] = "Value is too short (min: " + fe.Param() + ")"
		case "max":
			errs[field] = "Value is too long (max: " + fe.Param() + ")"
		case "url":
			errs[field] = "Invalid URL format"
		case "providerkind":
			errs[field] = "Invalid provider kind. Must be: aws, r2, spaces, minio, gcs, or s3-compatible"
		default:
			errs[field] = "Invalid value"
		}
	}
	return errs
}

// ValidateVar validates a single variable against a tag.
func ValidateVar(field interface{}, tag string) error {
	return validate.Var(field, tag)
}
