package utils

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"school-directory/models"

	"github.com/go-playground/validator/v10"
)

// NewValidator returns a validator that knows the "contact" tag and reports
// fields by their form name.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("form"); name != "" {
			return name
		}
		return fld.Name
	})
	// Registration only fails for an empty tag or nil func.
	_ = v.RegisterValidation("contact", func(fl validator.FieldLevel) bool {
		return IsContactNumber(fl.Field().String())
	})
	return v
}

// DecodeSchoolForm reads the text fields from the request body only; query
// parameters are ignored. Values are trimmed, so whitespace-only input
// counts as missing.
func DecodeSchoolForm(r *http.Request) models.SchoolForm {
	return models.SchoolForm{
		Name:    strings.TrimSpace(r.PostFormValue("name")),
		Address: strings.TrimSpace(r.PostFormValue("address")),
		City:    strings.TrimSpace(r.PostFormValue("city")),
		State:   strings.TrimSpace(r.PostFormValue("state")),
		Contact: strings.TrimSpace(r.PostFormValue("contact")),
		EmailID: strings.TrimSpace(r.PostFormValue("email_id")),
	}
}

// ValidateSchoolForm returns nil or a *models.ValidationError describing the
// first invalid field.
func ValidateSchoolForm(v *validator.Validate, form models.SchoolForm) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &models.ValidationError{Message: "Invalid form data"}
	}

	fe := fieldErrs[0]
	field := fe.Field()
	var msg string
	switch fe.Tag() {
	case "required":
		msg = "Missing required field: " + field
	case "contact":
		msg = field + " must be exactly 10 digits"
	case "email":
		msg = field + " must be a valid email address"
	default:
		msg = field + " is invalid"
	}
	return &models.ValidationError{Field: field, Message: msg}
}
