// Clickboard - Feature Click Analytics Dashboard Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/clickboard

// Package validation validates login and registration forms with
// go-playground/validator v10.
//
// A single validator instance is shared process-wide. Two custom rules are
// registered:
//   - password_complexity: a lowercase letter, an uppercase letter and a digit
//   - gender_option: Male, Female or Other
//
// Field names in errors are the JSON names (confirmPassword, not
// ConfirmPassword) so they line up with the form fields. Messages match the
// ones the registration form shows.
//
// Example usage:
//
//	if verr := validation.ValidateRegister(&req); verr != nil {
//	    respondValidation(w, verr)
//	    return
//	}
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/clickboard/internal/models"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// FieldError is one failed rule on one form field.
type FieldError struct {
	Field   string // JSON name
	Tag     string // failed rule, e.g. "min"
	Message string
}

// RequestValidationError collects every failed field of one request, in
// struct order.
type RequestValidationError struct {
	Fields []FieldError
}

// Error joins the field messages.
func (ve *RequestValidationError) Error() string {
	if len(ve.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(ve.Fields))
	for i, fe := range ve.Fields {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return strings.Join(parts, "; ")
}

// FieldMessages maps each failed field to its first message, which is how
// the form displays them inline.
func (ve *RequestValidationError) FieldMessages() map[string]string {
	out := make(map[string]string, len(ve.Fields))
	for _, fe := range ve.Fields {
		if _, seen := out[fe.Field]; !seen {
			out[fe.Field] = fe.Message
		}
	}
	return out
}

// ToAPIError converts to the local API's error envelope. A single failure
// keeps its own message; several are listed under details.fields.
func (ve *RequestValidationError) ToAPIError() *models.APIError {
	apiErr := &models.APIError{Code: "VALIDATION_ERROR", Message: "Validation failed"}
	switch len(ve.Fields) {
	case 0:
	case 1:
		fe := ve.Fields[0]
		apiErr.Message = fe.Message
		apiErr.Details = map[string]any{"field": fe.Field, "tag": fe.Tag}
	default:
		apiErr.Message = ve.Error()
		apiErr.Details = map[string]any{"fields": ve.FieldMessages()}
	}
	return apiErr
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "" || name == "-" {
		return fld.Name
	}
	return name
}

// GetValidator returns the shared validator.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(jsonFieldName)
		for tag, fn := range map[string]validator.Func{
			"password_complexity": validatePasswordComplexity,
			"gender_option":       validateGenderOption,
		} {
			if err := validate.RegisterValidation(tag, fn); err != nil {
				panic(fmt.Sprintf("register %s validator: %v", tag, err))
			}
		}
	})
	return validate
}

// ValidateStruct validates s. It returns nil on success.
func ValidateStruct(s any) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &RequestValidationError{Fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}
	out := &RequestValidationError{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{Field: fe.Field(), Tag: fe.Tag(), Message: messageFor(fe)}
	}
	return out
}

// ValidateLogin checks the login form.
func ValidateLogin(req *models.LoginRequest) *RequestValidationError {
	return ValidateStruct(req)
}

// ValidateRegister checks the registration form.
func ValidateRegister(req *models.RegisterRequest) *RequestValidationError {
	return ValidateStruct(req)
}

func validatePasswordComplexity(fl validator.FieldLevel) bool {
	var lower, upper, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	return lower && upper && digit
}

func validateGenderOption(fl validator.FieldLevel) bool {
	switch models.Gender(fl.Field().String()) {
	case models.GenderMale, models.GenderFemale, models.GenderOther:
		return true
	}
	return false
}

// formMessages holds the registration and login form wording, keyed by
// field then tag.
var formMessages = map[string]map[string]string{
	"username": {
		"required": "Username is required",
		"min":      "Must be at least 3 chars",
	},
	"email": {
		"required": "Email is required",
		"email":    "Invalid email address",
	},
	"age": {
		"required": "Age is required",
		"gte":      "Must be at least 18",
		"lte":      "Invalid age",
	},
	"gender": {
		"required":      "Gender is required",
		"gender_option": "Invalid gender",
	},
	"password": {
		"required":            "Password is required",
		"min":                 "Must be at least 8 chars",
		"password_complexity": "Password must contain at least one uppercase, one lowercase, and one number",
	},
	"confirmPassword": {
		"required": "Confirm Password is required",
		"eqfield":  "Passwords must match",
	},
}

// messageFor prefers the form wording and falls back to a generic message
// for structs the forms do not cover.
func messageFor(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if msg, ok := formMessages[field][tag]; ok {
		return msg
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch tag {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, param)
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, param)
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, param)
	case "eqfield":
		return fmt.Sprintf("%s must match %s", field, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", field, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", field, param, unit)
	default:
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
