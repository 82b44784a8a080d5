package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ValidationError maps field names to messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message for field, keeping the first one.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

// OrNil returns e when it holds at least one field error.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

var validate = validator.New()

// validateStruct runs the struct tags of v and converts failures into a
// ValidationError keyed by the json field name.
func validateStruct(v interface{}) *ValidationError {
	verr := &ValidationError{}
	err := validate.Struct(v)
	if err == nil {
		return verr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.Add("non_field_errors", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.Add(jsonName(fe.Field()), fmt.Sprintf("failed on the '%s' tag", fe.Tag()))
	}
	return verr
}

func jsonName(field string) string {
	switch field {
	case "DeliveryAddress":
		return "delivery_address"
	default:
		return strings.ToLower(field)
	}
}
