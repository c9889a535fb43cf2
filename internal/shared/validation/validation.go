// Package validation wraps go-playground/validator and reports failures
// per field, keyed by the field's JSON name, so callers can show each
// message next to the input that caused it.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/orris-inc/kanban/internal/shared/errors"
)

// MessageFunc renders the message for a failed field. label is the
// human-readable field name.
type MessageFunc func(label string, fe validator.FieldError) string

var (
	validate   *validator.Validate
	messagesMu sync.RWMutex
	messages   = map[string]MessageFunc{}
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	// Use JSON tag names for validation errors
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// FieldErrors maps a JSON field name to its message.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fe[field])
	}
	return strings.Join(parts, "; ")
}

// Has reports whether the field failed.
func (fe FieldErrors) Has(field string) bool {
	_, ok := fe[field]
	return ok
}

// AsAppError converts the field errors into the application error type.
func (fe FieldErrors) AsAppError() *appErrors.AppError {
	return appErrors.NewValidationError("Validation failed", fe.Error())
}

// RegisterValidation adds a custom tag with its own message.
func RegisterValidation(tag string, fn validator.Func, msg MessageFunc) error {
	if err := validate.RegisterValidation(tag, fn); err != nil {
		return fmt.Errorf("register validation %q: %w", tag, err)
	}
	if msg != nil {
		messagesMu.Lock()
		messages[tag] = msg
		messagesMu.Unlock()
	}
	return nil
}

// RegisterAlias maps alias to a tag expression, e.g. "stage" to
// "oneof='To Do' Done". Failures keep the built-in message of the
// underlying tag unless a custom message is registered for the alias.
func RegisterAlias(alias, tags string, msg MessageFunc) {
	validate.RegisterAlias(alias, tags)
	if msg != nil {
		messagesMu.Lock()
		messages[alias] = msg
		messagesMu.Unlock()
	}
}

// ValidateStruct validates s and returns nil when it is valid. The label of
// a field comes from its `label` tag, falling back to the Go field name.
func ValidateStruct(s any) FieldErrors {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return FieldErrors{"": err.Error()}
	}

	structType := reflect.TypeOf(s)
	for structType.Kind() == reflect.Pointer {
		structType = structType.Elem()
	}

	result := make(FieldErrors, len(validationErrors))
	for _, fieldError := range validationErrors {
		label := fieldError.StructField()
		if f, ok := structType.FieldByName(fieldError.StructField()); ok {
			if l := f.Tag.Get("label"); l != "" {
				label = l
			}
		}
		if _, seen := result[fieldError.Field()]; seen {
			continue
		}
		result[fieldError.Field()] = fieldMessage(label, fieldError)
	}
	return result
}

// fieldMessage returns a user-friendly error message for a field validation error
func fieldMessage(label string, fe validator.FieldError) string {
	messagesMu.RLock()
	custom, ok := messages[fe.Tag()]
	messagesMu.RUnlock()
	if ok {
		return custom(label, fe)
	}

	param := fe.Param()
	switch fe.ActualTag() {
	case "required":
		return fmt.Sprintf("%s is required", label)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", label, param)
		}
		return fmt.Sprintf("%s must be at least %s", label, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", label, param)
		}
		return fmt.Sprintf("%s must be at most %s", label, param)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", label, strings.Join(splitOneOf(param), ", "))
	case "url":
		return fmt.Sprintf("%s must be a valid URL", label)
	default:
		return fmt.Sprintf("%s failed validation for '%s'", label, fe.Tag())
	}
}

// splitOneOf splits a oneof parameter, honouring single-quoted values that
// contain spaces (e.g. 'To Do').
func splitOneOf(param string) []string {
	var (
		values  []string
		current strings.Builder
		quoted  bool
	)
	for _, r := range param {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == ' ' && !quoted:
			if current.Len() > 0 {
				values = append(values, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		values = append(values, current.String())
	}
	return values
}

// OneOf builds a oneof parameter from values, quoting the ones with spaces.
func OneOf(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		if strings.Contains(v, " ") {
			quoted[i] = "'" + v + "'"
		} else {
			quoted[i] = v
		}
	}
	return strings.Join(quoted, " ")
}

// FieldValue returns the failing value, dereferencing pointers.
func FieldValue(fe validator.FieldError) any {
	v := reflect.ValueOf(fe.Value())
	for v.IsValid() && v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}
	if !v.IsValid() {
		return nil
	}
	return v.Interface()
}
