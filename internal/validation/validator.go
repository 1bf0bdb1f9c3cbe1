// Package validation guards resolved connection parameters before they are
// formatted into a connection URL. It never coerces values.
package validation

import (
	"fmt"
	"log/slog"

	"github.com/rezkam/dbsettings/internal/domain"
)

// Mode selects which Go types a resolved parameter may have.
type Mode int

const (
	// StringOnly accepts string values only.
	StringOnly Mode = iota
	// StringOrInt also accepts int values, e.g. a port read from a typed default.
	StringOrInt
)

func (m Mode) allowed() string {
	if m == StringOrInt {
		return "string, int"
	}
	return "string"
}

// ParameterValidator checks that a resolved parameter has an allowed type.
type ParameterValidator struct {
	mode Mode
}

// NewParameterValidator creates a validator for the given mode.
func NewParameterValidator(mode Mode) *ParameterValidator {
	return &ParameterValidator{mode: mode}
}

// Validate returns value unchanged when its type is allowed, otherwise a
// *domain.ParameterTypeError naming the parameter, the value and its type.
func (v *ParameterValidator) Validate(name domain.ParameterName, value any) (any, error) {
	switch value.(type) {
	case string:
		return value, nil
	case int:
		if v.mode == StringOrInt {
			return value, nil
		}
	}

	err := &domain.ParameterTypeError{
		Name:    name.String(),
		Value:   value,
		Type:    typeName(value),
		Allowed: v.mode.allowed(),
	}
	slog.Error(err.Error(), "parameter", name.String())
	return nil, err
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}
