package schema

import (
	"fmt"
	"math"

	"github.com/aretw0/sflsweep/pkg/domain"
)

// Type defines the contract for parameter validation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value domain.Value) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value domain.Value) error {
	if value.Kind() != domain.KindString {
		return fmt.Errorf("expected string, got %s", value.Kind())
	}
	return nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value domain.Value) error {
	switch value.Kind() {
	case domain.KindInt:
		return nil
	case domain.KindFloat:
		f, _ := value.AsFloat()
		if f == math.Trunc(f) && !math.IsInf(f, 0) {
			return fmt.Errorf("expected int, got float %s (write it without a decimal point)", value.Text())
		}
		return fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return fmt.Errorf("expected int, got %s", value.Kind())
	}
}

// FloatType validates floating-point values. Integers are accepted, since
// 1 and 1.0 render the same way to the external program's float parser.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value domain.Value) error {
	switch value.Kind() {
	case domain.KindFloat:
		f, _ := value.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("expected a finite float")
		}
		return nil
	case domain.KindInt:
		return nil
	default:
		return fmt.Errorf("expected float, got %s", value.Kind())
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value domain.Value) error {
	if value.Kind() != domain.KindBool {
		return fmt.Errorf("expected bool, got %s", value.Kind())
	}
	return nil
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(domain.Value) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value domain.Value) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(domain.Value) error) Type {
	return &CustomType{name: name, validate: validate}
}

// ParseType converts a type name to a Type.
func ParseType(typeStr string) (Type, error) {
	switch typeStr {
	case "string", "str":
		return String(), nil
	case "int", "integer":
		return Int(), nil
	case "float", "number":
		return Float(), nil
	case "bool", "boolean":
		return Bool(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// ParseTypeMap converts a map of parameter names to type names into a Schema.
// Example: {"seed": "int", "gma_lr": "float"}
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema)
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, &domain.ConfigurationError{Param: key, Reason: err.Error()}
		}
		result[key] = t
	}
	return result, nil
}
