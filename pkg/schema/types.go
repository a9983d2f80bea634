package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"
)

// Type defines the contract for value validation.
type Type interface {
	// Name returns the type string understood by ParseType.
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

type stringType struct{}

func (stringType) Name() string { return "string" }

func (stringType) Validate(value any) error {
	if _, ok := value.(string); !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

type intType struct{}

func (intType) Name() string { return "int" }

func (intType) Validate(value any) error {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case float64:
		if v == math.Trunc(v) {
			return nil
		}
		return fmt.Errorf("expected int, got float %v", v)
	case json.Number:
		if _, err := v.Int64(); err != nil {
			return fmt.Errorf("expected int, got %s", v)
		}
		return nil
	default:
		return fmt.Errorf("expected int, got %T", value)
	}
}

type floatType struct{}

func (floatType) Name() string { return "float" }

func (floatType) Validate(value any) error {
	switch v := value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return nil
	case json.Number:
		if _, err := v.Float64(); err != nil {
			return fmt.Errorf("expected float, got %s", v)
		}
		return nil
	default:
		return fmt.Errorf("expected float, got %T", value)
	}
}

type boolType struct{}

func (boolType) Name() string { return "bool" }

func (boolType) Validate(value any) error {
	if _, ok := value.(bool); !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

type anyType struct{}

func (anyType) Name() string { return "any" }

func (anyType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected a value, got nil")
	}
	return nil
}

type mapType struct{}

func (mapType) Name() string { return "map" }

func (mapType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected map, got nil")
	}
	if reflect.ValueOf(value).Kind() != reflect.Map {
		return fmt.Errorf("expected map, got %T", value)
	}
	return nil
}

type sliceType struct {
	elem Type
}

func (t sliceType) Name() string { return "[" + t.elem.Name() + "]" }

func (t sliceType) Validate(value any) error {
	if value == nil {
		return fmt.Errorf("expected slice, got nil")
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return fmt.Errorf("expected slice, got %T", value)
	}
	for i := 0; i < rv.Len(); i++ {
		if err := t.elem.Validate(rv.Index(i).Interface()); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

type customType struct {
	name     string
	validate func(any) error
}

func (t customType) Name() string { return t.name }

func (t customType) Validate(value any) error { return t.validate(value) }

type optionalType struct {
	inner Type
}

func (t optionalType) Name() string { return t.inner.Name() + "?" }

func (t optionalType) Validate(value any) error {
	if value == nil {
		return nil
	}
	return t.inner.Validate(value)
}

// String accepts strings.
func String() Type { return stringType{} }

// Int accepts integers, whole floats and integral json.Number values.
func Int() Type { return intType{} }

// Float accepts any numeric value.
func Float() Type { return floatType{} }

// Bool accepts booleans.
func Bool() Type { return boolType{} }

// Any accepts every non-nil value.
func Any() Type { return anyType{} }

// Map accepts any map.
func Map() Type { return mapType{} }

// Slice accepts slices whose elements all match elem.
func Slice(elem Type) Type { return sliceType{elem: elem} }

// Custom wraps a user-defined validation function.
func Custom(name string, validate func(any) error) Type {
	return customType{name: name, validate: validate}
}

// Optional accepts nil (or a missing field) in addition to inner.
func Optional(inner Type) Type {
	if IsOptional(inner) {
		return inner
	}
	return optionalType{inner: inner}
}

// IsOptional reports whether t was built with Optional.
func IsOptional(t Type) bool {
	_, ok := t.(optionalType)
	return ok
}

// ParseType converts a type string ("int", "[string]", "map?") to a Type.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "?") {
		inner, err := ParseType(strings.TrimSuffix(s, "?"))
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}
	if len(s) > 2 && s[0] == '[' && s[len(s)-1] == ']' {
		elem, err := ParseType(s[1 : len(s)-1])
		if err != nil {
			return nil, err
		}
		return Slice(elem), nil
	}
	switch s {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "any":
		return Any(), nil
	case "map":
		return Map(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %q", s)
	}
}

// ParseTypeMap converts field names mapped to type strings into a Schema.
func ParseTypeMap(typeMap map[string]string) (Schema, error) {
	result := make(Schema, len(typeMap))
	for key, typeStr := range typeMap {
		t, err := ParseType(typeStr)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		result[key] = t
	}
	return result, nil
}
