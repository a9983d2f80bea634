package schema

import "sort"

// Schema maps field names to their expected types.
type Schema map[string]Type

// Validate checks data against the schema and reports every failure at once,
// ordered by field name. Fields not named by the schema are ignored.
func Validate(schema Schema, data map[string]any) error {
	if len(schema) == 0 {
		return nil
	}

	keys := make([]string, 0, len(schema))
	for key := range schema {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var errs []error
	for _, key := range keys {
		value, exists := data[key]
		if err := ValidateValue(key, schema[key], value, exists); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return &AggregateError{Errors: errs}
	}
	return nil
}

// ValidateValue checks a single named value. exists is false when the value
// was not supplied at all; only optional types accept that.
func ValidateValue(key string, typ Type, value any, exists bool) error {
	if typ == nil {
		return nil
	}
	if !exists {
		if IsOptional(typ) {
			return nil
		}
		return &ValidationError{Key: key, Reason: "required"}
	}
	if err := typ.Validate(value); err != nil {
		return &ValidationError{Key: key, Reason: err.Error(), Value: value}
	}
	return nil
}
