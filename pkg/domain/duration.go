package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Duration is a time.Duration that decodes from either a Go duration string
// ("30s") or a number of milliseconds.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// ParseDuration converts a decoded document value into a Duration.
func ParseDuration(v any) (Duration, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case Duration:
		return val, nil
	case time.Duration:
		return Duration(val), nil
	case string:
		if val == "" {
			return 0, nil
		}
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q: %w", val, err)
		}
		return Duration(parsed), nil
	case json.Number:
		ms, err := val.Float64()
		if err != nil {
			return 0, fmt.Errorf("invalid duration %s: %w", val, err)
		}
		return millis(ms), nil
	case int:
		return millis(float64(val)), nil
	case int64:
		return millis(float64(val)), nil
	case uint64:
		return millis(float64(val)), nil
	case float64:
		return millis(val), nil
	default:
		return 0, fmt.Errorf("unsupported duration type %T", v)
	}
}

func millis(ms float64) Duration {
	return Duration(time.Duration(ms * float64(time.Millisecond)))
}

// MarshalJSON encodes the duration as a Go duration string.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts a duration string or milliseconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalYAML encodes the duration as a Go duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// UnmarshalYAML accepts a duration string or milliseconds.
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseDuration(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
