package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

type targetKind uint8

const (
	targetNone targetKind = iota
	targetAction
	targetProcedure
)

// Target is a routing destination: an action id resolved against the current
// scope, or the name of a procedure to invoke.
// The zero value means "no target".
type Target struct {
	kind      targetKind
	actionID  int
	procedure string
}

// ActionTarget returns a target pointing at action id in the current scope.
func ActionTarget(id int) Target {
	return Target{kind: targetAction, actionID: id}
}

// ProcedureTarget returns a target invoking the named procedure.
func ProcedureTarget(name string) Target {
	return Target{kind: targetProcedure, procedure: name}
}

// IsZero reports whether the target is empty.
func (t Target) IsZero() bool { return t.kind == targetNone }

// IsAction reports whether the target is an action id.
func (t Target) IsAction() bool { return t.kind == targetAction }

// IsProcedure reports whether the target is a procedure name.
func (t Target) IsProcedure() bool { return t.kind == targetProcedure }

// ActionID returns the action id of an action target.
func (t Target) ActionID() int { return t.actionID }

// Procedure returns the procedure name of a procedure target.
func (t Target) Procedure() string { return t.procedure }

func (t Target) String() string {
	switch t.kind {
	case targetAction:
		return strconv.Itoa(t.actionID)
	case targetProcedure:
		return strconv.Quote(t.procedure)
	default:
		return "<none>"
	}
}

// ParseTarget converts a decoded document value into a Target.
// Integers (and whole floats, as produced by JSON decoders) become action
// targets, strings become procedure targets.
func ParseTarget(v any) (Target, error) {
	switch val := v.(type) {
	case nil:
		return Target{}, nil
	case Target:
		return val, nil
	case int:
		return ActionTarget(val), nil
	case int8:
		return ActionTarget(int(val)), nil
	case int16:
		return ActionTarget(int(val)), nil
	case int32:
		return ActionTarget(int(val)), nil
	case int64:
		return ActionTarget(int(val)), nil
	case uint:
		return ActionTarget(int(val)), nil
	case uint8:
		return ActionTarget(int(val)), nil
	case uint16:
		return ActionTarget(int(val)), nil
	case uint32:
		return ActionTarget(int(val)), nil
	case uint64:
		return ActionTarget(int(val)), nil
	case float32:
		return floatTarget(float64(val))
	case float64:
		return floatTarget(val)
	case json.Number:
		i, err := val.Int64()
		if err != nil {
			return Target{}, fmt.Errorf("target %s is not an integer action id", val)
		}
		return ActionTarget(int(i)), nil
	case string:
		if val == "" {
			return Target{}, fmt.Errorf("procedure target cannot be empty")
		}
		return ProcedureTarget(val), nil
	default:
		return Target{}, fmt.Errorf("unsupported target type %T", v)
	}
}

func floatTarget(f float64) (Target, error) {
	if f != math.Trunc(f) {
		return Target{}, fmt.Errorf("target %v is not an integer action id", f)
	}
	return ActionTarget(int(f)), nil
}

// MarshalJSON encodes action targets as numbers and procedure targets as strings.
func (t Target) MarshalJSON() ([]byte, error) {
	switch t.kind {
	case targetAction:
		return json.Marshal(t.actionID)
	case targetProcedure:
		return json.Marshal(t.procedure)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a number or a string target.
func (t *Target) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := ParseTarget(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalYAML encodes the target the same way as MarshalJSON.
func (t Target) MarshalYAML() (any, error) {
	switch t.kind {
	case targetAction:
		return t.actionID, nil
	case targetProcedure:
		return t.procedure, nil
	default:
		return nil, nil
	}
}

// UnmarshalYAML decodes a number or a string target.
func (t *Target) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	parsed, err := ParseTarget(raw)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
