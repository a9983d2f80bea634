// Package checkers provides the builtin predicates scripts route on.
package checkers

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/registry"
	"github.com/aretw0/scriptor/pkg/schema"
)

// Register installs the builtin checkers into reg.
func Register(reg *registry.Checkers) {
	reg.Register("success", Func(nil, func(o domain.Outcome, _ map[string]any) (bool, error) {
		return o.Success, nil
	}))
	reg.Register("failure", Func(nil, func(o domain.Outcome, _ map[string]any) (bool, error) {
		return !o.Success, nil
	}))
	reg.Register("always", Func(nil, func(domain.Outcome, map[string]any) (bool, error) {
		return true, nil
	}))
	reg.Register("never", Func(nil, func(domain.Outcome, map[string]any) (bool, error) {
		return false, nil
	}))
	reg.Register("equals", Equals)
	reg.Register("retry-below", RetryBelow)
	reg.Register("variable-set", VariableSet)
	reg.Register("buffer-contains", BufferContains)
	reg.Register("message-contains", MessageContains)
}

// Func builds a checker from a predicate and its declared inputs.
func Func(inputs []ports.InputSpec, fn func(domain.Outcome, map[string]any) (bool, error)) ports.Checker {
	return funcChecker{inputs: inputs, fn: fn}
}

type funcChecker struct {
	inputs []ports.InputSpec
	fn     func(domain.Outcome, map[string]any) (bool, error)
}

func (c funcChecker) Inputs() []ports.InputSpec { return c.inputs }

func (c funcChecker) Check(_ context.Context, o domain.Outcome, in map[string]any) (bool, error) {
	return c.fn(o, in)
}

// Equals compares left and right. Numbers compare by value regardless of
// their Go type; other values compare deeply.
var Equals = Func([]ports.InputSpec{
	{Name: "left", Type: schema.Any()},
	{Name: "right", Type: schema.Optional(schema.Any())},
}, func(_ domain.Outcome, in map[string]any) (bool, error) {
	return equal(in["left"], in["right"]), nil
})

// RetryBelow is true while the action has been retried fewer than limit times.
var RetryBelow = Func([]ports.InputSpec{
	{Name: "retry", Type: schema.Int(), Default: "$retry"},
	{Name: "limit", Type: schema.Int()},
}, func(_ domain.Outcome, in map[string]any) (bool, error) {
	retry, err := toInt(in["retry"])
	if err != nil {
		return false, err
	}
	limit, err := toInt(in["limit"])
	if err != nil {
		return false, err
	}
	return retry < limit, nil
})

// VariableSet is true when value resolved, typically from "$variables.<name>".
var VariableSet = Func([]ports.InputSpec{
	{Name: "value", Type: schema.Optional(schema.Any())},
}, func(_ domain.Outcome, in map[string]any) (bool, error) {
	v, ok := in["value"]
	return ok && v != nil, nil
})

// BufferContains is true when the buffer contains text.
var BufferContains = Func([]ports.InputSpec{
	{Name: "buffer", Type: schema.String(), Default: "$buffer"},
	{Name: "text", Type: schema.String()},
}, func(_ domain.Outcome, in map[string]any) (bool, error) {
	return strings.Contains(in["buffer"].(string), in["text"].(string)), nil
})

// MessageContains is true when the outcome message contains text.
var MessageContains = Func([]ports.InputSpec{
	{Name: "text", Type: schema.String()},
}, func(o domain.Outcome, in map[string]any) (bool, error) {
	return strings.Contains(o.Message, in["text"].(string)), nil
})

func equal(a, b any) bool {
	fa, aNum := toFloat(a)
	fb, bNum := toFloat(b)
	if aNum && bNum {
		return fa == fb
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt(v any) (int, error) {
	f, ok := toFloat(v)
	if !ok {
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	return int(f), nil
}
