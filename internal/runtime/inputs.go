package runtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/aretw0/scriptor/pkg/ports"
	"github.com/aretw0/scriptor/pkg/schema"
	"github.com/tidwall/gjson"
)

const (
	// pathPrefix marks an input value as a path into the state view.
	pathPrefix = "$"
	// escapedPrefix produces a literal string starting with "$".
	escapedPrefix = "$$"
)

// stateView lazily serializes the execution state for path lookups.
// One view is built per conditional entry so every input of a checker sees
// the same snapshot.
type stateView struct {
	state *domain.ExecutionState
	raw   []byte
	err   error
	built bool
}

func (v *stateView) get(path string) (any, bool, error) {
	if !v.built {
		v.built = true
		v.raw, v.err = json.Marshal(v.state.View())
	}
	if v.err != nil {
		return nil, false, fmt.Errorf("state is not serializable: %w", v.err)
	}
	res := gjson.GetBytes(v.raw, path)
	if !res.Exists() {
		return nil, false, nil
	}
	return res.Value(), true, nil
}

// resolveInputs computes the values declared by a checker for one conditional.
// Precedence: the conditional's own input, then a state variable of the same
// name, then the declared default.
func resolveInputs(checker ports.Checker, cond domain.Conditional, state *domain.ExecutionState) (map[string]any, error) {
	specs := checker.Inputs()
	if len(specs) == 0 {
		return map[string]any{}, nil
	}

	view := &stateView{state: state}
	out := make(map[string]any, len(specs))
	for _, spec := range specs {
		value, ok, err := lookupInput(spec, cond, state, view)
		if err != nil {
			return nil, err
		}
		if err := schema.ValidateValue(spec.Name, spec.Type, value, ok); err != nil {
			return nil, err
		}
		if ok {
			out[spec.Name] = value
		}
	}
	return out, nil
}

func lookupInput(spec ports.InputSpec, cond domain.Conditional, state *domain.ExecutionState, view *stateView) (any, bool, error) {
	if raw, ok := cond.Inputs[spec.Name]; ok {
		return resolveValue(raw, view)
	}
	if v, ok := state.Variables[spec.Name]; ok {
		return v, true, nil
	}
	if spec.Default != nil {
		return resolveValue(spec.Default, view)
	}
	return nil, false, nil
}

func resolveValue(raw any, view *stateView) (any, bool, error) {
	s, ok := raw.(string)
	if !ok || !strings.HasPrefix(s, pathPrefix) {
		return raw, true, nil
	}
	if strings.HasPrefix(s, escapedPrefix) {
		return s[1:], true, nil
	}
	return view.get(s[len(pathPrefix):])
}

func unescape(raw any) any {
	if s, ok := raw.(string); ok && strings.HasPrefix(s, escapedPrefix) {
		return s[1:]
	}
	return raw
}
