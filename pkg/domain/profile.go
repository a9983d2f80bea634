package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Profile is the per-run document a script is executed against, usually an
// account of the automation host. Commands read and write it through dotted
// paths; the engine itself treats it as opaque.
type Profile struct {
	ID        string         `json:"id" yaml:"id"`
	Data      map[string]any `json:"data" yaml:"data"`
	UpdatedAt time.Time      `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

// NewProfile creates an empty profile.
func NewProfile(id string) *Profile {
	return &Profile{ID: id, Data: make(map[string]any)}
}

// Get reads a dotted path ("auth.email.login"). Numeric segments index
// arrays ("subscriptions.0.url").
// A string field holding a JSON object or array is decoded and traversed
// transparently, so documents that embed serialized blobs stay addressable.
func (p *Profile) Get(path string) (any, bool) {
	if path == "" {
		return p.Data, true
	}
	var cur any = p.Data
	for _, key := range strings.Split(path, ".") {
		var ok bool
		cur, ok = child(expandJSON(cur), key)
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set writes a dotted path, creating intermediate objects as needed.
// Numeric segments address existing array elements; an index outside the
// array, or a non-numeric segment on an array, is an ErrInvalidPath and
// leaves the profile unchanged.
// An intermediate string holding JSON is decoded, updated and serialized
// back so its original representation is preserved.
func (p *Profile) Set(path string, value any) error {
	if p.Data == nil {
		p.Data = make(map[string]any)
	}
	keys := strings.Split(path, ".")
	if err := checkPath(p.Data, keys); err != nil {
		return fmt.Errorf("%w %q: %w", ErrInvalidPath, path, err)
	}
	p.Data = setPath(p.Data, keys, value).(map[string]any)
	return nil
}

// checkPath walks keys without writing and reports array segments that
// cannot be addressed.
func checkPath(node any, keys []string) error {
	for _, key := range keys {
		switch n := expandJSON(node).(type) {
		case map[string]any:
			node = n[key]
		case []any:
			i, err := arrayIndex(key, len(n))
			if err != nil {
				return err
			}
			node = n[i]
		default:
			return nil
		}
	}
	return nil
}

func setPath(node any, keys []string, value any) any {
	key := keys[0]
	switch n := node.(type) {
	case map[string]any:
		if len(keys) == 1 {
			n[key] = value
		} else {
			n[key] = setPath(n[key], keys[1:], value)
		}
		return n
	case []any:
		i, _ := arrayIndex(key, len(n))
		if len(keys) == 1 {
			n[i] = value
		} else {
			n[i] = setPath(n[i], keys[1:], value)
		}
		return n
	case string:
		switch decoded := expandJSON(n).(type) {
		case map[string]any, []any:
			if raw, err := json.Marshal(setPath(decoded, keys, value)); err == nil {
				return string(raw)
			}
		}
	}
	return setPath(make(map[string]any), keys, value)
}

func child(node any, key string) (any, bool) {
	switch n := node.(type) {
	case map[string]any:
		v, ok := n[key]
		return v, ok
	case []any:
		i, err := arrayIndex(key, len(n))
		if err != nil {
			return nil, false
		}
		return n[i], true
	default:
		return nil, false
	}
}

func arrayIndex(key string, length int) (int, error) {
	i, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("segment %q is not an array index", key)
	}
	if i < 0 || i >= length {
		return 0, fmt.Errorf("index %d out of range [0,%d)", i, length)
	}
	return i, nil
}

// Delete removes a dotted path. Missing paths are ignored, as are paths
// ending on an array element.
func (p *Profile) Delete(path string) {
	keys := strings.Split(path, ".")
	var cur any = p.Data
	for _, key := range keys[:len(keys)-1] {
		var ok bool
		if cur, ok = child(cur, key); !ok {
			return
		}
	}
	if m, ok := cur.(map[string]any); ok {
		delete(m, keys[len(keys)-1])
	}
}

// Flatten returns the id and the data fields in a single object, with
// JSON-string fields decoded. It is the shape path expressions see.
func (p *Profile) Flatten() map[string]any {
	out := make(map[string]any, len(p.Data)+1)
	for k, v := range p.Data {
		out[k] = expandDeep(v)
	}
	out["id"] = p.ID
	return out
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	return &Profile{
		ID:        p.ID,
		Data:      cloneMap(p.Data),
		UpdatedAt: p.UpdatedAt,
	}
}

func expandJSON(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return v
	}
	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return v
	}
	return decoded
}

func expandDeep(v any) any {
	switch val := expandJSON(v).(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = expandDeep(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = expandDeep(item)
		}
		return out
	default:
		return val
	}
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}
