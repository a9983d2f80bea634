package loam

import (
	"fmt"
	"reflect"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// ScriptMetadata is the shape of a script document's metadata (frontmatter
// or the top-level keys of a JSON/YAML file). Actions and procedures stay
// untyped here because targets and durations are polymorphic; decodeScript
// converts them.
type ScriptMetadata struct {
	Name             string         `json:"name" mapstructure:"name"`
	Description      string         `json:"description" mapstructure:"description"`
	Actions          []any          `json:"actions" mapstructure:"actions"`
	Procedures       map[string]any `json:"procedures" mapstructure:"procedures"`
	Finally          string         `json:"finally" mapstructure:"finally"`
	MaxExecutionTime any            `json:"max_execution_time" mapstructure:"max_execution_time"`
}

var (
	targetType   = reflect.TypeOf(domain.Target{})
	durationType = reflect.TypeOf(domain.Duration(0))
)

// scriptDecodeHook turns raw document values into domain.Target and
// domain.Duration.
func scriptDecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		func(_ reflect.Type, to reflect.Type, data any) (any, error) {
			if to != targetType {
				return data, nil
			}
			return domain.ParseTarget(data)
		},
		func(_ reflect.Type, to reflect.Type, data any) (any, error) {
			if to != durationType {
				return data, nil
			}
			return domain.ParseDuration(data)
		},
	)
}

// decodeScript builds a domain.Script from document metadata.
// content becomes the description when the metadata has none.
func decodeScript(name string, meta ScriptMetadata, content string) (*domain.Script, error) {
	raw := map[string]any{
		"name":               name,
		"description":        meta.Description,
		"actions":            meta.Actions,
		"procedures":         meta.Procedures,
		"finally":            meta.Finally,
		"max_execution_time": meta.MaxExecutionTime,
	}

	var script domain.Script
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:  scriptDecodeHook(),
		Result:      &script,
		ErrorUnused: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode script %s: %w", name, err)
	}

	if script.Description == "" {
		script.Description = content
	}
	return &script, nil
}
