package commands

import (
	"fmt"
	"reflect"

	"github.com/aretw0/scriptor/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

var durationType = reflect.TypeOf(domain.Duration(0))

// decodeParams decodes an action's params into out.
// Unknown keys are rejected so typos surface as errors.
func decodeParams(action *domain.Action, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: func(_ reflect.Type, to reflect.Type, data any) (any, error) {
			if to != durationType {
				return data, nil
			}
			return domain.ParseDuration(data)
		},
		ErrorUnused:      true,
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(action.Params); err != nil {
		return fmt.Errorf("action %d (%s): invalid params: %w", action.ID, action.Command, err)
	}
	return nil
}
