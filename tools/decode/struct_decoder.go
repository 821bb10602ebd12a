package decode

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// DecodeMap decodes a generic map (e.g. a parsed JSON object) into T,
// honoring `json` tags. Unknown keys are ignored; type mismatches error out.
func DecodeMap[T any](in map[string]any) (*T, error) {
	out := new(T)
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, fmt.Errorf("build decoder: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("decode struct: %w", err)
	}
	return out, nil
}
