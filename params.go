package lumen

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Params is a typed parameter record for one recipe. Constructors return a
// record pre-filled with its defaults; Validate runs after every layer has
// been merged in.
type Params interface {
	Validate() error
}

// resolveParams builds the merged parameter map (record defaults ⊕ layers)
// and decodes it back into a fresh record. With a nil constructor the merged
// map is returned alone.
func resolveParams(newParams func() Params, layers ...map[string]any) (Params, map[string]any, error) {
	if newParams == nil {
		return nil, MergeParams(layers...), nil
	}
	p := newParams()
	base, err := paramsToMap(p)
	if err != nil {
		return nil, nil, err
	}
	merged := MergeParams(append([]map[string]any{base}, layers...)...)
	data, err := yaml.Marshal(merged)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal params: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	if err := p.Validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return p, merged, nil
}

func paramsToMap(p Params) (map[string]any, error) {
	data, err := yaml.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal param defaults: %w", err)
	}
	m := map[string]any{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal param defaults: %w", err)
	}
	return m, nil
}

// signature is a key-order-independent serialization of a merged config plus
// the css-only flag. It is an equality check that avoids needless overlay
// rebuilds, not a hash with any security property.
func signature(config map[string]any, cssOnly bool) string {
	// yaml.v3 emits mapping keys in sorted order at every depth.
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Sprintf("!%v|cssOnly=%t", err, cssOnly)
	}
	return fmt.Sprintf("%s|cssOnly=%t", data, cssOnly)
}
