package loader

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

func decodeYAML(data []byte) (map[string]any, error) {
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return normalizeYAML(values).(map[string]any), nil
}

// normalizeYAML converts map[any]any nodes, which yaml produces for
// non-string keys, into map[string]any.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = normalizeYAML(val)
		}
		return t
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = normalizeYAML(val)
		}
		return m
	case []any:
		for i, val := range t {
			t[i] = normalizeYAML(val)
		}
		return t
	case nil:
		return map[string]any{}
	default:
		return t
	}
}
