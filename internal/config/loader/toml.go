package loader

import "github.com/pelletier/go-toml/v2"

func decodeTOML(data []byte) (map[string]any, error) {
	var values map[string]any
	if err := toml.Unmarshal(data, &values); err != nil {
		return nil, err
	}
	return values, nil
}
