package query

import (
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Project shapes records down to the requested JSON keys. With no explicit
// projection the records are returned untouched.
func Project[T any](records []T, fields []string) ([]any, error) {
	out := make([]any, 0, len(records))
	if fields == nil {
		for _, r := range records {
			out = append(out, r)
		}
		return out, nil
	}

	for _, r := range records {
		raw, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		full := map[string]any{}
		if err := json.Unmarshal(raw, &full); err != nil {
			return nil, err
		}
		shaped := make(map[string]any, len(fields))
		for _, f := range fields {
			if v, ok := full[f]; ok {
				shaped[f] = v
			}
		}
		out = append(out, shaped)
	}
	return out, nil
}
