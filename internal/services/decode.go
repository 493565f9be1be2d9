package services

import (
	"natours/internal/domain"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// applyBody decodes a key-presence body onto dst. Keys absent from body leave
// dst untouched, which is what makes partial updates work.
func applyBody(body map[string]any, dst any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return domain.ValidationError{Msg: "Invalid input data.", Err: err}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return domain.ValidationError{Msg: "Invalid input data.", Err: err}
	}
	return nil
}

func has(body map[string]any, keys ...string) bool {
	for _, k := range keys {
		if _, ok := body[k]; ok {
			return true
		}
	}
	return false
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if id > 0 && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
