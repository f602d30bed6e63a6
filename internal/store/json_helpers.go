package store

import (
	"encoding/json"
	"fmt"

	"taskforge/internal/domain"
)

func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: marshaling json: %v", domain.ErrPersistence, err)
	}
	return string(b), nil
}

func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("%w: unmarshaling json: %v", domain.ErrPersistence, err)
	}
	return nil
}
