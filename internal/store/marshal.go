package store

import (
	"encoding/json"
	"fmt"
)

// marshalSummary converts a Summary to JSON TEXT for storage.
// Struct field order keeps the encoding stable.
func marshalSummary(s Summary) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	return string(data), nil
}

// unmarshalSummary parses stored JSON TEXT. Empty text is a zero Summary.
func unmarshalSummary(text string) (Summary, error) {
	var s Summary
	if text == "" {
		return s, nil
	}
	if err := json.Unmarshal([]byte(text), &s); err != nil {
		return Summary{}, fmt.Errorf("unmarshal summary: %w", err)
	}
	return s, nil
}
