package store

import (
	"encoding/json"
	"fmt"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// marshalComponents converts component suggestions to canonical JSON TEXT.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalComponents(components []ir.SuggestedComponent) (string, error) {
	if components == nil {
		components = []ir.SuggestedComponent{}
	}
	data, err := ir.MarshalCanonical(components)
	if err != nil {
		return "", fmt.Errorf("marshal components: %w", err)
	}
	return string(data), nil
}

// unmarshalComponents parses canonical JSON TEXT back to suggestions.
// Returns an empty slice (not nil) for an empty array.
func unmarshalComponents(data string) ([]ir.SuggestedComponent, error) {
	out := []ir.SuggestedComponent{}
	if data == "" || data == "[]" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, fmt.Errorf("unmarshal components: %w", err)
	}
	return out, nil
}
