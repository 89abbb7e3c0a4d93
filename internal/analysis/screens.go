package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/inv-mschultz/edgy-sub001/internal/ir"
)

// screenDocument is the wrapped input form: {"screens": [...]}.
type screenDocument struct {
	Screens []ir.Screen `json:"screens"`
}

// DecodeScreens reads screens from JSON. Both a bare array and an object
// with a "screens" array are accepted.
func DecodeScreens(r io.Reader) ([]ir.Screen, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read screens: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	if data[0] == '[' {
		var screens []ir.Screen
		if err := json.Unmarshal(data, &screens); err != nil {
			return nil, fmt.Errorf("decode screens: %w", err)
		}
		return screens, nil
	}

	var doc screenDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode screens: %w", err)
	}
	return doc.Screens, nil
}

// LoadScreens reads a screens file.
func LoadScreens(path string) ([]ir.Screen, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	screens, err := DecodeScreens(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return screens, nil
}
