package labeling

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/kass/go-geo-label/pkg/models"
)

// EncodeMapping renders m as an indented JSON object ordered by numeric id.
// Non-ASCII labels are written verbatim.
func EncodeMapping(m models.LabelMapping) ([]byte, error) {
	var buf bytes.Buffer
	if len(m) == 0 {
		buf.WriteString("{}\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("{\n")
	keys := m.Keys()
	for i, k := range keys {
		key, err := marshalString(k)
		if err != nil {
			return nil, err
		}
		value, err := marshalString(m[k])
		if err != nil {
			return nil, err
		}
		buf.WriteString("    ")
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteMapping persists m to path
func WriteMapping(path string, m models.LabelMapping) error {
	data, err := EncodeMapping(m)
	if err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write mapping %s: %w", path, err)
	}
	return nil
}

// ReadMapping loads a mapping written by WriteMapping
func ReadMapping(path string) (models.LabelMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping %s: %w", path, err)
	}
	var m models.LabelMapping
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode mapping %s: %w", path, err)
	}
	if m == nil {
		m = models.LabelMapping{}
	}
	return m, nil
}
