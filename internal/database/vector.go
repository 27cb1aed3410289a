package database

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVector resolves a scanned embedding column value into a float64
// slice. Depending on the driver and column type the value arrives
// either as the pgvector text literal "[1.0,2.0,3.0]" (string or
// []byte) or as a native numeric array. A nil value parses to nil.
func ParseVector(value any) ([]float64, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return parseVectorText(v)
	case []byte:
		return parseVectorText(string(v))
	case []float64:
		cp := make([]float64, len(v))
		copy(cp, v)
		return cp, nil
	case []float32:
		floats := make([]float64, len(v))
		for i, f := range v {
			floats[i] = float64(f)
		}
		return floats, nil
	case []any:
		floats := make([]float64, len(v))
		for i, elem := range v {
			f, ok := elem.(float64)
			if !ok {
				return nil, fmt.Errorf("parse element %d: %T is not a number", i, elem)
			}
			floats[i] = f
		}
		return floats, nil
	default:
		return nil, fmt.Errorf("cannot parse %T as a vector", value)
	}
}

func parseVectorText(raw string) ([]float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return []float64{}, nil
	}
	if !strings.HasPrefix(raw, "[") || !strings.HasSuffix(raw, "]") {
		return nil, fmt.Errorf("vector literal must be bracketed, got %q", truncateSQL(raw))
	}

	parts := strings.Split(raw[1:len(raw)-1], ",")
	floats := make([]float64, len(parts))
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse element %d: %w", i, err)
		}
		floats[i] = f
	}
	return floats, nil
}

// FormatVector serializes a float64 slice to the pgvector text literal
// "[1.0,2.0,3.0]", which both PostgreSQL and the SQLite test schema
// accept as the embedding column value.
func FormatVector(floats []float64) string {
	// ~12 bytes per element plus brackets.
	var b strings.Builder
	b.Grow(len(floats)*12 + 2)
	b.WriteByte('[')
	for i, f := range floats {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}
