package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatementList is an ordered list of strength or missing-point statements.
// The backend sends it either as a JSON array or as one newline-separated string.
type StatementList []string

// NormalizeStatements turns either accepted shape into trimmed, non-empty lines.
// Any value other than a string or a slice of strings yields nil.
func NormalizeStatements(raw interface{}) StatementList {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return normalizeLines(strings.Split(strings.ReplaceAll(v, "\r\n", "\n"), "\n"))
	case []string:
		return normalizeLines(v)
	case StatementList:
		return normalizeLines(v)
	case []interface{}:
		lines := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			if s, ok := item.(string); ok {
				lines = append(lines, s)
				continue
			}
			lines = append(lines, fmt.Sprint(item))
		}
		return normalizeLines(lines)
	default:
		return nil
	}
}

func normalizeLines(lines []string) StatementList {
	out := make(StatementList, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (l *StatementList) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("statement list: %w", err)
	}
	*l = NormalizeStatements(raw)
	return nil
}

func (l StatementList) Empty() bool {
	return len(l) == 0
}
