package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// parseParams turns key=value arguments into command parameters. A value
// that is valid JSON is decoded; anything else is kept as a string.
func parseParams(args []string) (map[string]any, error) {
	params := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("parameter %q: want key=value", arg)
		}
		if _, dup := params[key]; dup {
			return nil, fmt.Errorf("parameter %q given twice", key)
		}
		params[key] = parseValue(raw)
	}
	return params, nil
}

func parseValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
