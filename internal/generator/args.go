package generator

import (
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
)

// parseCall splits "namespace.path(args)" into the dotted generator path
// and its literal arguments. Arguments are parsed as JSON-ish literals
// (numbers, quoted strings, booleans, arrays, and objects with bare keys);
// they are never evaluated as code.
func parseCall(expr string) (string, []interface{}, error) {
	open := strings.IndexByte(expr, '(')
	if open < 0 {
		return expr, nil, nil
	}
	if !strings.HasSuffix(expr, ")") {
		return "", nil, errors.New("unterminated argument list")
	}

	path := expr[:open]
	raw := strings.TrimSpace(expr[open+1 : len(expr)-1])
	if raw == "" {
		return path, nil, nil
	}

	args, err := parseArgs(raw)
	if err != nil {
		return "", nil, err
	}
	return path, args, nil
}

// bareKeyPattern finds unquoted object keys like `{min: 1}` so the source
// faker-style call syntax can be decoded as JSON.
var bareKeyPattern = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)

func parseArgs(raw string) ([]interface{}, error) {
	// A single array or object literal is one argument.
	if strings.HasPrefix(raw, "[") || strings.HasPrefix(raw, "{") {
		normalized := bareKeyPattern.ReplaceAllString(raw, `$1"$2":`)
		normalized = strings.ReplaceAll(normalized, "'", `"`)
		var value interface{}
		if err := json.Unmarshal([]byte(normalized), &value); err != nil {
			return nil, err
		}
		return []interface{}{value}, nil
	}

	// Otherwise a comma separated scalar list.
	parts := strings.Split(raw, ",")
	args := make([]interface{}, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		args = append(args, parseScalar(part))
	}
	return args, nil
}

func parseScalar(s string) interface{} {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	if s == "true" {
		return true
	}
	if s == "false" {
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// argNumber extracts a numeric argument, either positional or from an
// options object ({min: 1, max: 5}).
func argNumber(args []interface{}, index int, key string, fallback float64) float64 {
	if len(args) == 1 {
		if opts, ok := args[0].(map[string]interface{}); ok {
			if v, ok := opts[key].(float64); ok {
				return v
			}
			return fallback
		}
	}
	if index < len(args) {
		if v, ok := args[index].(float64); ok {
			return v
		}
	}
	return fallback
}
