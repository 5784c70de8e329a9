package parsers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"connkit/pkg/conn"
)

// Rules describes declarative checks over a parsed params mapping. Paths
// are dot-separated and traverse nested maps produced by bracketed form
// keys ("user.name" matches "user[name]=x").
type Rules struct {
	Required []string
	Types    map[string]string // "string", "number", "boolean", "object", "array"
	MaxLen   map[string]int
	Enums    map[string][]string
}

// Validate checks the connection's params against the rules and returns
// one error naming every violation, or nil.
func Validate(c conn.Conn, r Rules) error {
	root := c.Params()
	var errs []string

	for _, p := range r.Required {
		if !existsAt(root, p) {
			errs = append(errs, fmt.Sprintf("required param missing: %s", p))
		}
	}
	for p, t := range r.Types {
		if v, ok := valueAt(root, p); ok {
			if !typeMatches(v, t) {
				errs = append(errs, fmt.Sprintf("type mismatch at %s: expected %s", p, t))
			}
		}
	}
	for p, max := range r.MaxLen {
		if v, ok := valueAt(root, p); ok {
			switch vv := v.(type) {
			case string:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			case []any:
				if len(vv) > max {
					errs = append(errs, fmt.Sprintf("max length exceeded at %s: %d > %d", p, len(vv), max))
				}
			}
		}
	}
	for p, vals := range r.Enums {
		if v, ok := valueAt(root, p); ok {
			if s, isStr := v.(string); isStr && !contains(vals, s) {
				errs = append(errs, fmt.Sprintf("invalid value at %s", p))
			}
		}
	}

	if len(errs) > 0 {
		return &ParseError{Parser: "validate", Err: errors.New(strings.Join(errs, "; "))}
	}
	return nil
}

func existsAt(root map[string]any, path string) bool {
	_, ok := valueAt(root, path)
	return ok
}

func valueAt(root map[string]any, path string) (any, bool) {
	var cur any = root
	for _, s := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[s]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(s)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func typeMatches(v any, t string) bool {
	switch strings.ToLower(t) {
	case "string":
		_, ok := v.(string)
		return ok
	case "number":
		switch v.(type) {
		case int, int32, int64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := v.(bool)
		return ok
	case "object":
		_, ok := v.(map[string]any)
		return ok
	case "array":
		_, ok := v.([]any)
		return ok
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
