package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Payload is a decoded webhook event payload. Values are the generic JSON
// shapes produced by encoding/json: nil, bool, float64, string, []any and
// map[string]any.
type Payload map[string]any

// PathSeparator joins the segments of a dotted path expression.
const PathSeparator = "->"

// ContextRoot is the reserved first path segment that redirects a lookup to
// the dispatch context instead of the payload.
const ContextRoot = "context"

func ParsePayload(data []byte) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, goerr.Wrap(err, "failed to decode event payload")
	}
	return payload, nil
}

// Lookup resolves a path expression like "a->b->c" against the payload.
// Array elements are addressed by their numeric index. The second return
// value is false when any segment is absent; a present-but-null value
// returns (nil, true).
func (x Payload) Lookup(path string) (any, bool) {
	return LookupPath(map[string]any(x), path)
}

// LookupWith resolves a path, redirecting to ctxData when the first segment
// is the reserved context root.
func (x Payload) LookupWith(ctxData Payload, path string) (any, bool) {
	if first, rest, found := strings.Cut(path, PathSeparator); first == ContextRoot {
		if !found {
			return map[string]any(ctxData), true
		}
		return LookupPath(map[string]any(ctxData), rest)
	}
	return x.Lookup(path)
}

func LookupPath(data any, path string) (any, bool) {
	current := data
	for _, seg := range strings.Split(path, PathSeparator) {
		switch v := current.(type) {
		case map[string]any:
			next, ok := v[seg]
			if !ok {
				return nil, false
			}
			current = next

		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(v) {
				return nil, false
			}
			current = v[idx]

		default:
			return nil, false
		}
	}

	return current, true
}

// RenderValue converts a resolved payload value to its template string
// form: booleans render as "true"/"false" and null renders as the literal
// string "null".
func RenderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return val
	case float64:
		// JSON numbers decode to float64; render integers without a
		// fraction part.
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", val)
	}
}
