package upgrade

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// idString renders an id the way the current schema stores it. Numbers keep
// their exact decimal text.
func idString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}

// truthy reads a flag the first format stored as a bool, a number or a
// string. Missing and null are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case json.Number:
		f, _ := x.Float64()
		return f != 0
	case float64:
		return x != 0
	case string:
		return x != "" && x != "0" && x != "false"
	default:
		return false
	}
}

func setID(m map[string]any, key string) {
	if v, ok := m[key]; ok && v != nil {
		m[key] = idString(v)
	}
}

func setIDList(m map[string]any, key string) {
	list, ok := m[key].([]any)
	if !ok {
		return
	}
	out := make([]any, len(list))
	for i, v := range list {
		out[i] = idString(v)
	}
	m[key] = out
}

// objects returns the object elements of a JSON array value.
func objects(v any) []map[string]any {
	list, _ := v.([]any)
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func records(data map[string]any, collection string) []map[string]any {
	return objects(data[collection])
}

func appendRecord(data map[string]any, collection string, record map[string]any) {
	list, _ := data[collection].([]any)
	data[collection] = append(list, record)
}

// clone deep-copies a decoded JSON value.
func clone(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, e := range x {
			out[k] = clone(e)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, e := range x {
			out[i] = clone(e)
		}
		return out
	default:
		return v
	}
}
