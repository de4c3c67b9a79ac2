package types

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Extra holds the JSON members of a record that have no struct field. It is
// carried through decode and encode so that fields this tool does not know
// about survive an upgrade or an export unchanged.
type Extra map[string]json.RawMessage

// Get decodes the member key into v. It reports false if the member is absent.
func (e Extra) Get(key string, v any) (bool, error) {
	raw, ok := e[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, v)
}

// unmarshalWithExtra decodes data into v (a pointer to a struct with json
// tags) and stores every member that v does not declare in extra.
func unmarshalWithExtra(data []byte, v any, extra *Extra) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, name := range jsonFieldNames(reflect.TypeOf(v).Elem()) {
		delete(all, name)
	}
	if len(all) == 0 {
		*extra = nil
		return nil
	}
	*extra = all
	return nil
}

// marshalWithExtra encodes v and merges the extra members into the resulting
// object. Declared fields win over extra members with the same name.
func marshalWithExtra(v any, extra Extra) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := all[k]; !ok {
			all[k] = raw
		}
	}
	return json.Marshal(all)
}

// jsonFieldNames returns the JSON member names declared by a struct type.
func jsonFieldNames(t reflect.Type) []string {
	names := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, _, _ := strings.Cut(tag, ",")
		if name == "" {
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}
