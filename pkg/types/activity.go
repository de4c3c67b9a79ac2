package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Activity is a time-tracked interval. It references one or more subjects, a
// location and optionally a tracker issue.
type Activity struct {
	ID         string        `json:"id"`
	SubjectIDs []string      `json:"subject_ids"`
	LocationID string        `json:"location_id"`
	IssueID    string        `json:"issue_id,omitempty"`
	Start      string        `json:"start"`
	End        *string       `json:"end"`
	Data       *ActivityData `json:"data,omitempty"`
	Extra      Extra         `json:"-"`
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	type plain Activity
	return unmarshalWithExtra(data, (*plain)(a), &a.Extra)
}

func (a Activity) MarshalJSON() ([]byte, error) {
	type plain Activity
	if a.SubjectIDs == nil {
		a.SubjectIDs = []string{}
	}
	return marshalWithExtra(plain(a), a.Extra)
}

// DataKind tags the shape of an activity's free-form data.
type DataKind int

const (
	// DataComment is {"comment": "..."}.
	DataComment DataKind = iota + 1
	// DataOriginal is {"original_data": ...}, a legacy value kept verbatim.
	DataOriginal
	// DataStructured is any other JSON object.
	DataStructured
)

func (k DataKind) String() string {
	switch k {
	case DataComment:
		return "comment"
	case DataOriginal:
		return "original_data"
	case DataStructured:
		return "structured"
	default:
		return fmt.Sprintf("DataKind(%d)", int(k))
	}
}

// ActivityData is the tagged union behind an activity's data member. Exactly
// the field matching Kind is meaningful. A missing or null data member is
// represented by a nil *ActivityData.
type ActivityData struct {
	Kind     DataKind
	Comment  string
	Original json.RawMessage
	Fields   map[string]json.RawMessage
}

// CommentData returns comment data.
func CommentData(comment string) *ActivityData {
	return &ActivityData{Kind: DataComment, Comment: comment}
}

// OriginalData returns data wrapping a legacy value.
func OriginalData(raw json.RawMessage) *ActivityData {
	return &ActivityData{Kind: DataOriginal, Original: raw}
}

// StructuredData returns data holding an arbitrary object.
func StructuredData(fields map[string]json.RawMessage) *ActivityData {
	return &ActivityData{Kind: DataStructured, Fields: fields}
}

// UnmarshalJSON accepts only JSON objects. Current-schema data is always an
// object; strings and scalars are legacy shapes that the upgrader converts.
func (d *ActivityData) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: %s", ErrInvalidActivityData, truncate(trimmed, 64))
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidActivityData, err)
	}
	*d = *ClassifyObject(fields)
	return nil
}

// ClassifyObject picks the union case for a decoded JSON object. An object
// whose only member is a string "comment" is a comment, one whose only member
// is "original_data" is legacy data, anything else is structured.
func ClassifyObject(fields map[string]json.RawMessage) *ActivityData {
	if len(fields) == 1 {
		if raw, ok := fields["comment"]; ok {
			var comment string
			if json.Unmarshal(raw, &comment) == nil {
				return CommentData(comment)
			}
		}
		if raw, ok := fields["original_data"]; ok {
			return OriginalData(raw)
		}
	}
	return StructuredData(fields)
}

func (d ActivityData) MarshalJSON() ([]byte, error) {
	switch d.Kind {
	case DataComment:
		return json.Marshal(map[string]string{"comment": d.Comment})
	case DataOriginal:
		raw := d.Original
		if raw == nil {
			raw = json.RawMessage("null")
		}
		return json.Marshal(map[string]json.RawMessage{"original_data": raw})
	case DataStructured:
		if d.Fields == nil {
			return []byte("{}"), nil
		}
		return json.Marshal(d.Fields)
	default:
		return nil, fmt.Errorf("%w: unknown kind %v", ErrInvalidActivityData, d.Kind)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
