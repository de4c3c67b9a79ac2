package types

import "encoding/json"

// Location is a place activities happen at.
type Location struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
	Extra       Extra           `json:"-"`
}

func (l *Location) UnmarshalJSON(data []byte) error {
	type plain Location
	return unmarshalWithExtra(data, (*plain)(l), &l.Extra)
}

func (l Location) MarshalJSON() ([]byte, error) {
	type plain Location
	return marshalWithExtra(plain(l), l.Extra)
}
