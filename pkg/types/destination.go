package types

import (
	"context"
	"encoding/json"
)

// IDData is the identifier material a destination hands out per session.
// Offset is the UUID text of the last allocated id value; new ids are encoded
// from the values after it. Token authorizes ids derived from the offset.
type IDData struct {
	Offset string `json:"id_offset"`
	Token  string `json:"id_token"`
}

// Destination is the system an import writes into. Calls are made strictly
// one at a time.
type Destination interface {
	// IDData returns the current id offset and token.
	IDData(ctx context.Context) (IDData, error)

	// Create submits payload as a new entity and returns the id the
	// destination assigned.
	Create(ctx context.Context, entity EntityType, payload map[string]any) (string, error)

	// Exists reports whether an entity with the given id is visible to the
	// user.
	Exists(ctx context.Context, entity EntityType, id string) (bool, error)

	// ClearAllPrivateData deletes every entity the user owns privately.
	ClearAllPrivateData(ctx context.Context) error
}

// Source is the system an export reads from.
type Source interface {
	// Fetch returns every record of the given entity type.
	Fetch(ctx context.Context, entity EntityType) ([]json.RawMessage, error)
}
