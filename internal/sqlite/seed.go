package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// seedRecord is one entity copied from an export into the sandbox.
type seedRecord struct {
	entity types.EntityType
	id     string
	owner  string
	record any
}

// Seed copies the parts of export that the user cannot create (the account,
// organizations and organization subjects) into the sandbox. Seeding is
// idempotent: records that are already present are replaced.
func (b *Backend) Seed(ctx context.Context, export *types.Export) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return 0, err
	}

	var records []seedRecord
	for _, u := range export.Data.Users {
		records = append(records, seedRecord{types.EntityUser, u.ID, ownerAccount, u})
	}
	for _, o := range export.Data.Organizations {
		records = append(records, seedRecord{types.EntityOrganization, o.ID, ownerOrganization, o})
	}
	for _, s := range export.Data.Subjects {
		if !s.IsPrivate() {
			records = append(records, seedRecord{types.EntitySubject, s.ID, ownerOrganization, s})
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, r := range records {
		data, err := json.Marshal(r.record)
		if err != nil {
			return 0, fmt.Errorf("encoding %s %s: %w", r.entity, r.id, err)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO entities (entity_type, entity_id, owner, data, created_at) VALUES (?, ?, ?, ?, ?)",
			string(r.entity), r.id, r.owner, string(data), now,
		)
		if err != nil {
			return 0, fmt.Errorf("seeding %s %s: %w", r.entity, r.id, err)
		}
	}
	if export.UserID != "" {
		_, err = tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO meta (key, value) VALUES (?, ?)", metaUserID, export.UserID,
		)
		if err != nil {
			return 0, fmt.Errorf("seeding user id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed transaction: %w", err)
	}
	b.log.WithField("records", len(records)).Info("Seeded sandbox")
	return len(records), nil
}
