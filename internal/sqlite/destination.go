package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

func sandboxError(method string, entity types.EntityType, status int, payload any, format string, args ...any) error {
	return &types.RemoteOperationError{
		Method:  method,
		URL:     "sandbox:/" + string(entity) + "/",
		Status:  status,
		Message: fmt.Sprintf(format, args...),
		Payload: payload,
	}
}

// IDData issues a new token bound to the current id offset.
func (b *Backend) IDData(ctx context.Context) (types.IDData, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return types.IDData{}, err
	}

	var offset string
	if err := b.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaIDOffset).Scan(&offset); err != nil {
		return types.IDData{}, fmt.Errorf("reading id offset: %w", err)
	}
	token := uuid.NewString()
	_, err := b.db.ExecContext(ctx,
		"INSERT INTO id_tokens (token, id_offset, issued_at) VALUES (?, ?, ?)",
		token, offset, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return types.IDData{}, fmt.Errorf("storing id token: %w", err)
	}
	return types.IDData{Offset: offset, Token: token}, nil
}

// Create stores payload as a private entity. The id must have been derived
// from the offset of the id_token it carries.
func (b *Backend) Create(ctx context.Context, entity types.EntityType, payload map[string]any) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return "", err
	}

	record := make(map[string]any, len(payload))
	for k, v := range payload {
		record[k] = v
	}
	token, _ := record["id_token"].(string)
	delete(record, "id_token")
	id, _ := record["id"].(string)

	var offset string
	err := b.db.QueryRowContext(ctx, "SELECT id_offset FROM id_tokens WHERE token = ?", token).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return "", sandboxError(http.MethodPost, entity, http.StatusForbidden, payload, "unknown id token")
	}
	if err != nil {
		return "", fmt.Errorf("reading id token: %w", err)
	}

	value, err := b.codec.Decode(id)
	if err != nil {
		return "", sandboxError(http.MethodPost, entity, http.StatusUnprocessableEntity, payload, "invalid id %q", id)
	}
	base, err := uuid.Parse(offset)
	if err != nil {
		return "", fmt.Errorf("parsing stored offset: %w", err)
	}
	if value.Cmp(new(big.Int).SetBytes(base[:])) <= 0 {
		return "", sandboxError(http.MethodPost, entity, http.StatusUnprocessableEntity, payload, "id %q was not issued for this token", id)
	}

	if entity == types.EntitySubject {
		if err := b.checkParents(ctx, record, payload); err != nil {
			return "", err
		}
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", entity, err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning create transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO entities (entity_type, entity_id, owner, data, created_at) VALUES (?, ?, ?, ?, ?)",
		string(entity), id, ownerPrivate, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("inserting %s: %w", entity, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return "", sandboxError(http.MethodPost, entity, http.StatusConflict, payload, "id %q already exists", id)
	}
	if err := advanceOffset(ctx, tx, value); err != nil {
		return "", err
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing create: %w", err)
	}
	return id, nil
}

func (b *Backend) checkParents(ctx context.Context, record map[string]any, payload map[string]any) error {
	parents, _ := record["parent_ids"].([]any)
	for _, p := range parents {
		pid, _ := p.(string)
		ok, err := b.exists(ctx, types.EntitySubject, pid)
		if err != nil {
			return err
		}
		if !ok {
			return sandboxError(http.MethodPost, types.EntitySubject, http.StatusUnprocessableEntity, payload, "parent %q does not exist", pid)
		}
	}
	return nil
}

// advanceOffset moves the stored offset past value so the next session
// allocates fresh ids.
func advanceOffset(ctx context.Context, tx *sql.Tx, value *big.Int) error {
	var current string
	if err := tx.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaIDOffset).Scan(&current); err != nil {
		return fmt.Errorf("reading id offset: %w", err)
	}
	cur, err := uuid.Parse(current)
	if err != nil {
		return fmt.Errorf("parsing stored offset: %w", err)
	}
	if value.Cmp(new(big.Int).SetBytes(cur[:])) <= 0 {
		return nil
	}
	var next uuid.UUID
	value.FillBytes(next[:])
	if _, err := tx.ExecContext(ctx, "UPDATE meta SET value = ? WHERE key = ?", next.String(), metaIDOffset); err != nil {
		return fmt.Errorf("advancing id offset: %w", err)
	}
	return nil
}

// Exists reports whether an entity with id is stored, whoever owns it.
func (b *Backend) Exists(ctx context.Context, entity types.EntityType, id string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return false, err
	}
	return b.exists(ctx, entity, id)
}

func (b *Backend) exists(ctx context.Context, entity types.EntityType, id string) (bool, error) {
	var one int
	err := b.db.QueryRowContext(ctx,
		"SELECT 1 FROM entities WHERE entity_type = ? AND entity_id = ?", string(entity), id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking %s %s: %w", entity, id, err)
	}
	return true, nil
}

// ClearAllPrivateData deletes every private entity. Seeded organization data
// stays.
func (b *Backend) ClearAllPrivateData(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkAttached(); err != nil {
		return err
	}
	res, err := b.db.ExecContext(ctx, "DELETE FROM entities WHERE owner = ?", ownerPrivate)
	if err != nil {
		return fmt.Errorf("clearing private data: %w", err)
	}
	n, _ := res.RowsAffected()
	b.log.WithField("deleted", n).Info("Removed private data")
	return nil
}

// Fetch returns every stored entity of the given type in insertion order.
func (b *Backend) Fetch(ctx context.Context, entity types.EntityType) ([]json.RawMessage, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return nil, err
	}
	rows, err := b.db.QueryContext(ctx,
		"SELECT data FROM entities WHERE entity_type = ? ORDER BY rowid ASC", string(entity),
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", entity, err)
	}
	defer rows.Close()

	records := []json.RawMessage{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", entity, err)
		}
		records = append(records, json.RawMessage(data))
	}
	return records, rows.Err()
}

// UserID returns the user id recorded when the sandbox was seeded.
func (b *Backend) UserID(ctx context.Context) (string, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if err := b.checkAttached(); err != nil {
		return "", err
	}
	var id string
	err := b.db.QueryRowContext(ctx, "SELECT value FROM meta WHERE key = ?", metaUserID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}
