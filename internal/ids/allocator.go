package ids

import (
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Allocator maps source ids to destination ids per entity type. Fresh ids
// are taken from the destination's offset in allocation order. An Allocator
// is not safe for concurrent use; an import runs strictly sequentially.
type Allocator struct {
	codec  *Codec
	token  string
	prev   string
	tables map[types.EntityType]map[string]string
}

// NewAllocator starts a sequence at the destination's id offset.
func NewAllocator(codec *Codec, data types.IDData) (*Allocator, error) {
	offset, err := uuid.Parse(data.Offset)
	if err != nil {
		return nil, fmt.Errorf("parsing id offset %q: %w", data.Offset, err)
	}
	if offset == uuid.Nil {
		return nil, types.ErrZeroOffset
	}
	prev, err := codec.EncodeUUID(offset)
	if err != nil {
		return nil, err
	}
	return &Allocator{
		codec:  codec,
		token:  data.Token,
		prev:   prev,
		tables: make(map[types.EntityType]map[string]string),
	}, nil
}

// Token returns the id token that authorizes the allocated ids.
func (a *Allocator) Token() string {
	return a.token
}

func (a *Allocator) table(entity types.EntityType) map[string]string {
	t, ok := a.tables[entity]
	if !ok {
		t = make(map[string]string)
		a.tables[entity] = t
	}
	return t
}

// MappedID returns the destination id for src, allocating one on first
// reference.
func (a *Allocator) MappedID(entity types.EntityType, src string) (string, error) {
	t := a.table(entity)
	if id, ok := t[src]; ok {
		return id, nil
	}
	id, err := a.codec.Next(a.prev)
	if err != nil {
		return "", err
	}
	a.prev = id
	t[src] = id
	return id, nil
}

// Has reports whether src already has a destination id.
func (a *Allocator) Has(entity types.EntityType, src string) bool {
	_, ok := a.tables[entity][src]
	return ok
}

// Lookup returns the destination id of an entity that must already be
// mapped. A miss means records were submitted out of dependency order.
func (a *Allocator) Lookup(entity types.EntityType, src string) (string, error) {
	id, ok := a.tables[entity][src]
	if !ok {
		return "", &types.InvariantViolationError{
			Entity: entity,
			ID:     src,
			Reason: "referenced before it was mapped",
		}
	}
	return id, nil
}

// Bind records an externally supplied mapping, such as a verified
// organization subject that keeps its id.
func (a *Allocator) Bind(entity types.EntityType, src, dst string) error {
	t := a.table(entity)
	if _, ok := t[src]; ok {
		return &types.InvariantViolationError{
			Entity: entity,
			ID:     src,
			Reason: "mapped twice",
		}
	}
	t[src] = dst
	return nil
}

// Table returns a copy of the mapping for entity.
func (a *Allocator) Table(entity types.EntityType) map[string]string {
	out := make(map[string]string, len(a.tables[entity]))
	for k, v := range a.tables[entity] {
		out[k] = v
	}
	return out
}

// Entities returns the entity types that have a table, sorted by name.
func (a *Allocator) Entities() []types.EntityType {
	out := make([]types.EntityType, 0, len(a.tables))
	for e := range a.tables {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
