package sqlite

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/beaverport/internal/ids"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func attach(t *testing.T, dir string) *Backend {
	t.Helper()
	b := NewBackend(quietLogger())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	t.Cleanup(func() { _ = b.Detach() })
	return b
}

func allocator(t *testing.T, b *Backend) *ids.Allocator {
	t.Helper()
	data, err := b.IDData(context.Background())
	require.NoError(t, err)
	codec, err := ids.NewCodec()
	require.NoError(t, err)
	a, err := ids.NewAllocator(codec, data)
	require.NoError(t, err)
	return a
}

func create(t *testing.T, b *Backend, a *ids.Allocator, entity types.EntityType, src string, payload map[string]any) string {
	t.Helper()
	id, err := a.MappedID(entity, src)
	require.NoError(t, err)
	payload["id"] = id
	payload["id_token"] = a.Token()
	got, err := b.Create(context.Background(), entity, payload)
	require.NoError(t, err)
	require.Equal(t, id, got)
	return id
}

func TestAttachLifecycle(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(quietLogger())

	err := b.Attach(types.Config{Backend: types.BackendSQLite})
	assert.ErrorIs(t, err, types.ErrDataDirEmpty)

	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	assert.ErrorIs(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}), ErrAlreadyAttached)

	require.NoError(t, b.Detach())
	require.NoError(t, b.Detach(), "detach is idempotent")

	_, err = b.IDData(context.Background())
	assert.ErrorIs(t, err, ErrDetached)
}

func TestIDDataOffsetIsStableAndNonZero(t *testing.T) {
	b := attach(t, t.TempDir())
	first, err := b.IDData(context.Background())
	require.NoError(t, err)
	second, err := b.IDData(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first.Offset, second.Offset)
	assert.NotEqual(t, first.Token, second.Token)
	assert.NotEqual(t, uuid.Nil, uuid.MustParse(first.Offset))
}

func TestCreateAdvancesOffset(t *testing.T) {
	b := attach(t, t.TempDir())
	a := allocator(t, b)
	create(t, b, a, types.EntityLocation, "l1", map[string]any{"name": "Home"})
	last := create(t, b, a, types.EntityLocation, "l2", map[string]any{"name": "Office"})

	// A second session must start after the ids of the first.
	next := allocator(t, b)
	id, err := next.MappedID(types.EntityLocation, "l3")
	require.NoError(t, err)

	codec, err := ids.NewCodec()
	require.NoError(t, err)
	lastValue, _ := codec.Decode(last)
	nextValue, _ := codec.Decode(id)
	assert.Equal(t, 1, nextValue.Cmp(lastValue))

	records, err := b.Fetch(context.Background(), types.EntityLocation)
	require.NoError(t, err)
	require.Len(t, records, 2)
	var loc map[string]any
	require.NoError(t, json.Unmarshal(records[0], &loc))
	assert.Equal(t, "Home", loc["name"])
	assert.NotContains(t, loc, "id_token")
}

func TestCreateRejectsBadRequests(t *testing.T) {
	b := attach(t, t.TempDir())
	a := allocator(t, b)
	id := create(t, b, a, types.EntitySubject, "s1", map[string]any{"name": "A", "parent_ids": []any{}})

	tests := []struct {
		name       string
		payload    map[string]any
		wantStatus int
	}{
		{
			name:       "unknown token",
			payload:    map[string]any{"id": id, "id_token": "forged"},
			wantStatus: 403,
		},
		{
			name:       "duplicate id",
			payload:    map[string]any{"id": id, "id_token": a.Token(), "name": "B", "parent_ids": []any{}},
			wantStatus: 409,
		},
		{
			name:       "undecodable id",
			payload:    map[string]any{"id": "!!", "id_token": a.Token()},
			wantStatus: 422,
		},
		{
			name:       "missing parent",
			payload:    map[string]any{"id": mustNext(t, a), "id_token": a.Token(), "parent_ids": []any{"ghost"}},
			wantStatus: 422,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Create(context.Background(), types.EntitySubject, tt.payload)
			var remote *types.RemoteOperationError
			require.ErrorAs(t, err, &remote)
			assert.Equal(t, tt.wantStatus, remote.Status)
		})
	}
}

func mustNext(t *testing.T, a *ids.Allocator) string {
	t.Helper()
	id, err := a.MappedID(types.EntitySubject, uuid.NewString())
	require.NoError(t, err)
	return id
}

func TestClearKeepsSeededData(t *testing.T) {
	b := attach(t, t.TempDir())
	_, err := b.Seed(context.Background(), &types.Export{
		UserID: "u1",
		Data: types.Collections{
			Subjects: []types.Subject{{ID: "org-s", Name: "Shared", OrganizationID: "o1"}},
		},
	})
	require.NoError(t, err)

	a := allocator(t, b)
	priv := create(t, b, a, types.EntitySubject, "p", map[string]any{"name": "Mine", "parent_ids": []any{"org-s"}})

	require.NoError(t, b.ClearAllPrivateData(context.Background()))

	ok, err := b.Exists(context.Background(), types.EntitySubject, priv)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = b.Exists(context.Background(), types.EntitySubject, "org-s")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDataSurvivesReattach(t *testing.T) {
	dir := t.TempDir()
	b := NewBackend(quietLogger())
	require.NoError(t, b.Attach(types.Config{Backend: types.BackendSQLite, DataDir: dir}))
	a := allocator(t, b)
	id := create(t, b, a, types.EntityTrackerLink, "tl", map[string]any{"service": "gitlab"})
	require.NoError(t, b.Detach())

	again := attach(t, dir)
	ok, err := again.Exists(context.Background(), types.EntityTrackerLink, id)
	require.NoError(t, err)
	assert.True(t, ok)
}
