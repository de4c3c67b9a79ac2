package importer

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

type created struct {
	entity  types.EntityType
	payload map[string]any
}

// fakeDestination records every call and answers from memory.
type fakeDestination struct {
	existing map[string]bool
	failOn   types.EntityType
	rename   bool

	idCalls     int
	existsCalls []string
	created     []created
}

func newFake(existing ...string) *fakeDestination {
	f := &fakeDestination{existing: map[string]bool{}}
	for _, id := range existing {
		f.existing[id] = true
	}
	return f
}

func (f *fakeDestination) IDData(context.Context) (types.IDData, error) {
	f.idCalls++
	return types.IDData{Offset: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", Token: "token-1"}, nil
}

func (f *fakeDestination) Create(_ context.Context, entity types.EntityType, payload map[string]any) (string, error) {
	if entity == f.failOn {
		return "", &types.RemoteOperationError{Method: "POST", URL: "/" + string(entity) + "/", Status: 500, Message: "boom", Payload: payload}
	}
	f.created = append(f.created, created{entity: entity, payload: payload})
	if f.rename {
		return fmt.Sprintf("other-%d", len(f.created)), nil
	}
	return payload["id"].(string), nil
}

func (f *fakeDestination) Exists(_ context.Context, _ types.EntityType, id string) (bool, error) {
	f.existsCalls = append(f.existsCalls, id)
	return f.existing[id], nil
}

func (f *fakeDestination) ClearAllPrivateData(context.Context) error {
	return nil
}

func (f *fakeDestination) createdOf(entity types.EntityType) []map[string]any {
	var out []map[string]any
	for _, c := range f.created {
		if c.entity == entity {
			out = append(out, c.payload)
		}
	}
	return out
}

func (f *fakeDestination) order() []types.EntityType {
	var out []types.EntityType
	for _, c := range f.created {
		if len(out) == 0 || out[len(out)-1] != c.entity {
			out = append(out, c.entity)
		}
	}
	return out
}
