// Package importer replays an export into a destination.
//
// Records are created strictly in dependency order (subjects, locations,
// tracker links, tracker projects, tracker issues, activities). Every record
// is given a pre-allocated destination id, and every reference it carries is
// rewritten through the allocator before it is submitted. Any failure aborts
// the run; records already created stay on the destination.
package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/beaverport/internal/ids"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Result summarizes a completed import.
type Result struct {
	Created           map[types.EntityType]int
	DroppedActivities int
	Remap             map[types.EntityType]map[string]string
}

type importer struct {
	dst   types.Destination
	alloc *ids.Allocator
	log   logrus.FieldLogger
	res   *Result
}

// Prepared is an import that has passed every check that can be made
// without writing to the destination.
type Prepared struct {
	dst      types.Destination
	export   *types.Export
	plan     *plan
	external []string
	log      logrus.FieldLogger
}

// Prepare validates opts, orders the subject graph and verifies external
// subject references. It only reads from dst, so a failure here leaves the
// destination untouched.
func Prepare(ctx context.Context, dst types.Destination, export *types.Export, opts Options) (*Prepared, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	p, err := newPlan(export, opts)
	if err != nil {
		return nil, err
	}
	external, err := verifyExternal(ctx, dst, p)
	if err != nil {
		return nil, err
	}
	return &Prepared{dst: dst, export: export, plan: p, external: external, log: opts.logger()}, nil
}

// Run imports export into dst. The destination is expected to be empty of
// private data; clearing it is the caller's job.
func Run(ctx context.Context, dst types.Destination, export *types.Export, opts Options) (*Result, error) {
	prep, err := Prepare(ctx, dst, export, opts)
	if err != nil {
		return nil, err
	}
	return prep.Run(ctx)
}

// Run creates the prepared records on the destination.
func (prep *Prepared) Run(ctx context.Context) (*Result, error) {
	dst, export, p, log := prep.dst, prep.export, prep.plan, prep.log

	codec, err := ids.NewCodec()
	if err != nil {
		return nil, err
	}
	idData, err := dst.IDData(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching id data: %w", err)
	}
	alloc, err := ids.NewAllocator(codec, idData)
	if err != nil {
		return nil, err
	}
	for _, id := range prep.external {
		if err := alloc.Bind(types.EntitySubject, id, id); err != nil {
			return nil, err
		}
		log.WithField("id", id).Debug("Verified organization subject")
	}

	im := &importer{
		dst:   dst,
		alloc: alloc,
		log:   log,
		res:   &Result{Created: make(map[types.EntityType]int)},
	}

	log.WithField("count", len(p.subjects)).Info("Importing subject data")
	for _, s := range p.subjects {
		if _, err := im.create(ctx, types.EntitySubject, s.ID, s); err != nil {
			return nil, err
		}
	}

	log.WithField("count", len(export.Data.Locations)).Info("Importing location data")
	for _, l := range export.Data.Locations {
		if _, err := im.create(ctx, types.EntityLocation, l.ID, l); err != nil {
			return nil, err
		}
	}

	log.WithField("count", len(export.Data.TrackerLinks)).Info("Importing tracker link data")
	for _, l := range export.Data.TrackerLinks {
		if _, err := im.create(ctx, types.EntityTrackerLink, l.ID, l); err != nil {
			return nil, err
		}
	}

	log.WithField("count", len(export.Data.TrackerProjects)).Info("Importing tracker project data")
	for _, tp := range export.Data.TrackerProjects {
		if _, err := im.create(ctx, types.EntityTrackerProject, tp.ID, tp); err != nil {
			return nil, err
		}
	}

	log.WithField("count", len(export.Data.TrackerIssues)).Info("Importing tracker issue data")
	for _, ti := range export.Data.TrackerIssues {
		if _, err := im.create(ctx, types.EntityTrackerIssue, ti.ID, ti); err != nil {
			return nil, err
		}
	}

	log.WithField("count", len(export.Data.Activities)).Info("Importing activity data")
	for _, a := range export.Data.Activities {
		kept, ok := p.activitySubjects(a, alloc)
		if !ok {
			im.res.DroppedActivities++
			log.WithField("source_id", a.ID).Debug("Dropping activity without imported subjects")
			continue
		}
		a.SubjectIDs = kept
		if _, err := im.create(ctx, types.EntityActivity, a.ID, a); err != nil {
			return nil, err
		}
	}

	im.res.Remap = make(map[types.EntityType]map[string]string)
	for _, e := range alloc.Entities() {
		im.res.Remap[e] = alloc.Table(e)
	}
	return im.res, nil
}

// create submits one record. It strips destination-derived fields, rewrites
// references through the allocator, assigns the pre-allocated id and checks
// that the destination kept it.
func (im *importer) create(ctx context.Context, entity types.EntityType, srcID string, record any) (string, error) {
	payload, err := toPayload(record)
	if err != nil {
		return "", fmt.Errorf("encoding %s %s: %w", entity, srcID, err)
	}
	for _, f := range strippedFields {
		delete(payload, f)
	}
	for _, ref := range references[entity] {
		if err := im.substitute(payload, ref); err != nil {
			return "", fmt.Errorf("%s %s field %s: %w", entity, srcID, ref.field, err)
		}
	}

	id, err := im.alloc.MappedID(entity, srcID)
	if err != nil {
		return "", err
	}
	payload["id"] = id
	payload["id_token"] = im.alloc.Token()

	got, err := im.dst.Create(ctx, entity, payload)
	if err != nil {
		return "", err
	}
	if got != id {
		return "", &types.RemoteOperationError{
			Method:  "POST",
			URL:     string(entity),
			Message: fmt.Sprintf("destination assigned id %q instead of %q", got, id),
			Payload: payload,
		}
	}
	im.res.Created[entity]++
	im.log.WithFields(logrus.Fields{
		"entity":    entity,
		"source_id": srcID,
		"id":        id,
	}).Debug("Created")
	return id, nil
}

func (im *importer) substitute(payload map[string]any, ref fieldRef) error {
	raw, present := payload[ref.field]
	switch ref.kind {
	case refSingle:
		src, ok := raw.(string)
		if !ok || !types.IsReference(src) {
			return &types.InvariantViolationError{Entity: ref.entity, ID: fmt.Sprint(raw), Reason: "required reference is missing"}
		}
		id, err := im.alloc.Lookup(ref.entity, src)
		if err != nil {
			return err
		}
		payload[ref.field] = id
	case refOptional:
		src, _ := raw.(string)
		if !present || raw == nil || !types.IsReference(src) {
			payload[ref.field] = types.EmptyID
			return nil
		}
		id, err := im.alloc.Lookup(ref.entity, src)
		if err != nil {
			return err
		}
		payload[ref.field] = id
	case refList:
		list, _ := raw.([]any)
		out := make([]any, 0, len(list))
		for _, item := range list {
			src, ok := item.(string)
			if !ok {
				return &types.InvariantViolationError{Entity: ref.entity, ID: fmt.Sprint(item), Reason: "reference is not a string id"}
			}
			id, err := im.alloc.Lookup(ref.entity, src)
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		payload[ref.field] = out
	}
	return nil
}

// toPayload turns a record into the generic object submitted to the
// destination.
func toPayload(record any) (map[string]any, error) {
	raw, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}
	return payload, nil
}
