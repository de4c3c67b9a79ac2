package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/beaverport/internal/graph"
	"github.com/mesh-intelligence/beaverport/internal/ids"
	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// plan is the pure part of an import: which subjects are created in which
// order, and which ids are expected to exist on the destination already.
type plan struct {
	export   *types.Export
	subjects []types.Subject
	external map[string]bool
	excluded map[string]bool
	kinds    map[string]string
}

func newPlan(export *types.Export, opts Options) (*plan, error) {
	p := &plan{
		export:   export,
		external: make(map[string]bool),
		excluded: make(map[string]bool),
		kinds:    make(map[string]string),
	}

	private := make([]types.Subject, 0, len(export.Data.Subjects))
	privateIDs := make(map[string]bool)
	for _, s := range export.Data.Subjects {
		p.kinds[s.ID] = s.Kind
		if !s.IsPrivate() {
			p.external[s.ID] = true
			continue
		}
		s.ParentIDs = remapParents(s.ParentIDs, opts.ParentIDMap)
		private = append(private, s)
		privateIDs[s.ID] = true
	}
	for _, target := range opts.ParentIDMap {
		if target != nil && !privateIDs[*target] {
			p.external[*target] = true
		}
	}

	p.exclude(private, privateIDs, newNameFilter(opts))

	forest := make([]types.Subject, 0, len(private))
	for _, s := range private {
		if !p.excluded[s.ID] {
			forest = append(forest, s)
		}
	}
	ordered, err := graph.Resolve(types.EntitySubject, forest, p.isExternal)
	if err != nil {
		return nil, err
	}
	p.subjects = ordered
	return p, nil
}

func (p *plan) isExternal(id string) bool {
	return p.external[id]
}

func remapParents(parents []string, overrides map[string]*string) []string {
	if len(overrides) == 0 {
		return parents
	}
	out := make([]string, 0, len(parents))
	for _, id := range parents {
		target, ok := overrides[id]
		if !ok {
			out = append(out, id)
			continue
		}
		if target != nil {
			out = append(out, *target)
		}
	}
	return out
}

// exclude marks the top-level private subjects rejected by the name filter,
// and everything below them.
func (p *plan) exclude(private []types.Subject, privateIDs map[string]bool, filter nameFilter) {
	children := make(map[string][]string)
	var roots []string
	for _, s := range private {
		top := true
		for _, parent := range s.ParentIDs {
			if privateIDs[parent] {
				top = false
				children[parent] = append(children[parent], s.ID)
			}
		}
		if top && !filter.keep(s.Name) {
			roots = append(roots, s.ID)
		}
	}
	for _, id := range graph.Descendants(roots, children) {
		p.excluded[id] = true
	}
}

// externalRefs lists every reference from an imported record to a subject
// that must already exist on the destination.
func (p *plan) externalRefs() []types.MissingRecord {
	var refs []types.MissingRecord
	for _, s := range p.subjects {
		for _, parent := range s.ParentIDs {
			if p.external[parent] {
				refs = append(refs, types.MissingRecord{Entity: types.EntitySubject, SourceID: s.ID, Field: "parent_ids", Missing: parent})
			}
		}
	}
	for _, tp := range p.export.Data.TrackerProjects {
		if sid := tp.Subject(); p.external[sid] {
			refs = append(refs, types.MissingRecord{Entity: types.EntityTrackerProject, SourceID: tp.ID, Field: "subject_id", Missing: sid})
		}
	}
	for _, a := range p.export.Data.Activities {
		for _, sid := range a.SubjectIDs {
			if p.external[sid] {
				refs = append(refs, types.MissingRecord{Entity: types.EntityActivity, SourceID: a.ID, Field: "subject_ids", Missing: sid})
			}
		}
	}
	return refs
}

// verifyExternal checks every external subject reference before anything is
// created and returns the verified ids in first-seen order.
func verifyExternal(ctx context.Context, dst types.Destination, p *plan) ([]string, error) {
	refs := p.externalRefs()
	exists := make(map[string]bool)
	var order []string
	for _, ref := range refs {
		if _, ok := exists[ref.Missing]; ok {
			continue
		}
		found, err := dst.Exists(ctx, types.EntitySubject, ref.Missing)
		if err != nil {
			return nil, fmt.Errorf("checking subject %s: %w", ref.Missing, err)
		}
		exists[ref.Missing] = found
		order = append(order, ref.Missing)
	}

	var missing []types.MissingRecord
	for _, ref := range refs {
		if !exists[ref.Missing] {
			missing = append(missing, ref)
		}
	}
	if len(missing) > 0 {
		err := &types.MissingExternalDependencyError{Missing: missing}
		err.Hint = parentMapHint(err.MissingIDs())
		return nil, err
	}
	return order, nil
}

// parentMapHint renders the flag that imports without the missing parents.
func parentMapHint(missing []string) string {
	parts := make([]string, len(missing))
	for i, id := range missing {
		parts[i] = fmt.Sprintf("%q: null", id)
	}
	return fmt.Sprintf("NOTE: You can skip these parents with: --parent-id-map='{%s}'", strings.Join(parts, ", "))
}

// activitySubjects returns the subjects an activity keeps after filtering.
// An activity with no imported subject is dropped. So is one that lost a
// subject to filtering unless everything it kept is a label.
func (p *plan) activitySubjects(a types.Activity, alloc *ids.Allocator) ([]string, bool) {
	kept := make([]string, 0, len(a.SubjectIDs))
	for _, sid := range a.SubjectIDs {
		if alloc.Has(types.EntitySubject, sid) {
			kept = append(kept, sid)
		}
	}
	if len(kept) == 0 {
		return nil, false
	}
	if len(kept) == len(a.SubjectIDs) {
		return kept, true
	}
	for _, sid := range kept {
		if p.kinds[sid] != types.SubjectKindLabel {
			return nil, false
		}
	}
	return kept, true
}
