package importer

import "github.com/mesh-intelligence/beaverport/pkg/types"

type refKind int

const (
	// refSingle is a required id.
	refSingle refKind = iota
	// refOptional is an id that may be absent or types.EmptyID.
	refOptional
	// refList is a list of ids.
	refList
)

// fieldRef declares that a payload field holds ids of another entity type.
type fieldRef struct {
	field  string
	entity types.EntityType
	kind   refKind
}

// references lists, per created entity type, the fields that must be
// rewritten to destination ids before the record is submitted.
var references = map[types.EntityType][]fieldRef{
	types.EntitySubject: {
		{field: "parent_ids", entity: types.EntitySubject, kind: refList},
	},
	types.EntityLocation:    nil,
	types.EntityTrackerLink: nil,
	types.EntityTrackerProject: {
		{field: "link_id", entity: types.EntityTrackerLink, kind: refSingle},
		{field: "subject_id", entity: types.EntitySubject, kind: refOptional},
	},
	types.EntityTrackerIssue: {
		{field: "project_id", entity: types.EntityTrackerProject, kind: refSingle},
	},
	types.EntityActivity: {
		{field: "subject_ids", entity: types.EntitySubject, kind: refList},
		{field: "location_id", entity: types.EntityLocation, kind: refOptional},
		{field: "issue_id", entity: types.EntityTrackerIssue, kind: refOptional},
	},
}

// strippedFields are derived by the destination and never submitted.
var strippedFields = []string{
	"id",
	"created_on",
	"activity_start",
	"activity_end",
	"activity_count",
	"milliseconds",
	"ancestor_ids",
}
