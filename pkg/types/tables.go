package types

// EntityType names a kind of entity on the destination. The value doubles as
// the path segment of the destination API.
type EntityType string

// Entity types created by an import.
const (
	EntitySubject        EntityType = "subject"
	EntityLocation       EntityType = "location"
	EntityTrackerLink    EntityType = "tracker-link"
	EntityTrackerProject EntityType = "tracker-project"
	EntityTrackerIssue   EntityType = "tracker-issue"
	EntityActivity       EntityType = "activity"
)

// Entity types that are only ever read.
const (
	EntityUser         EntityType = "user"
	EntityOrganization EntityType = "organization"
	EntityReport       EntityType = "report"
)

// EmptyID is the "no reference" identifier. A subject whose organization_id
// is EmptyID is private to the user.
const EmptyID = "0"

// ImportOrder lists the created entity types in dependency order.
var ImportOrder = []EntityType{
	EntitySubject,
	EntityLocation,
	EntityTrackerLink,
	EntityTrackerProject,
	EntityTrackerIssue,
	EntityActivity,
}

// ExportCollections maps each export collection name to its entity type, in
// the order an export is downloaded.
var ExportCollections = []struct {
	Name   string
	Entity EntityType
}{
	{"users", EntityUser},
	{"subjects", EntitySubject},
	{"locations", EntityLocation},
	{"activities", EntityActivity},
	{"organizations", EntityOrganization},
	{"tracker_links", EntityTrackerLink},
	{"tracker_projects", EntityTrackerProject},
	{"tracker_issues", EntityTrackerIssue},
	{"reports", EntityReport},
}

// IsReference reports whether id points at an entity.
func IsReference(id string) bool {
	return id != "" && id != EmptyID
}
