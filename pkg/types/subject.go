package types

// Subject kinds. A subject without a kind is a plain node.
const (
	SubjectKindPlain   = ""
	SubjectKindProject = "project"
	SubjectKindLabel   = "label"
)

// Subject is a node in a private or organization-owned tree that activities
// are logged against. ParentIDs form a DAG over subjects.
type Subject struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	OrganizationID string   `json:"organization_id"`
	ParentIDs      []string `json:"parent_ids"`
	Kind           string   `json:"kind,omitempty"`
	Extra          Extra    `json:"-"`
}

// IsPrivate reports whether the subject belongs to the user rather than to an
// organization.
func (s *Subject) IsPrivate() bool {
	return !IsReference(s.OrganizationID)
}

// IsLabel reports whether the subject is a label.
func (s *Subject) IsLabel() bool {
	return s.Kind == SubjectKindLabel
}

func (s *Subject) UnmarshalJSON(data []byte) error {
	type plain Subject
	return unmarshalWithExtra(data, (*plain)(s), &s.Extra)
}

func (s Subject) MarshalJSON() ([]byte, error) {
	type plain Subject
	if s.ParentIDs == nil {
		s.ParentIDs = []string{}
	}
	return marshalWithExtra(plain(s), s.Extra)
}

// Key returns the subject id.
func (s Subject) Key() string {
	return s.ID
}

// Dependencies returns the parent ids.
func (s Subject) Dependencies() []string {
	return s.ParentIDs
}
