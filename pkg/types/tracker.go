package types

// TrackerLink is a connection to an external issue tracker. Credentials and
// service-specific reference data stay in Extra. Links lifted from the
// first format carry no name.
type TrackerLink struct {
	ID      string  `json:"id"`
	Service string  `json:"service"`
	Name    *string `json:"name,omitempty"`
	Extra   Extra   `json:"-"`
}

func (l *TrackerLink) UnmarshalJSON(data []byte) error {
	type plain TrackerLink
	return unmarshalWithExtra(data, (*plain)(l), &l.Extra)
}

func (l TrackerLink) MarshalJSON() ([]byte, error) {
	type plain TrackerLink
	return marshalWithExtra(plain(l), l.Extra)
}

// TrackerProject is a project on a tracker link, optionally attached to a
// subject. SubjectID is nil or EmptyID when the project is unattached.
type TrackerProject struct {
	ID        string  `json:"id"`
	LinkID    string  `json:"link_id"`
	SubjectID *string `json:"subject_id,omitempty"`
	Key       string  `json:"key"`
	Name      string  `json:"name"`
	IsHidden  bool    `json:"is_hidden"`
	Extra     Extra   `json:"-"`
}

func (p *TrackerProject) UnmarshalJSON(data []byte) error {
	type plain TrackerProject
	return unmarshalWithExtra(data, (*plain)(p), &p.Extra)
}

func (p TrackerProject) MarshalJSON() ([]byte, error) {
	type plain TrackerProject
	return marshalWithExtra(plain(p), p.Extra)
}

// Subject returns the attached subject id, or "" when there is none.
func (p TrackerProject) Subject() string {
	if p.SubjectID == nil {
		return ""
	}
	return *p.SubjectID
}

// TrackerIssue is an issue of a tracker project.
type TrackerIssue struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Key       string `json:"key"`
	Title     string `json:"title"`
	IsHidden  bool   `json:"is_hidden"`
	WasUsed   bool   `json:"was_used"`
	Extra     Extra  `json:"-"`
}

func (i *TrackerIssue) UnmarshalJSON(data []byte) error {
	type plain TrackerIssue
	return unmarshalWithExtra(data, (*plain)(i), &i.Extra)
}

func (i TrackerIssue) MarshalJSON() ([]byte, error) {
	type plain TrackerIssue
	return marshalWithExtra(plain(i), i.Extra)
}
