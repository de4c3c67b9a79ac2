package types

// Organization groups users that share organization-owned subjects.
// Organizations are never created by an import, only referenced.
type Organization struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Members []Member `json:"members,omitempty"`
	Extra   Extra    `json:"-"`
}

func (o *Organization) UnmarshalJSON(data []byte) error {
	type plain Organization
	return unmarshalWithExtra(data, (*plain)(o), &o.Extra)
}

func (o Organization) MarshalJSON() ([]byte, error) {
	type plain Organization
	return marshalWithExtra(plain(o), o.Extra)
}

// Member is a user's membership in an organization.
type Member struct {
	UserID string `json:"user_id"`
	Extra  Extra  `json:"-"`
}

func (m *Member) UnmarshalJSON(data []byte) error {
	type plain Member
	return unmarshalWithExtra(data, (*plain)(m), &m.Extra)
}

func (m Member) MarshalJSON() ([]byte, error) {
	type plain Member
	return marshalWithExtra(plain(m), m.Extra)
}

// User is the exporting user's profile record.
type User struct {
	ID    string `json:"id"`
	Extra Extra  `json:"-"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	return unmarshalWithExtra(data, (*plain)(u), &u.Extra)
}

func (u User) MarshalJSON() ([]byte, error) {
	type plain User
	return marshalWithExtra(plain(u), u.Extra)
}
