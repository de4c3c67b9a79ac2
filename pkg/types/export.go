package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// CurrentAPIVersion is the schema generation written by this tool. Exports
// without an api_version member are generation 0.
const CurrentAPIVersion = 1

// TimestampLayout is the ISO-8601 layout of exported_on: UTC with
// millisecond precision and a literal Z.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a UTC instant encoded with TimestampLayout.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds and converts it to UTC.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

func (t Timestamp) String() string {
	return t.UTC().Format(TimestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts TimestampLayout and, for older exports, any RFC 3339
// timestamp.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("exported_on: %w", err)
	}
	parsed, err := time.Parse(TimestampLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("exported_on: %w", err)
		}
	}
	*t = NewTimestamp(parsed)
	return nil
}

// Export is the envelope of an export file.
type Export struct {
	ExportedOn Timestamp   `json:"exported_on"`
	APIVersion *int        `json:"api_version,omitempty"`
	UserID     string      `json:"user_id"`
	Data       Collections `json:"data"`
	Extra      Extra       `json:"-"`
}

// Version returns the schema generation of the envelope.
func (e *Export) Version() int {
	if e.APIVersion == nil {
		return 0
	}
	return *e.APIVersion
}

func (e *Export) UnmarshalJSON(data []byte) error {
	type plain Export
	return unmarshalWithExtra(data, (*plain)(e), &e.Extra)
}

func (e Export) MarshalJSON() ([]byte, error) {
	type plain Export
	return marshalWithExtra(plain(e), e.Extra)
}

// Collections holds the entity collections of an export. Reports are not
// imported and are kept verbatim. Unknown collections land in Extra.
type Collections struct {
	Users           []User            `json:"users"`
	Organizations   []Organization    `json:"organizations"`
	Subjects        []Subject         `json:"subjects"`
	Locations       []Location        `json:"locations"`
	TrackerLinks    []TrackerLink     `json:"tracker_links"`
	TrackerProjects []TrackerProject  `json:"tracker_projects"`
	TrackerIssues   []TrackerIssue    `json:"tracker_issues"`
	Activities      []Activity        `json:"activities"`
	Reports         []json.RawMessage `json:"reports"`
	Extra           Extra             `json:"-"`
}

func (c *Collections) UnmarshalJSON(data []byte) error {
	type plain Collections
	return unmarshalWithExtra(data, (*plain)(c), &c.Extra)
}

func (c Collections) MarshalJSON() ([]byte, error) {
	type plain Collections
	if c.Users == nil {
		c.Users = []User{}
	}
	if c.Organizations == nil {
		c.Organizations = []Organization{}
	}
	if c.Subjects == nil {
		c.Subjects = []Subject{}
	}
	if c.Locations == nil {
		c.Locations = []Location{}
	}
	if c.TrackerLinks == nil {
		c.TrackerLinks = []TrackerLink{}
	}
	if c.TrackerProjects == nil {
		c.TrackerProjects = []TrackerProject{}
	}
	if c.TrackerIssues == nil {
		c.TrackerIssues = []TrackerIssue{}
	}
	if c.Activities == nil {
		c.Activities = []Activity{}
	}
	if c.Reports == nil {
		c.Reports = []json.RawMessage{}
	}
	return marshalWithExtra(plain(c), c.Extra)
}

// Set decodes raw records into the collection named name. Collections this
// package does not model are kept in Extra.
func (c *Collections) Set(name string, records []json.RawMessage) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return err
	}
	var target any
	switch name {
	case "users":
		target = &c.Users
	case "organizations":
		target = &c.Organizations
	case "subjects":
		target = &c.Subjects
	case "locations":
		target = &c.Locations
	case "tracker_links":
		target = &c.TrackerLinks
	case "tracker_projects":
		target = &c.TrackerProjects
	case "tracker_issues":
		target = &c.TrackerIssues
	case "activities":
		target = &c.Activities
	case "reports":
		target = &c.Reports
	default:
		if c.Extra == nil {
			c.Extra = Extra{}
		}
		c.Extra[name] = raw
		return nil
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("collection %s: %w", name, err)
	}
	return nil
}
