package upgrade

import "fmt"

// Report describes the changes an upgrade made that the user should know
// about.
type Report struct {
	FromVersion int
	Synthetic   []SyntheticSubject
}

// SyntheticSubject is a private subject created to hold activities that were
// logged directly against an organization subject.
type SyntheticSubject struct {
	ID               string
	Name             string
	ParentID         string
	ParentName       string
	OrganizationName string
}

// Note renders the message shown to the user.
func (s SyntheticSubject) Note() string {
	return fmt.Sprintf("Added subject %q (%s) as child of organization subject %q (%s) to hold your activities.",
		s.Name, s.ID, s.OrganizationName+" :: "+s.ParentName, s.ParentID)
}
