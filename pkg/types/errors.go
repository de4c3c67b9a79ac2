package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Data errors.
var (
	ErrInvalidActivityData   = errors.New("invalid activity data")
	ErrUnknownIssueReference = errors.New("activity references an unknown issue")
	ErrInvalidExport         = errors.New("invalid export document")
)

// Identifier errors.
var (
	ErrEncode     = errors.New("cannot encode identifier")
	ErrDecode     = errors.New("cannot decode identifier")
	ErrZeroOffset = errors.New("id offset must not be zero")
	ErrIDOverflow = errors.New("identifier space exhausted")
)

// Destination errors.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnknownEntity    = errors.New("unknown entity type")
)

// pretty renders v as indented JSON for error messages. Values that cannot be
// marshaled fall back to %v.
func pretty(v any) string {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(out)
}

// SchemaVersionError is returned when an export carries a version marker
// this tool cannot handle, or when an upgrade is asked of a document that is
// already current.
type SchemaVersionError struct {
	Found  any
	Reason string
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("schema version %s: %s", pretty(e.Found), e.Reason)
}

// MissingRecord is one external reference that the destination does not know.
type MissingRecord struct {
	Entity   EntityType `json:"entity"`
	SourceID string     `json:"source_id"`
	Field    string     `json:"field"`
	Missing  string     `json:"missing"`
}

// MissingExternalDependencyError lists every record whose external reference
// could not be found on the destination. It is raised before anything is
// created.
type MissingExternalDependencyError struct {
	Missing []MissingRecord
	Hint    string
}

func (e *MissingExternalDependencyError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d record(s) reference entities missing on the destination:\n%s",
		len(e.Missing), pretty(e.Missing))
	if e.Hint != "" {
		b.WriteString("\n")
		b.WriteString(e.Hint)
	}
	return b.String()
}

// MissingIDs returns the distinct missing ids in first-seen order.
func (e *MissingExternalDependencyError) MissingIDs() []string {
	seen := make(map[string]bool, len(e.Missing))
	var ids []string
	for _, m := range e.Missing {
		if !seen[m.Missing] {
			seen[m.Missing] = true
			ids = append(ids, m.Missing)
		}
	}
	return ids
}

// CyclicOrDanglingGraphError is returned when dependency resolution stalls.
// Pending holds the records that could not be ordered, in input order.
type CyclicOrDanglingGraphError struct {
	Entity  EntityType
	Pending []any
}

func (e *CyclicOrDanglingGraphError) Error() string {
	return fmt.Sprintf("cannot order %d %s record(s): cyclic or dangling references:\n%s",
		len(e.Pending), e.Entity, pretty(e.Pending))
}

// RemoteOperationError is a failed destination call.
type RemoteOperationError struct {
	Method  string
	URL     string
	Status  int
	Message string
	Payload any
}

func (e *RemoteOperationError) Error() string {
	msg := fmt.Sprintf("%s %s", e.Method, e.URL)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Payload != nil {
		msg += "\n" + pretty(e.Payload)
	}
	return msg
}

// ConfigurationConflictError is returned when a name is both whitelisted and
// blacklisted.
type ConfigurationConflictError struct {
	Overlap []string
}

func (e *ConfigurationConflictError) Error() string {
	return fmt.Sprintf("whitelist and blacklist overlap: %s", pretty(e.Overlap))
}

// InvariantViolationError signals an internal ordering or data bug that the
// engine refuses to paper over.
type InvariantViolationError struct {
	Entity EntityType
	ID     string
	Reason string
}

func (e *InvariantViolationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invariant violated for %s: %s", e.Entity, e.Reason)
	}
	return fmt.Sprintf("invariant violated for %s %q: %s", e.Entity, e.ID, e.Reason)
}
