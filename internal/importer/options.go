package importer

import (
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Options tune an import.
type Options struct {
	// ParentIDMap rewrites subject parent ids before ordering. A nil target
	// removes the parent. Targets are treated as subjects that already exist
	// on the destination.
	ParentIDMap map[string]*string

	// Whitelist, when not empty, keeps only top-level private subjects with
	// one of these names. Blacklist drops top-level private subjects with
	// one of these names. Dropping a subject drops its descendants.
	Whitelist []string
	Blacklist []string

	Logger logrus.FieldLogger
}

// Validate rejects names that are both white- and blacklisted.
func (o Options) Validate() error {
	white := make(map[string]bool, len(o.Whitelist))
	for _, name := range o.Whitelist {
		white[name] = true
	}
	seen := make(map[string]bool)
	var overlap []string
	for _, name := range o.Blacklist {
		if white[name] && !seen[name] {
			seen[name] = true
			overlap = append(overlap, name)
		}
	}
	if len(overlap) > 0 {
		sort.Strings(overlap)
		return &types.ConfigurationConflictError{Overlap: overlap}
	}
	return nil
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// nameFilter decides which top-level subjects take part in an import.
type nameFilter struct {
	white map[string]bool
	black map[string]bool
}

func newNameFilter(o Options) nameFilter {
	f := nameFilter{white: map[string]bool{}, black: map[string]bool{}}
	for _, n := range o.Whitelist {
		f.white[n] = true
	}
	for _, n := range o.Blacklist {
		f.black[n] = true
	}
	return f
}

func (f nameFilter) keep(name string) bool {
	if len(f.white) > 0 && !f.white[name] {
		return false
	}
	return !f.black[name]
}
