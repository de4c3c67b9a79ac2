// Package upgrade converts exports between schema generations.
//
// Generation 0 exports carry no api_version member, use numeric ids, nest
// GitLab links under users and GitLab projects under subjects, and store
// activity data in several ad hoc shapes. Upgrade rewrites such a document
// into the current generation; Load does so on the fly when reading a file.
package upgrade

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// DetectVersion returns the schema generation of a decoded export document.
// A missing api_version means generation 0.
func DetectVersion(doc map[string]any) (int, error) {
	raw, ok := doc["api_version"]
	if !ok {
		return 0, nil
	}
	if n, ok := raw.(json.Number); ok {
		if v, err := n.Int64(); err == nil && v == types.CurrentAPIVersion {
			return types.CurrentAPIVersion, nil
		}
	}
	return 0, &types.SchemaVersionError{
		Found:  raw,
		Reason: "only exports of version 0 and 1 are supported",
	}
}

// Load decodes an export file. Generation 0 documents are upgraded. When
// requireUpgrade is set a document that is already current is refused.
func Load(data []byte, requireUpgrade bool) (*types.Export, Report, error) {
	doc, err := decodeDocument(data)
	if err != nil {
		return nil, Report{}, err
	}
	version, err := DetectVersion(doc)
	if err != nil {
		return nil, Report{}, err
	}
	if version == types.CurrentAPIVersion {
		if requireUpgrade {
			return nil, Report{}, &types.SchemaVersionError{
				Found:  version,
				Reason: "only data exported by version 0 can be upgraded",
			}
		}
		var export types.Export
		if err := json.Unmarshal(data, &export); err != nil {
			return nil, Report{}, fmt.Errorf("%w: %v", types.ErrInvalidExport, err)
		}
		return &export, Report{FromVersion: version}, nil
	}
	return Upgrade(doc)
}

// decodeDocument decodes data into a generic object, keeping numbers as
// json.Number so ids are never reformatted.
func decodeDocument(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidExport, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document is not an object", types.ErrInvalidExport)
	}
	return doc, nil
}
