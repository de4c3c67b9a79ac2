package upgrade

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// Legacy clients wrote comments as a hand-built JSON string that is not
// always valid JSON (unescaped quotes inside the comment).
const (
	legacyCommentPrefix = `{"comment":"`
	legacyCommentSuffix = `"}`
)

// normalizeData converts generation 0 activity data into an object. It also
// returns the issue id when the data embedded an issue reference.
func (r *run) normalizeData(raw any) (any, string, error) {
	switch v := raw.(type) {
	case map[string]any:
		issue, ok := v["issue"]
		if !ok {
			return v, "", nil
		}
		id, err := r.resolveIssue(issue)
		if err != nil {
			return nil, "", err
		}
		delete(v, "issue")
		return v, id, nil
	case string:
		return normalizeStringData(v), "", nil
	default:
		return map[string]any{"original_data": v}, "", nil
	}
}

func (r *run) resolveIssue(issue any) (string, error) {
	ref, ok := issue.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: %v", types.ErrUnknownIssueReference, issue)
	}
	key := issueKey{
		projectID: idString(ref["project_id"]),
		issueFID:  idString(ref["issue_fid"]),
	}
	id, ok := r.issues[key]
	if !ok {
		return "", fmt.Errorf("%w: project %s issue %s", types.ErrUnknownIssueReference, key.projectID, key.issueFID)
	}
	return id, nil
}

func normalizeStringData(s string) map[string]any {
	if decoded, ok := decodeJSONString(s); ok {
		if obj, ok := decoded.(map[string]any); ok {
			if comment, ok := obj["comment"]; ok {
				return map[string]any{"comment": comment}
			}
		}
		return map[string]any{"original_data": decoded}
	}
	if len(s) >= len(legacyCommentPrefix)+len(legacyCommentSuffix) &&
		strings.HasPrefix(s, legacyCommentPrefix) && strings.HasSuffix(s, legacyCommentSuffix) {
		return map[string]any{"comment": s[len(legacyCommentPrefix) : len(s)-len(legacyCommentSuffix)]}
	}
	return map[string]any{"original_data": s}
}

func decodeJSONString(s string) (any, bool) {
	if !json.Valid([]byte(s)) {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}
	return v, true
}
