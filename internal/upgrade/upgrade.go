package upgrade

import (
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

// issueKey identifies a generation 0 issue: issues had no id of their own,
// only a key within their project.
type issueKey struct {
	projectID string
	issueFID  string
}

// run holds the state of one Upgrade call. Every step receives it
// explicitly; nothing outlives the call.
type run struct {
	data      map[string]any
	nextIssue int
	issues    map[issueKey]string
	children  map[string]string
	report    Report
}

func newRun(data map[string]any) *run {
	return &run{
		data:      data,
		nextIssue: 1,
		issues:    make(map[issueKey]string),
		children:  make(map[string]string),
		report:    Report{FromVersion: 0},
	}
}

// Upgrade converts a generation 0 document into the current generation. The
// input is not modified. A document that already carries an api_version is
// refused with a SchemaVersionError, so applying Upgrade twice fails instead
// of silently corrupting data.
func Upgrade(doc map[string]any) (*types.Export, Report, error) {
	if marker, ok := doc["api_version"]; ok {
		return nil, Report{}, &types.SchemaVersionError{
			Found:  marker,
			Reason: "document already carries a version marker",
		}
	}
	doc = clone(doc).(map[string]any)
	data, ok := doc["data"].(map[string]any)
	if !ok {
		return nil, Report{}, fmt.Errorf("%w: missing data object", types.ErrInvalidExport)
	}
	if doc["exported_on"] == nil {
		return nil, Report{}, fmt.Errorf("%w: missing exported_on", types.ErrInvalidExport)
	}

	r := newRun(data)
	steps := []func(*run) error{
		normalizeIDs,
		liftTrackerLinks,
		hoistTrackerProjects,
		reclassifyProjects,
		convertActivities,
	}
	for _, step := range steps {
		if err := step(r); err != nil {
			return nil, Report{}, err
		}
	}

	out := map[string]any{
		"exported_on": doc["exported_on"],
		"api_version": types.CurrentAPIVersion,
		"user_id":     idString(doc["user_id"]),
		"data":        data,
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return nil, Report{}, fmt.Errorf("encoding upgraded document: %w", err)
	}
	var export types.Export
	if err := json.Unmarshal(raw, &export); err != nil {
		return nil, Report{}, fmt.Errorf("%w: upgraded document: %v", types.ErrInvalidExport, err)
	}
	return &export, r.report, nil
}

// normalizeIDs turns every numeric id into its decimal string.
func normalizeIDs(r *run) error {
	for _, user := range records(r.data, "users") {
		setID(user, "id")
		for _, link := range objects(user["gitlab_links"]) {
			setID(link, "id")
		}
	}
	for _, org := range records(r.data, "organizations") {
		setID(org, "id")
		for _, member := range objects(org["members"]) {
			setID(member, "user_id")
		}
	}
	for _, subject := range records(r.data, "subjects") {
		setID(subject, "id")
		setID(subject, "organization_id")
		setIDList(subject, "parent_ids")
		setIDList(subject, "ancestor_ids")
		for _, project := range objects(subject["gitlab_projects"]) {
			setID(project, "id")
			setID(project, "link_id")
		}
	}
	for _, location := range records(r.data, "locations") {
		setID(location, "id")
	}
	for _, activity := range records(r.data, "activities") {
		setID(activity, "id")
		setID(activity, "location_id")
		setID(activity, "subject_id")
	}
	return nil
}

// liftTrackerLinks moves every user's gitlab_links into tracker_links.
func liftTrackerLinks(r *run) error {
	for _, user := range records(r.data, "users") {
		links, ok := user["gitlab_links"]
		if !ok {
			continue
		}
		for _, link := range objects(links) {
			link["service"] = "gitlab"
			delete(link, "is_archived")
			appendRecord(r.data, "tracker_links", link)
		}
		delete(user, "gitlab_links")
	}
	return nil
}

// hoistTrackerProjects moves each subject's gitlab_projects into
// tracker_projects and gives every nested issue an id in tracker_issues.
func hoistTrackerProjects(r *run) error {
	for _, subject := range records(r.data, "subjects") {
		projects, ok := subject["gitlab_projects"]
		if !ok {
			continue
		}
		for _, project := range objects(projects) {
			projectID := idString(project["id"])
			fid := idString(project["project_fid"])
			project["subject_id"] = idString(subject["id"])
			project["name"] = fid
			project["key"] = fid
			if archived, ok := project["is_archived"]; ok {
				project["is_hidden"] = truthy(archived)
				delete(project, "is_archived")
			}
			for _, issue := range objects(project["issues"]) {
				r.addIssue(projectID, issue)
			}
			delete(project, "issues")
			delete(project, "project_fid")
			appendRecord(r.data, "tracker_projects", project)
		}
		delete(subject, "gitlab_projects")
	}
	return nil
}

func (r *run) addIssue(projectID string, issue map[string]any) {
	fid := idString(issue["issue_fid"])
	id := fmt.Sprint(r.nextIssue)
	r.nextIssue++
	r.issues[issueKey{projectID: projectID, issueFID: fid}] = id

	hidden := truthy(issue["is_archived"])
	appendRecord(r.data, "tracker_issues", map[string]any{
		"id":         id,
		"project_id": projectID,
		"key":        fid,
		"title":      fid,
		"is_hidden":  hidden,
		"was_used":   true,
	})
}

// reclassifyProjects replaces is_project with kind.
func reclassifyProjects(r *run) error {
	for _, subject := range records(r.data, "subjects") {
		flag, ok := subject["is_project"]
		if !ok {
			continue
		}
		if truthy(flag) {
			subject["kind"] = types.SubjectKindProject
		}
		delete(subject, "is_project")
	}
	return nil
}

// convertActivities rewrites the single subject reference into a list,
// redirecting organization subjects to a private child, and normalizes data.
func convertActivities(r *run) error {
	subjects := make(map[string]map[string]any)
	for _, s := range records(r.data, "subjects") {
		subjects[idString(s["id"])] = s
	}
	orgNames := make(map[string]string)
	for _, o := range records(r.data, "organizations") {
		orgNames[idString(o["id"])] = idString(o["name"])
	}

	for _, activity := range records(r.data, "activities") {
		if sid, ok := activity["subject_id"]; ok {
			target := r.activitySubject(idString(sid), subjects, orgNames)
			activity["subject_ids"] = []any{target}
			delete(activity, "subject_id")
		}
		if raw, ok := activity["data"]; ok {
			data, issueID, err := r.normalizeData(raw)
			if err != nil {
				return fmt.Errorf("activity %s: %w", idString(activity["id"]), err)
			}
			activity["data"] = data
			if issueID != "" {
				activity["issue_id"] = issueID
			}
		}
	}
	return nil
}

// childStrippedFields are dropped from the copy of an organization subject
// because the destination derives them.
var childStrippedFields = []string{
	"ancestor_ids", "activity_count", "activity_start", "activity_end",
	"created_on", "gitlab_projects", "is_project",
}

func (r *run) activitySubject(sid string, subjects map[string]map[string]any, orgNames map[string]string) string {
	subject, ok := subjects[sid]
	if !ok || !types.IsReference(idString(subject["organization_id"])) {
		return sid
	}
	if child, ok := r.children[sid]; ok {
		return child
	}

	child := clone(subject).(map[string]any)
	for _, f := range childStrippedFields {
		delete(child, f)
	}
	name := idString(subject["name"])
	childID := sid + "_child"
	child["id"] = childID
	child["name"] = name + " [private]"
	child["organization_id"] = types.EmptyID
	child["parent_ids"] = []any{sid}
	child["is_hidden"] = true
	appendRecord(r.data, "subjects", child)
	r.children[sid] = childID

	orgID := idString(subject["organization_id"])
	orgName, ok := orgNames[orgID]
	if !ok {
		orgName = orgID
	}
	r.report.Synthetic = append(r.report.Synthetic, SyntheticSubject{
		ID:               childID,
		Name:             name + " [private]",
		ParentID:         sid,
		ParentName:       name,
		OrganizationName: orgName,
	})
	return childID
}
