package upgrade

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/beaverport/pkg/types"
)

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "v0.json"))
	require.NoError(t, err)
	return data
}

func upgradeFixture(t *testing.T) (*types.Export, Report) {
	t.Helper()
	export, report, err := Load(loadFixture(t), true)
	require.NoError(t, err)
	return export, report
}

func activity(t *testing.T, e *types.Export, id string) types.Activity {
	t.Helper()
	for _, a := range e.Data.Activities {
		if a.ID == id {
			return a
		}
	}
	t.Fatalf("activity %s not found", id)
	return types.Activity{}
}

func subject(t *testing.T, e *types.Export, id string) types.Subject {
	t.Helper()
	for _, s := range e.Data.Subjects {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("subject %s not found", id)
	return types.Subject{}
}

func TestDetectVersion(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    int
		wantErr bool
	}{
		{name: "no marker", doc: `{}`, want: 0},
		{name: "current", doc: `{"api_version": 1}`, want: 1},
		{name: "future", doc: `{"api_version": 2}`, wantErr: true},
		{name: "string marker", doc: `{"api_version": "1"}`, wantErr: true},
		{name: "null marker", doc: `{"api_version": null}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := decodeDocument([]byte(tt.doc))
			require.NoError(t, err)
			got, err := DetectVersion(doc)
			if tt.wantErr {
				var verr *types.SchemaVersionError
				assert.ErrorAs(t, err, &verr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUpgradeEnvelope(t *testing.T) {
	export, report := upgradeFixture(t)
	assert.Equal(t, types.CurrentAPIVersion, export.Version())
	assert.Equal(t, "7", export.UserID)
	assert.Equal(t, "2019-11-02T08:15:00.250Z", export.ExportedOn.String())
	assert.Equal(t, 0, report.FromVersion)
}

func TestUpgradeRefusesVersionedDocument(t *testing.T) {
	export, _ := upgradeFixture(t)
	raw, err := json.Marshal(export)
	require.NoError(t, err)

	doc, err := decodeDocument(raw)
	require.NoError(t, err)
	_, _, err = Upgrade(doc)
	var verr *types.SchemaVersionError
	require.ErrorAs(t, err, &verr)

	_, _, err = Load(raw, true)
	assert.ErrorAs(t, err, &verr)

	again, _, err := Load(raw, false)
	require.NoError(t, err)
	assert.Len(t, again.Data.Activities, len(export.Data.Activities))
}

func TestUpgradeDoesNotModifyInput(t *testing.T) {
	doc, err := decodeDocument(loadFixture(t))
	require.NoError(t, err)
	before, err := json.Marshal(doc)
	require.NoError(t, err)

	_, _, err = Upgrade(doc)
	require.NoError(t, err)

	after, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, string(before), string(after))
}

func TestUpgradeNormalizesIDs(t *testing.T) {
	export, _ := upgradeFixture(t)
	s := subject(t, export, "11")
	assert.Equal(t, types.EmptyID, s.OrganizationID)
	assert.Equal(t, []string{"1"}, s.ParentIDs)

	var ancestors []string
	ok, err := s.Extra.Get("ancestor_ids", &ancestors)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"1"}, ancestors)

	require.Len(t, export.Data.Organizations, 1)
	assert.Equal(t, "5", export.Data.Organizations[0].ID)
	assert.Equal(t, "7", export.Data.Organizations[0].Members[0].UserID)
	assert.Equal(t, "4", export.Data.Locations[0].ID)
}

func TestUpgradeLiftsTrackerLinks(t *testing.T) {
	export, _ := upgradeFixture(t)
	require.Len(t, export.Data.TrackerLinks, 1)
	link := export.Data.TrackerLinks[0]
	assert.Equal(t, "2", link.ID)
	assert.Equal(t, "gitlab", link.Service)
	assert.NotContains(t, link.Extra, "is_archived")
	assert.Contains(t, link.Extra, "token")
	assert.NotContains(t, export.Data.Users[0].Extra, "gitlab_links")
}

func TestUpgradeHoistsProjectsAndIssues(t *testing.T) {
	export, _ := upgradeFixture(t)
	require.Len(t, export.Data.TrackerProjects, 1)
	p := export.Data.TrackerProjects[0]
	assert.Equal(t, "3", p.ID)
	assert.Equal(t, "2", p.LinkID)
	assert.Equal(t, "1", p.Subject())
	assert.Equal(t, "99", p.Key)
	assert.Equal(t, "99", p.Name)
	assert.True(t, p.IsHidden)
	assert.NotContains(t, p.Extra, "issues")
	assert.NotContains(t, p.Extra, "project_fid")

	require.Len(t, export.Data.TrackerIssues, 2)
	assert.Equal(t, types.TrackerIssue{ID: "1", ProjectID: "3", Key: "41", Title: "41", IsHidden: false, WasUsed: true}, export.Data.TrackerIssues[0])
	assert.Equal(t, "2", export.Data.TrackerIssues[1].ID)
	assert.True(t, export.Data.TrackerIssues[1].IsHidden)

	assert.NotContains(t, subject(t, export, "1").Extra, "gitlab_projects")
}

func TestUpgradeReclassifiesProjects(t *testing.T) {
	export, _ := upgradeFixture(t)
	assert.Equal(t, types.SubjectKindProject, subject(t, export, "1").Kind)
	backend := subject(t, export, "11")
	assert.Equal(t, types.SubjectKindPlain, backend.Kind)
	assert.NotContains(t, backend.Extra, "is_project")
}

func TestUpgradeRedirectsOrganizationSubjects(t *testing.T) {
	export, report := upgradeFixture(t)

	child := subject(t, export, "10_child")
	assert.Equal(t, "Support [private]", child.Name)
	assert.Equal(t, types.EmptyID, child.OrganizationID)
	assert.Equal(t, []string{"10"}, child.ParentIDs)
	assert.True(t, child.IsPrivate())
	assert.Contains(t, child.Extra, "color")
	assert.JSONEq(t, "true", string(child.Extra["is_hidden"]))
	for _, f := range childStrippedFields {
		assert.NotContains(t, child.Extra, f)
	}

	assert.Equal(t, []string{"10_child"}, activity(t, export, "100").SubjectIDs)
	assert.Equal(t, []string{"10_child"}, activity(t, export, "102").SubjectIDs)
	assert.Equal(t, []string{"11"}, activity(t, export, "103").SubjectIDs)

	require.Len(t, report.Synthetic, 1, "one child per organization subject")
	assert.Equal(t, SyntheticSubject{
		ID:               "10_child",
		Name:             "Support [private]",
		ParentID:         "10",
		ParentName:       "Support",
		OrganizationName: "Acme",
	}, report.Synthetic[0])
	assert.Contains(t, report.Synthetic[0].Note(), `"Acme :: Support"`)
}

func TestUpgradeNormalizesActivityData(t *testing.T) {
	export, _ := upgradeFixture(t)

	tests := []struct {
		id   string
		want string
	}{
		{id: "100", want: `{"comment":"called \"Bob\""}`},
		{id: "101", want: `{"comment":"fixed"}`},
		{id: "102", want: `{"comment":"valid json"}`},
		{id: "103", want: `{"original_data":"just text"}`},
		{id: "104", want: `{"original_data":7}`},
		{id: "105", want: `{"original_data":[1,2]}`},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			a := activity(t, export, tt.id)
			require.NotNil(t, a.Data)
			got, err := json.Marshal(a.Data)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}

	assert.Equal(t, "2", activity(t, export, "101").IssueID)
	assert.Nil(t, activity(t, export, "106").Data)
}

func TestNormalizeStringData(t *testing.T) {
	tests := []struct {
		in   string
		want map[string]any
	}{
		{in: `{"comment":"abc"}`, want: map[string]any{"comment": "abc"}},
		{in: `{"comment":"say "hi""}`, want: map[string]any{"comment": `say "hi"`}},
		{in: `not json`, want: map[string]any{"original_data": "not json"}},
		{in: `{"other":1}`, want: map[string]any{"original_data": map[string]any{"other": json.Number("1")}}},
		{in: `"quoted"`, want: map[string]any{"original_data": "quoted"}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, normalizeStringData(tt.in))
		})
	}
}

func TestUpgradeUnknownIssueReference(t *testing.T) {
	doc, err := decodeDocument([]byte(`{
		"exported_on": "2019-11-02T08:15:00.250Z",
		"user_id": 1,
		"data": {
			"subjects": [{"id": 1, "name": "A", "organization_id": 0, "parent_ids": []}],
			"activities": [{"id": 1, "subject_id": 1, "location_id": 0, "data": {"issue": {"project_id": 9, "issue_fid": 1}}}]
		}
	}`))
	require.NoError(t, err)
	_, _, err = Upgrade(doc)
	assert.ErrorIs(t, err, types.ErrUnknownIssueReference)
}

func TestUpgradeNumericArchiveFlags(t *testing.T) {
	doc, err := decodeDocument([]byte(`{
		"exported_on": "2019-11-02T08:15:00.250Z",
		"user_id": 1,
		"data": {
			"subjects": [{"id": 1, "name": "A", "organization_id": 0, "parent_ids": [], "is_project": 1,
				"gitlab_projects": [{"id": 3, "link_id": 2, "project_fid": 99, "is_archived": 0,
					"issues": [{"issue_fid": 41, "is_archived": 0}, {"issue_fid": 42, "is_archived": 1}]}]}]
		}
	}`))
	require.NoError(t, err)
	export, _, err := Upgrade(doc)
	require.NoError(t, err)

	require.Len(t, export.Data.TrackerProjects, 1)
	assert.False(t, export.Data.TrackerProjects[0].IsHidden)
	require.Len(t, export.Data.TrackerIssues, 2)
	assert.False(t, export.Data.TrackerIssues[0].IsHidden)
	assert.True(t, export.Data.TrackerIssues[1].IsHidden)
	assert.Equal(t, types.SubjectKindProject, subject(t, export, "1").Kind)
}

func TestUpgradeRequiresExportDate(t *testing.T) {
	for _, in := range []string{
		`{"user_id": 1, "data": {}}`,
		`{"exported_on": null, "user_id": 1, "data": {}}`,
	} {
		_, _, err := Load([]byte(in), false)
		assert.ErrorIs(t, err, types.ErrInvalidExport, "input %q", in)
	}
}

func TestTruthy(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{nil, false},
		{true, true},
		{false, false},
		{json.Number("0"), false},
		{json.Number("1"), true},
		{json.Number("0.0"), false},
		{float64(2), true},
		{"", false},
		{"0", false},
		{"false", false},
		{"yes", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, truthy(tt.in), "truthy(%#v)", tt.in)
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	for _, in := range []string{``, `null`, `[1]`, `{"data": 5}`} {
		_, _, err := Load([]byte(in), false)
		assert.ErrorIs(t, err, types.ErrInvalidExport, "input %q", in)
	}
}
