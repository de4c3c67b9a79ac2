package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimestampFormat(t *testing.T) {
	ts := NewTimestamp(time.Date(2021, 3, 4, 5, 6, 7, 891234567, time.FixedZone("x", 3600)))
	out, err := json.Marshal(ts)
	require.NoError(t, err)
	assert.Equal(t, `"2021-03-04T04:06:07.891Z"`, string(out))

	var back Timestamp
	require.NoError(t, json.Unmarshal(out, &back))
	assert.True(t, ts.Equal(back.Time))
}

func TestTimestampAcceptsRFC3339(t *testing.T) {
	var ts Timestamp
	require.NoError(t, json.Unmarshal([]byte(`"2021-03-04T04:06:07+02:00"`), &ts))
	assert.Equal(t, "2021-03-04T02:06:07.000Z", ts.String())
}

func TestExportVersion(t *testing.T) {
	var e Export
	require.NoError(t, json.Unmarshal([]byte(`{"exported_on":"2020-01-01T00:00:00.000Z","user_id":"u","data":{}}`), &e))
	assert.Equal(t, 0, e.Version())

	require.NoError(t, json.Unmarshal([]byte(`{"exported_on":"2020-01-01T00:00:00.000Z","api_version":1,"user_id":"u","data":{}}`), &e))
	assert.Equal(t, CurrentAPIVersion, e.Version())
}

func TestExportRoundTripKeepsUnknownCollections(t *testing.T) {
	in := `{
		"exported_on": "2020-01-01T00:00:00.000Z",
		"api_version": 1,
		"user_id": "u1",
		"data": {
			"users": [{"id": "u1", "email": "me@example.test"}],
			"organizations": [],
			"subjects": [{"id": "s1", "name": "Work", "organization_id": "0", "parent_ids": [], "color": "#fff"}],
			"locations": [],
			"tracker_links": [],
			"tracker_projects": [],
			"tracker_issues": [],
			"activities": [],
			"reports": [{"id": "r1"}],
			"widgets": [{"id": "w1"}]
		}
	}`
	var e Export
	require.NoError(t, json.Unmarshal([]byte(in), &e))
	require.Len(t, e.Data.Subjects, 1)
	assert.True(t, e.Data.Subjects[0].IsPrivate())
	assert.Contains(t, e.Data.Extra, "widgets")

	out, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, in, string(out))
}

func TestCollectionsSet(t *testing.T) {
	var c Collections
	require.NoError(t, c.Set("locations", []json.RawMessage{json.RawMessage(`{"id":"l1","name":"Home"}`)}))
	require.Len(t, c.Locations, 1)
	assert.Equal(t, "Home", c.Locations[0].Name)

	require.NoError(t, c.Set("gadgets", []json.RawMessage{json.RawMessage(`{"id":"g"}`)}))
	assert.JSONEq(t, `[{"id":"g"}]`, string(c.Extra["gadgets"]))

	err := c.Set("subjects", []json.RawMessage{json.RawMessage(`{"id":5}`)})
	assert.Error(t, err)
}

func TestRecordsKeepZeroValuedFields(t *testing.T) {
	tests := []struct {
		name   string
		record any
		in     string
	}{
		{
			name:   "issue with empty title and unused",
			record: &TrackerIssue{},
			in:     `{"id":"1","project_id":"2","key":"k","title":"","is_hidden":false,"was_used":false}`,
		},
		{
			name:   "project with empty name",
			record: &TrackerProject{},
			in:     `{"id":"3","link_id":"4","subject_id":"0","key":"k","name":"","is_hidden":false}`,
		},
		{
			name:   "project without subject",
			record: &TrackerProject{},
			in:     `{"id":"3","link_id":"4","key":"k","name":"P","is_hidden":true}`,
		},
		{
			name:   "link with empty name",
			record: &TrackerLink{},
			in:     `{"id":"5","service":"gitlab","name":""}`,
		},
		{
			name:   "link without name",
			record: &TrackerLink{},
			in:     `{"id":"5","service":"gitlab","token":"t"}`,
		},
		{
			name:   "location with null coordinates",
			record: &Location{},
			in:     `{"id":"6","name":"","coordinates":null}`,
		},
		{
			name:   "location without coordinates",
			record: &Location{},
			in:     `{"id":"6","name":"Home"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, json.Unmarshal([]byte(tt.in), tt.record))
			out, err := json.Marshal(tt.record)
			require.NoError(t, err)
			assert.JSONEq(t, tt.in, string(out))
		})
	}
}
