package registration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func testMeasurement() []byte {
	m := make([]byte, 48)
	m[0] = 42
	m[47] = 24
	return m
}

const testReference = `{"measurement":"2a0000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000018"}`

func TestMeasurementRegistration(t *testing.T) {
	r := &MeasurementRegistration{}
	require.NoError(t, r.Register(testMeasurement()))
	require.Equal(t, testReference, r.Reference)
	require.Equal(t, ReferenceEndpoint, r.Endpoint())

	doc, err := json.Marshal(r)
	require.NoError(t, err)

	var payload map[string]string
	require.NoError(t, json.Unmarshal(doc, &payload))
	require.Equal(t, map[string]string{"reference": testReference}, payload)

	// Registering the same measurement again yields the same payload.
	require.NoError(t, r.Register(testMeasurement()))
	again, err := json.Marshal(r)
	require.NoError(t, err)
	require.Equal(t, doc, again)
}

func TestPolicyRegistration(t *testing.T) {
	r := NewPolicyRegistration("package policy", []string{"data.policy.allow"}, "secret")
	require.NoError(t, r.Register(testMeasurement()))
	require.Equal(t, WorkloadEndpoint, r.Endpoint())

	doc, err := json.Marshal(r)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"policy": "package policy",
		"queries": ["data.policy.allow"],
		"reference": `+string(mustMarshal(t, testReference))+`,
		"resources": "secret"
	}`, string(doc))
}

func TestPolicyRegistrationWithoutQueries(t *testing.T) {
	r := NewPolicyRegistration("package policy", nil, "secret")
	require.NoError(t, r.Register(testMeasurement()))

	doc, err := json.Marshal(r)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(doc, &fields))
	require.JSONEq(t, `[]`, string(fields["queries"]))
}

func TestLoadPolicyRegistration(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	policy := write("policy.rego", "package policy\n")
	queries := write("queries.json", `["data.policy.allow", "data.policy.deny"]`)
	resources := write("resources.json", `{"key":"value"}`)
	badQueries := write("bad.json", `{"not":"an array"}`)

	r, err := LoadPolicyRegistration(policy, queries, resources)
	require.NoError(t, err)
	require.Equal(t, "package policy\n", r.Policy)
	require.Equal(t, []string{"data.policy.allow", "data.policy.deny"}, r.Queries)
	require.Equal(t, `{"key":"value"}`, r.Resources)
	require.Empty(t, r.Reference)

	_, err = LoadPolicyRegistration(policy, badQueries, resources)
	require.ErrorContains(t, err, "could not parse queries")

	_, err = LoadPolicyRegistration(filepath.Join(dir, "missing"), queries, resources)
	require.ErrorContains(t, err, "could not read policy")

	_, err = LoadPolicyRegistration(policy, queries, filepath.Join(dir, "missing"))
	require.ErrorContains(t, err, "could not read resources")
}

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return data
}
