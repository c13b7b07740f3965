package registration

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
)

// Broker endpoints registrations are posted to.
const (
	WorkloadEndpoint  = "/kbs/v0/register_workload"
	ReferenceEndpoint = "/rvp/registration"
)

// Registrar is a pre-attestation registration payload.
type Registrar interface {
	// Register sets the reference measurement. Calling it again with the
	// same measurement yields the same payload.
	Register(measurement []byte) error

	// Endpoint is the broker path the payload is posted to.
	Endpoint() string
}

// reference is serialized into the "reference" string field.
type reference struct {
	Measurement string `json:"measurement"`
}

func encodeReference(measurement []byte) (string, error) {
	data, err := json.Marshal(reference{Measurement: hex.EncodeToString(measurement)})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MeasurementRegistration registers a bare reference measurement.
type MeasurementRegistration struct {
	Reference string `json:"reference"`
}

var _ Registrar = (*MeasurementRegistration)(nil)

func (r *MeasurementRegistration) Register(measurement []byte) error {
	ref, err := encodeReference(measurement)
	if err != nil {
		return err
	}
	r.Reference = ref
	return nil
}

func (*MeasurementRegistration) Endpoint() string { return ReferenceEndpoint }

// PolicyRegistration registers a workload with its attestation policy, the
// policy queries and the resources released on success.
type PolicyRegistration struct {
	Policy    string   `json:"policy"`
	Queries   []string `json:"queries"`
	Reference string   `json:"reference"`
	Resources string   `json:"resources"`
}

var _ Registrar = (*PolicyRegistration)(nil)

func NewPolicyRegistration(policy string, queries []string, resources string) *PolicyRegistration {
	if queries == nil {
		queries = []string{}
	}
	return &PolicyRegistration{
		Policy:    policy,
		Queries:   queries,
		Resources: resources,
	}
}

// LoadPolicyRegistration reads the policy and resources files verbatim and
// the queries file as a JSON array of strings.
func LoadPolicyRegistration(policyPath, queriesPath, resourcesPath string) (*PolicyRegistration, error) {
	policy, err := os.ReadFile(policyPath)
	if err != nil {
		return nil, fmt.Errorf("could not read policy: %w", err)
	}

	rawQueries, err := os.ReadFile(queriesPath)
	if err != nil {
		return nil, fmt.Errorf("could not read queries: %w", err)
	}
	var queries []string
	if err := json.Unmarshal(rawQueries, &queries); err != nil {
		return nil, fmt.Errorf("could not parse queries: %w", err)
	}

	resources, err := os.ReadFile(resourcesPath)
	if err != nil {
		return nil, fmt.Errorf("could not read resources: %w", err)
	}

	return NewPolicyRegistration(string(policy), queries, string(resources)), nil
}

func (r *PolicyRegistration) Register(measurement []byte) error {
	ref, err := encodeReference(measurement)
	if err != nil {
		return err
	}
	r.Reference = ref
	return nil
}

func (*PolicyRegistration) Endpoint() string { return WorkloadEndpoint }
