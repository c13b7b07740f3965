package evidence

import (
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// ProtocolVersion is the broker protocol version announced in requests.
const ProtocolVersion = "0.1.0"

// SnpGeneration identifies the AMD processor generation producing the report.
type SnpGeneration int

const (
	Milan SnpGeneration = iota
	Genoa
)

func (g SnpGeneration) String() string {
	switch g {
	case Milan:
		return "milan"
	case Genoa:
		return "genoa"
	default:
		return fmt.Sprintf("SnpGeneration(%d)", int(g))
	}
}

// ParseSnpGeneration parses the lowercase generation name.
func ParseSnpGeneration(s string) (SnpGeneration, error) {
	switch s {
	case "milan":
		return Milan, nil
	case "genoa":
		return Genoa, nil
	default:
		return 0, fmt.Errorf("unknown snp generation %q", s)
	}
}

// SnpAttestation is the SNP evidence document.
type SnpAttestation struct {
	Gen    string `json:"gen"`
	Report string `json:"report"`
}

// SnpEvidence is the EvidenceProvider for AMD SEV-SNP guests.
type SnpEvidence struct {
	attestation SnpAttestation
}

var _ interfaces.EvidenceProvider = (*SnpEvidence)(nil)

func NewSnpEvidence(gen SnpGeneration) *SnpEvidence {
	return &SnpEvidence{
		attestation: SnpAttestation{Gen: gen.String()},
	}
}

func (*SnpEvidence) Version() string { return ProtocolVersion }

func (*SnpEvidence) Tee() interfaces.Tee { return interfaces.TeeSNP }

// ExtraParams is the JSON empty string.
func (*SnpEvidence) ExtraParams() json.RawMessage { return json.RawMessage(`""`) }

func (e *SnpEvidence) UpdateReport(report []byte) {
	e.attestation.Report = hex.EncodeToString(report)
}

// Evidence returns {"gen": ..., "report": hex(report)}. Before UpdateReport
// the report is the empty string.
func (e *SnpEvidence) Evidence() (json.RawMessage, error) {
	return json.Marshal(e.attestation)
}
