package evidence

import (
	"encoding/base64"
	"encoding/json"

	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// TdxAttestation is the TDX evidence document.
type TdxAttestation struct {
	CCEventLog string `json:"cc_eventlog,omitempty"`
	Quote      string `json:"quote"`
}

// TdxEvidence is the EvidenceProvider for Intel TDX guests. The report is a
// raw DCAP quote.
type TdxEvidence struct {
	attestation TdxAttestation
}

var _ interfaces.EvidenceProvider = (*TdxEvidence)(nil)

func NewTdxEvidence() *TdxEvidence {
	return &TdxEvidence{}
}

func (*TdxEvidence) Version() string { return ProtocolVersion }

func (*TdxEvidence) Tee() interfaces.Tee { return interfaces.TeeTDX }

func (*TdxEvidence) ExtraParams() json.RawMessage { return json.RawMessage(`""`) }

func (e *TdxEvidence) UpdateReport(quote []byte) {
	e.attestation.Quote = base64.StdEncoding.EncodeToString(quote)
}

// SetEventLog attaches a base64 encoded CC event log to the evidence.
func (e *TdxEvidence) SetEventLog(eventLog []byte) {
	if len(eventLog) == 0 {
		e.attestation.CCEventLog = ""
		return
	}
	e.attestation.CCEventLog = base64.StdEncoding.EncodeToString(eventLog)
}

func (e *TdxEvidence) Evidence() (json.RawMessage, error) {
	return json.Marshal(e.attestation)
}
