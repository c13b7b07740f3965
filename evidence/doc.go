// Package evidence implements interfaces.EvidenceProvider for the supported
// hardware generations and the explicit SEV-SNP report encoding.
//
// SnpEvidence serializes to
//
//	{"gen":"milan","report":"<hex report bytes>"}
//
// and TdxEvidence to
//
//	{"quote":"<base64 quote>"}
//
// Neither validates the stored report; that is the broker's job.
//
// SnpReport writes each field of the 0x4A0 byte SEV-SNP attestation report at
// its fixed offset in little-endian order, so reports can be built or
// inspected without reinterpreting memory.
package evidence
