package evidence

import (
	"encoding/binary"
	"fmt"
)

// SEV-SNP ATTESTATION_REPORT layout.
const (
	SnpReportSize   = 0x4A0
	MeasurementSize = 48
	ReportDataSize  = 64
	SignatureSize   = 0x200

	// DefaultGuestPolicy allows SMT and sets the reserved must-be-one bit.
	DefaultGuestPolicy uint64 = 0x30000
)

const (
	offVersion         = 0x00
	offGuestSvn        = 0x04
	offPolicy          = 0x08
	offFamilyID        = 0x10
	offImageID         = 0x20
	offVmpl            = 0x30
	offSignatureAlgo   = 0x34
	offCurrentTcb      = 0x38
	offPlatformInfo    = 0x40
	offFlags           = 0x48
	offReportData      = 0x50
	offMeasurement     = 0x90
	offHostData        = 0xC0
	offIDKeyDigest     = 0xE0
	offAuthorKeyDigest = 0x110
	offReportID        = 0x140
	offReportIDMA      = 0x160
	offReportedTcb     = 0x180
	offChipID          = 0x1A0
	offCommittedTcb    = 0x1E0
	offCurrentBuild    = 0x1E8
	offCurrentMinor    = 0x1E9
	offCurrentMajor    = 0x1EA
	offCommittedBuild  = 0x1EC
	offCommittedMinor  = 0x1ED
	offCommittedMajor  = 0x1EE
	offLaunchTcb       = 0x1F0
	offSignature       = 0x2A0
)

// SnpReport is an AMD SEV-SNP attestation report. Multi-byte integers are
// little-endian on the wire; reserved ranges are zero.
type SnpReport struct {
	Version         uint32
	GuestSvn        uint32
	Policy          uint64
	FamilyID        [16]byte
	ImageID         [16]byte
	Vmpl            uint32
	SignatureAlgo   uint32
	CurrentTcb      uint64
	PlatformInfo    uint64
	Flags           uint32
	ReportData      [ReportDataSize]byte
	Measurement     [MeasurementSize]byte
	HostData        [32]byte
	IDKeyDigest     [48]byte
	AuthorKeyDigest [48]byte
	ReportID        [32]byte
	ReportIDMA      [32]byte
	ReportedTcb     uint64
	ChipID          [64]byte
	CommittedTcb    uint64
	CurrentBuild    uint8
	CurrentMinor    uint8
	CurrentMajor    uint8
	CommittedBuild  uint8
	CommittedMinor  uint8
	CommittedMajor  uint8
	LaunchTcb       uint64
	Signature       [SignatureSize]byte
}

// MarshalBinary encodes the report into its fixed size wire form.
func (r *SnpReport) MarshalBinary() ([]byte, error) {
	b := make([]byte, SnpReportSize)
	le := binary.LittleEndian

	le.PutUint32(b[offVersion:], r.Version)
	le.PutUint32(b[offGuestSvn:], r.GuestSvn)
	le.PutUint64(b[offPolicy:], r.Policy)
	copy(b[offFamilyID:], r.FamilyID[:])
	copy(b[offImageID:], r.ImageID[:])
	le.PutUint32(b[offVmpl:], r.Vmpl)
	le.PutUint32(b[offSignatureAlgo:], r.SignatureAlgo)
	le.PutUint64(b[offCurrentTcb:], r.CurrentTcb)
	le.PutUint64(b[offPlatformInfo:], r.PlatformInfo)
	le.PutUint32(b[offFlags:], r.Flags)
	copy(b[offReportData:], r.ReportData[:])
	copy(b[offMeasurement:], r.Measurement[:])
	copy(b[offHostData:], r.HostData[:])
	copy(b[offIDKeyDigest:], r.IDKeyDigest[:])
	copy(b[offAuthorKeyDigest:], r.AuthorKeyDigest[:])
	copy(b[offReportID:], r.ReportID[:])
	copy(b[offReportIDMA:], r.ReportIDMA[:])
	le.PutUint64(b[offReportedTcb:], r.ReportedTcb)
	copy(b[offChipID:], r.ChipID[:])
	le.PutUint64(b[offCommittedTcb:], r.CommittedTcb)
	b[offCurrentBuild] = r.CurrentBuild
	b[offCurrentMinor] = r.CurrentMinor
	b[offCurrentMajor] = r.CurrentMajor
	b[offCommittedBuild] = r.CommittedBuild
	b[offCommittedMinor] = r.CommittedMinor
	b[offCommittedMajor] = r.CommittedMajor
	le.PutUint64(b[offLaunchTcb:], r.LaunchTcb)
	copy(b[offSignature:], r.Signature[:])

	return b, nil
}

// UnmarshalBinary decodes a report. Trailing bytes beyond the report size
// are ignored.
func (r *SnpReport) UnmarshalBinary(b []byte) error {
	if len(b) < SnpReportSize {
		return fmt.Errorf("snp report too short: %d bytes, expected %d", len(b), SnpReportSize)
	}
	le := binary.LittleEndian

	r.Version = le.Uint32(b[offVersion:])
	r.GuestSvn = le.Uint32(b[offGuestSvn:])
	r.Policy = le.Uint64(b[offPolicy:])
	copy(r.FamilyID[:], b[offFamilyID:])
	copy(r.ImageID[:], b[offImageID:])
	r.Vmpl = le.Uint32(b[offVmpl:])
	r.SignatureAlgo = le.Uint32(b[offSignatureAlgo:])
	r.CurrentTcb = le.Uint64(b[offCurrentTcb:])
	r.PlatformInfo = le.Uint64(b[offPlatformInfo:])
	r.Flags = le.Uint32(b[offFlags:])
	copy(r.ReportData[:], b[offReportData:])
	copy(r.Measurement[:], b[offMeasurement:])
	copy(r.HostData[:], b[offHostData:])
	copy(r.IDKeyDigest[:], b[offIDKeyDigest:])
	copy(r.AuthorKeyDigest[:], b[offAuthorKeyDigest:])
	copy(r.ReportID[:], b[offReportID:])
	copy(r.ReportIDMA[:], b[offReportIDMA:])
	r.ReportedTcb = le.Uint64(b[offReportedTcb:])
	copy(r.ChipID[:], b[offChipID:])
	r.CommittedTcb = le.Uint64(b[offCommittedTcb:])
	r.CurrentBuild = b[offCurrentBuild]
	r.CurrentMinor = b[offCurrentMinor]
	r.CurrentMajor = b[offCurrentMajor]
	r.CommittedBuild = b[offCommittedBuild]
	r.CommittedMinor = b[offCommittedMinor]
	r.CommittedMajor = b[offCommittedMajor]
	r.LaunchTcb = le.Uint64(b[offLaunchTcb:])
	copy(r.Signature[:], b[offSignature:offSignature+SignatureSize])

	return nil
}
