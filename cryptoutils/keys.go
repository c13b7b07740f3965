package cryptoutils

import (
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// ReportDataSize is the size of the caller supplied report data field of a
// hardware attestation report.
const ReportDataSize = sha512.Size

// EncodeKey encodes an unsigned big integer (an RSA modulus or exponent) as
// the minimal big-endian byte sequence in unpadded base64url. Zero encodes as
// a single zero byte.
func EncodeKey(i *big.Int) (string, error) {
	if i == nil {
		return "", fmt.Errorf("%w: nil integer", interfaces.ErrEncoding)
	}
	if i.Sign() < 0 {
		return "", fmt.Errorf("%w: negative integer %s", interfaces.ErrEncoding, i.String())
	}

	b := i.Bytes()
	if len(b) == 0 {
		b = []byte{0}
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeKey is the inverse of EncodeKey.
func DecodeKey(s string) (*big.Int, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid key encoding: %w", interfaces.ErrEncoding, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty key encoding", interfaces.ErrEncoding)
	}
	return new(big.Int).SetBytes(b), nil
}

// ReportData binds the broker nonce and the session public key into the
// report data of a hardware attestation report. The digest is SHA-512 over
// the nonce, the encoded modulus and the encoded exponent, in that order.
func ReportData(nonce, encodedN, encodedE string) [ReportDataSize]byte {
	h := sha512.New()
	h.Write([]byte(nonce))
	h.Write([]byte(encodedN))
	h.Write([]byte(encodedE))

	var reportData [ReportDataSize]byte
	copy(reportData[:], h.Sum(nil))
	return reportData
}
