package cryptoutils

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-jose/go-jose/v4"
	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwe"
	"github.com/ruteri/tee-keybroker-client/interfaces"
)

// Key management algorithms accepted in the protected header of a released
// secret.
var supportedKeyAlgorithms = map[string]jwa.KeyEncryptionAlgorithm{
	string(jwa.RSA_OAEP):     jwa.RSA_OAEP,
	string(jwa.RSA_OAEP_256): jwa.RSA_OAEP_256,
}

type protectedHeader struct {
	Alg string `json:"alg"`
	Enc string `json:"enc"`
}

// ParseJweEnvelope decodes a JWE envelope and checks that every part is
// present.
func ParseJweEnvelope(data []byte) (*interfaces.JweEnvelope, error) {
	var envelope interfaces.JweEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: could not parse envelope: %w", interfaces.ErrDecryption, err)
	}

	switch {
	case envelope.Protected == "":
		return nil, fmt.Errorf("%w: missing protected header", interfaces.ErrDecryption)
	case envelope.EncryptedKey == "":
		return nil, fmt.Errorf("%w: missing encrypted key", interfaces.ErrDecryption)
	case envelope.IV == "":
		return nil, fmt.Errorf("%w: missing iv", interfaces.ErrDecryption)
	case envelope.Tag == "":
		return nil, fmt.Errorf("%w: missing authentication tag", interfaces.ErrDecryption)
	}

	return &envelope, nil
}

// DecryptSecret unwraps the content encryption key of the envelope with
// RSA-OAEP under privateKey and authenticates and decrypts the ciphertext.
// The key management algorithm is taken from the protected header.
func DecryptSecret(privateKey *rsa.PrivateKey, envelope *interfaces.JweEnvelope) ([]byte, error) {
	if privateKey == nil {
		return nil, fmt.Errorf("%w: no private key", interfaces.ErrDecryption)
	}

	rawHeader, err := base64.RawURLEncoding.DecodeString(envelope.Protected)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid protected header encoding: %w", interfaces.ErrDecryption, err)
	}

	var header protectedHeader
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return nil, fmt.Errorf("%w: invalid protected header: %w", interfaces.ErrDecryption, err)
	}

	alg, ok := supportedKeyAlgorithms[header.Alg]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported key algorithm %q", interfaces.ErrDecryption, header.Alg)
	}
	if header.Enc == "" {
		return nil, fmt.Errorf("%w: missing content encryption algorithm", interfaces.ErrDecryption)
	}

	compact := strings.Join([]string{
		envelope.Protected,
		envelope.EncryptedKey,
		envelope.IV,
		envelope.Ciphertext,
		envelope.Tag,
	}, ".")

	plaintext, err := jwe.Decrypt([]byte(compact), jwe.WithKey(alg, privateKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", interfaces.ErrDecryption, err)
	}

	return plaintext, nil
}

// EncryptSecret wraps secret into a JWE envelope for publicKey using
// RSA-OAEP-256 and A256GCM, the way the broker releases resources.
func EncryptSecret(publicKey *rsa.PublicKey, secret []byte) (*interfaces.JweEnvelope, error) {
	if publicKey == nil {
		return nil, errors.New("no public key")
	}

	encrypter, err := jose.NewEncrypter(jose.A256GCM, jose.Recipient{
		Algorithm: jose.RSA_OAEP_256,
		Key:       publicKey,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create encrypter: %w", err)
	}

	object, err := encrypter.Encrypt(secret)
	if err != nil {
		return nil, fmt.Errorf("could not encrypt secret: %w", err)
	}

	compact, err := object.CompactSerialize()
	if err != nil {
		return nil, fmt.Errorf("could not serialize envelope: %w", err)
	}

	parts := strings.Split(compact, ".")
	if len(parts) != 5 {
		return nil, fmt.Errorf("unexpected compact serialization with %d parts", len(parts))
	}

	return &interfaces.JweEnvelope{
		Protected:    parts[0],
		EncryptedKey: parts[1],
		IV:           parts[2],
		Ciphertext:   parts[3],
		Tag:          parts[4],
	}, nil
}
