// Package domain defines the envelope model for the encryption-at-rest transform layer.
//
// An envelope is the self-describing stored representation of an encrypted
// value: a provider identifier naming the algorithm and layout, the identifier
// of the key that produced the payload, and the algorithm-specific payload
// itself. Provider and key identifiers are stored in the clear; only the
// payload is opaque.
package domain

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strings"
)

// Envelope represents an encrypted value in its stored form.
//
// The wire layout is "providerID:keyID:payload" where ':' is the only reserved
// delimiter between the first two fields; provider and key identifiers must not
// contain ':'. The payload is algorithm-specific bytes (for the AEAD providers:
// nonce followed by ciphertext), base64-encoded in the text-safe variant and
// raw in the binary variant.
//
// Fields:
//   - ProviderID: Identifies the transform provider that wrote this envelope
//   - KeyID: Identifies the key the payload was encrypted under
//   - Payload: The algorithm-specific bytes (nonce || ciphertext for AEAD)
type Envelope struct {
	ProviderID string
	KeyID      string
	Payload    []byte
}

// ParseEnvelope parses an envelope from its text-safe string representation.
//
// The input must be in the format "providerID:keyID:payload-base64" with
// non-empty provider and key identifiers. Returns ErrMalformedEnvelope if the
// layout is wrong or the payload is not valid base64.
func ParseEnvelope(content string) (Envelope, error) {
	parts := strings.SplitN(content, ":", 3)
	if len(parts) != 3 {
		return Envelope{}, fmt.Errorf(
			"%w: expected format 'providerID:keyID:payload', got %d parts",
			ErrMalformedEnvelope,
			len(parts),
		)
	}

	if parts[0] == "" {
		return Envelope{}, fmt.Errorf("%w: empty provider id", ErrMalformedEnvelope)
	}
	if parts[1] == "" {
		return Envelope{}, fmt.Errorf("%w: empty key id", ErrMalformedEnvelope)
	}

	payload, err := base64.StdEncoding.DecodeString(parts[2])
	if err != nil {
		return Envelope{}, fmt.Errorf("%w: invalid base64 payload: %v", ErrMalformedEnvelope, err)
	}

	return Envelope{
		ProviderID: parts[0],
		KeyID:      parts[1],
		Payload:    payload,
	}, nil
}

// ParseEnvelopeBytes parses an envelope from its binary representation.
//
// The layout is identical to the text-safe variant except the payload bytes
// are raw; only the first two ':' delimiters are significant, so the payload
// may itself contain ':'.
func ParseEnvelopeBytes(data []byte) (Envelope, error) {
	first := bytes.IndexByte(data, ':')
	if first < 0 {
		return Envelope{}, fmt.Errorf("%w: missing provider delimiter", ErrMalformedEnvelope)
	}
	second := bytes.IndexByte(data[first+1:], ':')
	if second < 0 {
		return Envelope{}, fmt.Errorf("%w: missing key delimiter", ErrMalformedEnvelope)
	}
	second += first + 1

	if first == 0 {
		return Envelope{}, fmt.Errorf("%w: empty provider id", ErrMalformedEnvelope)
	}
	if second == first+1 {
		return Envelope{}, fmt.Errorf("%w: empty key id", ErrMalformedEnvelope)
	}

	payload := make([]byte, len(data)-second-1)
	copy(payload, data[second+1:])

	return Envelope{
		ProviderID: string(data[:first]),
		KeyID:      string(data[first+1 : second]),
		Payload:    payload,
	}, nil
}

// ProviderIDOf extracts the leading provider identifier from a stored envelope
// without parsing the remainder. Used by the chain resolver to dispatch to the
// matching provider before any payload inspection happens.
func ProviderIDOf(data []byte) (string, error) {
	idx := bytes.IndexByte(data, ':')
	if idx <= 0 {
		return "", fmt.Errorf("%w: missing provider id", ErrMalformedEnvelope)
	}
	return string(data[:idx]), nil
}

// String serializes the envelope to its text-safe representation
// "providerID:keyID:payload-base64". Round-trips with ParseEnvelope.
func (e Envelope) String() string {
	return fmt.Sprintf("%s:%s:%s", e.ProviderID, e.KeyID, base64.StdEncoding.EncodeToString(e.Payload))
}

// Bytes serializes the envelope to its binary representation with a raw
// payload. Round-trips with ParseEnvelopeBytes.
func (e Envelope) Bytes() []byte {
	out := make([]byte, 0, len(e.ProviderID)+len(e.KeyID)+len(e.Payload)+2)
	out = append(out, e.ProviderID...)
	out = append(out, ':')
	out = append(out, e.KeyID...)
	out = append(out, ':')
	out = append(out, e.Payload...)
	return out
}
