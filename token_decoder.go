package authclient

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// CredentialDecoder extracts claims from a credential without verifying it.
type CredentialDecoder interface {
	Decode(token string) (*Claims, error)
}

// CredentialDecoderFunc adapts a function into a CredentialDecoder.
type CredentialDecoderFunc func(token string) (*Claims, error)

// Decode satisfies the CredentialDecoder interface.
func (f CredentialDecoderFunc) Decode(token string) (*Claims, error) {
	if f == nil {
		return nil, malformed("no decoder", nil)
	}
	return f(token)
}

// TokenDecoder parses compact three segment credentials. The header and
// signature segments are only checked for presence: the client never verifies
// authenticity, so decoded claims are display hints and nothing more.
type TokenDecoder struct {
	parser *jwt.Parser
}

var _ CredentialDecoder = (*TokenDecoder)(nil)

// NewTokenDecoder returns a decoder that accepts padded and unpadded base64url.
func NewTokenDecoder() *TokenDecoder {
	return &TokenDecoder{parser: jwt.NewParser(jwt.WithPaddingAllowed())}
}

// Decode returns the payload claims or an ErrMalformedCredential.
func (d *TokenDecoder) Decode(token string) (*Claims, error) {
	segments := strings.Split(token, ".")
	if len(segments) != 3 {
		return nil, malformed("credential must have three segments", nil)
	}
	for _, seg := range segments {
		if seg == "" {
			return nil, malformed("credential has an empty segment", nil)
		}
	}

	payload, err := d.parser.DecodeSegment(segments[1])
	if err != nil {
		return nil, malformed("payload is not base64url", err)
	}

	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || payload[0] != '{' || !json.Valid(payload) {
		return nil, malformed("payload is not a JSON object", nil)
	}

	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, malformed("payload claims", err)
	}
	return claims, nil
}

// DecodeCredential decodes token with a default TokenDecoder.
func DecodeCredential(token string) (*Claims, error) {
	return NewTokenDecoder().Decode(token)
}
