package accessmask

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrSigningKeyRequired = errors.New("accessmask: signing key is required")

// CredentialClaims is the payload of a derived access credential.
type CredentialClaims struct {
	Mask string `json:"msk"`
	jwt.RegisteredClaims
}

// Signer derives access credentials that bind a key id, a mask and an
// expiry. Identical inputs always produce the identical credential.
type Signer struct {
	codec Codec
	key   []byte
}

func NewSigner(codec Codec, key []byte) (*Signer, error) {
	if len(key) == 0 {
		return nil, ErrSigningKeyRequired
	}
	return &Signer{codec: codec, key: append([]byte(nil), key...)}, nil
}

func (s *Signer) Codec() Codec {
	return s.codec
}

// DeriveCredential signs {jti: keyID, msk: canonical mask, exp}. A zero
// expiry produces a credential without exp.
func (s *Signer) DeriveCredential(keyID string, bits Mask, expiry time.Time) (string, error) {
	if s == nil || len(s.key) == 0 {
		return "", ErrSigningKeyRequired
	}
	keyID = strings.TrimSpace(keyID)
	if keyID == "" {
		return "", fmt.Errorf("accessmask: key id is required")
	}
	claims := CredentialClaims{
		Mask: s.codec.Encode(bits),
		RegisteredClaims: jwt.RegisteredClaims{
			ID: keyID,
		},
	}
	if !expiry.IsZero() {
		claims.ExpiresAt = jwt.NewNumericDate(expiry.UTC().Truncate(time.Second))
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("accessmask: sign credential: %w", err)
	}
	return signed, nil
}

// VerifyCredential checks the signature and expiry of a derived credential
// and decodes its mask.
func (s *Signer) VerifyCredential(credential string) (CredentialClaims, Mask, error) {
	if s == nil || len(s.key) == 0 {
		return CredentialClaims{}, nil, ErrSigningKeyRequired
	}
	claims := &CredentialClaims{}
	_, err := jwt.ParseWithClaims(
		strings.TrimSpace(credential),
		claims,
		func(*jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return CredentialClaims{}, nil, fmt.Errorf("accessmask: verify credential: %w", err)
	}
	bits, err := s.codec.Decode(claims.Mask)
	if err != nil {
		return CredentialClaims{}, nil, err
	}
	return *claims, bits, nil
}
