// Package security seals credential secrets (refresh tokens, access tokens,
// verification codes) before they reach the account row.
package security

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-accountsync/core"
)

type Option func(*TokenCipher)

type cipherKey struct {
	id      string
	version int
	key     []byte
	window  KeyRotationWindow
}

func (k cipherKey) label() string {
	return k.id + ":" + strconv.Itoa(k.version)
}

// TokenCipher is an AES-GCM core.SecretProvider keyed by application key
// material. It seals with the active key and opens with the active key or
// any retired key whose rotation window still allows it.
type TokenCipher struct {
	active  cipherKey
	retired []cipherKey
	now     func() time.Time
}

func WithKeyID(id string) Option {
	return func(c *TokenCipher) {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			c.active.id = trimmed
		}
	}
}

func WithVersion(version int) Option {
	return func(c *TokenCipher) {
		if version > 0 {
			c.active.version = version
		}
	}
}

// WithRetiredKey keeps an older key available for Decrypt during rotation.
func WithRetiredKey(id string, version int, keyMaterial []byte, window KeyRotationWindow) Option {
	return func(c *TokenCipher) {
		material := bytes.TrimSpace(keyMaterial)
		if len(material) == 0 || version <= 0 {
			return
		}
		c.retired = append(c.retired, cipherKey{
			id:      strings.TrimSpace(id),
			version: version,
			key:     normalizeKey(material),
			window:  window,
		})
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *TokenCipher) {
		if now != nil {
			c.now = now
		}
	}
}

func NewTokenCipher(keyMaterial []byte, opts ...Option) (*TokenCipher, error) {
	material := bytes.TrimSpace(keyMaterial)
	if len(material) == 0 {
		return nil, fmt.Errorf("security: key material is required")
	}
	c := &TokenCipher{
		active: cipherKey{id: "app-key", version: 1, key: normalizeKey(material)},
		now:    time.Now,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	for _, retired := range c.retired {
		if retired.id == c.active.id && retired.version == c.active.version {
			return nil, fmt.Errorf("security: retired key %s collides with the active key", retired.label())
		}
	}
	return c, nil
}

func NewTokenCipherFromString(key string, opts ...Option) (*TokenCipher, error) {
	return NewTokenCipher([]byte(key), opts...)
}

func (c *TokenCipher) Encrypt(_ context.Context, plaintext []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("security: token cipher is nil")
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("security: plaintext is required")
	}
	gcm, err := newGCM(c.active.key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("security: nonce generation failed: %w", err)
	}
	// The key label is authenticated so a swapped kid/ver fails to open.
	sealed := gcm.Seal(nil, nonce, plaintext, []byte(c.active.label()))
	return encodeEnvelope(envelope{
		KeyID:      c.active.id,
		Version:    c.active.version,
		Algorithm:  envelopeAlgorithm,
		Nonce:      encodePayload(nonce),
		Ciphertext: encodePayload(sealed),
	})
}

func (c *TokenCipher) Decrypt(_ context.Context, ciphertext []byte) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("security: token cipher is nil")
	}
	parsed, err := decodeEnvelope(ciphertext)
	if err != nil {
		return nil, err
	}
	key, err := c.keyFor(parsed.KeyID, parsed.Version)
	if err != nil {
		return nil, err
	}

	nonce, err := decodePayload("nonce", parsed.Nonce)
	if err != nil {
		return nil, err
	}
	payload, err := decodePayload("ciphertext", parsed.Ciphertext)
	if err != nil {
		return nil, err
	}
	gcm, err := newGCM(key.key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, fmt.Errorf("security: invalid nonce size %d", len(nonce))
	}
	plaintext, err := gcm.Open(nil, nonce, payload, []byte(key.label()))
	if err != nil {
		return nil, fmt.Errorf("security: decrypt payload: %w", err)
	}
	return plaintext, nil
}

// NeedsReseal reports whether a stored secret was sealed by a key other
// than the active one.
func (c *TokenCipher) NeedsReseal(ciphertext []byte) (bool, error) {
	if c == nil {
		return false, fmt.Errorf("security: token cipher is nil")
	}
	meta, err := ParseEnvelopeMetadata(ciphertext)
	if err != nil {
		return false, err
	}
	return meta.KeyID != c.active.id || meta.Version != c.active.version, nil
}

func (c *TokenCipher) KeyID() string {
	if c == nil {
		return ""
	}
	return c.active.id
}

func (c *TokenCipher) Version() int {
	if c == nil {
		return 0
	}
	return c.active.version
}

func (c *TokenCipher) keyFor(id string, version int) (cipherKey, error) {
	if id == c.active.id && version == c.active.version {
		return c.active, nil
	}
	for _, retired := range c.retired {
		if retired.id != id || retired.version != version {
			continue
		}
		if !retired.window.Allows(c.now()) {
			return cipherKey{}, fmt.Errorf("security: key %s is outside its rotation window", retired.label())
		}
		return retired, nil
	}
	return cipherKey{}, fmt.Errorf("security: unknown key %q version %d", id, version)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("security: create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("security: create gcm: %w", err)
	}
	return gcm, nil
}

func normalizeKey(value []byte) []byte {
	if len(value) == 16 || len(value) == 24 || len(value) == 32 {
		key := make([]byte, len(value))
		copy(key, value)
		return key
	}
	sum := sha256.Sum256(value)
	key := make([]byte, len(sum))
	copy(key, sum[:])
	return key
}

var _ core.SecretProvider = (*TokenCipher)(nil)
