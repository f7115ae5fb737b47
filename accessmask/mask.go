// Package accessmask packs delegated scope grants into a bitmask and
// converts it to and from its canonical string form.
//
// Bit i of a mask corresponds to scope i of the catalog. Bits are packed
// least significant first, eight per byte. The canonical string is the
// unpadded base64url encoding of the packed bytes.
package accessmask

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/goliatone/go-accountsync/catalog"
)

var ErrMalformedMask = errors.New("accessmask: malformed mask")

type MalformedMaskError struct {
	Input  string
	Reason string
}

func (e *MalformedMaskError) Error() string {
	if e == nil {
		return ErrMalformedMask.Error()
	}
	return fmt.Sprintf("%s: %s", ErrMalformedMask.Error(), e.Reason)
}

func (e *MalformedMaskError) Is(target error) bool {
	return target == ErrMalformedMask
}

type Mask []byte

// NewMask allocates an empty mask wide enough for bitLen bits.
func NewMask(bitLen int) Mask {
	if bitLen <= 0 {
		return Mask{}
	}
	return make(Mask, byteLen(bitLen))
}

func (m Mask) Has(bit int) bool {
	if bit < 0 || bit/8 >= len(m) {
		return false
	}
	return m[bit/8]&(1<<(uint(bit)%8)) != 0
}

// Set returns the mask with bit turned on, growing it if needed.
func (m Mask) Set(bit int) Mask {
	if bit < 0 {
		return m
	}
	for bit/8 >= len(m) {
		m = append(m, 0)
	}
	m[bit/8] |= 1 << (uint(bit) % 8)
	return m
}

func (m Mask) Clear(bit int) Mask {
	if bit < 0 || bit/8 >= len(m) {
		return m
	}
	m[bit/8] &^= 1 << (uint(bit) % 8)
	return m
}

func (m Mask) Clone() Mask {
	if m == nil {
		return nil
	}
	return append(Mask(nil), m...)
}

func (m Mask) Equal(other Mask) bool {
	return bytes.Equal(bytes.TrimRight(m, "\x00"), bytes.TrimRight(other, "\x00"))
}

// IsZero reports whether no bit is set.
func (m Mask) IsZero() bool {
	for _, b := range m {
		if b != 0 {
			return false
		}
	}
	return true
}

// Scopes lists the scope names granted by the mask, in bit order.
func (m Mask) Scopes(c *catalog.Catalog) []string {
	out := []string{}
	for i := 0; i < c.Len(); i++ {
		if !m.Has(i) {
			continue
		}
		if scope, ok := c.Scope(i); ok {
			out = append(out, scope.Name)
		}
	}
	return out
}

// FromScopes builds a mask granting the named scopes.
func FromScopes(c *catalog.Catalog, names ...string) (Mask, error) {
	m := NewMask(c.Len())
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		idx, ok := c.Index(name)
		if !ok {
			return nil, fmt.Errorf("accessmask: unknown scope %q", name)
		}
		m = m.Set(idx)
	}
	return m, nil
}

type Codec struct {
	bitLen int
}

func NewCodec(bitLen int) Codec {
	if bitLen < 0 {
		bitLen = 0
	}
	return Codec{bitLen: bitLen}
}

// CodecFor sizes a codec to the catalog.
func CodecFor(c *catalog.Catalog) Codec {
	return NewCodec(c.Len())
}

func (c Codec) BitLen() int {
	return c.bitLen
}

// EncodedLen is the fixed length of every canonical string this codec emits.
func (c Codec) EncodedLen() int {
	return base64.RawURLEncoding.EncodedLen(byteLen(c.bitLen))
}

// Encode returns the canonical string form. Bits at or beyond the codec's
// bit length are dropped.
func (c Codec) Encode(bits Mask) string {
	return base64.RawURLEncoding.EncodeToString(c.normalize(bits))
}

// Decode parses a canonical string. It is the exact inverse of Encode.
func (c Codec) Decode(value string) (Mask, error) {
	if len(value) != c.EncodedLen() {
		return nil, &MalformedMaskError{
			Input:  value,
			Reason: fmt.Sprintf("expected %d characters, got %d", c.EncodedLen(), len(value)),
		}
	}
	decoded, err := base64.RawURLEncoding.Strict().DecodeString(value)
	if err != nil {
		return nil, &MalformedMaskError{Input: value, Reason: err.Error()}
	}
	if len(decoded) != byteLen(c.bitLen) {
		return nil, &MalformedMaskError{
			Input:  value,
			Reason: fmt.Sprintf("expected %d bytes, got %d", byteLen(c.bitLen), len(decoded)),
		}
	}
	if rem := c.bitLen % 8; rem != 0 && len(decoded) > 0 {
		if decoded[len(decoded)-1]>>uint(rem) != 0 {
			return nil, &MalformedMaskError{Input: value, Reason: "bits set beyond mask length"}
		}
	}
	return Mask(decoded), nil
}

// Value projects the first 64 bits onto an integer. It is informational
// only; the mask itself stays authoritative.
func (c Codec) Value(bits Mask) uint64 {
	var value uint64
	limit := c.bitLen
	if limit > 64 {
		limit = 64
	}
	for i := 0; i < limit; i++ {
		if bits.Has(i) {
			value |= 1 << uint(i)
		}
	}
	return value
}

func (c Codec) normalize(bits Mask) []byte {
	out := make([]byte, byteLen(c.bitLen))
	copy(out, bits)
	if rem := c.bitLen % 8; rem != 0 && len(out) > 0 {
		out[len(out)-1] &= byte(1<<uint(rem)) - 1
	}
	return out
}

func byteLen(bitLen int) int {
	return (bitLen + 7) / 8
}
