package barcode

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrInvalidPayload = errors.New("invalid barcode payload")

// Codec seals student id numbers into opaque scan payloads
type Codec struct {
	key [32]byte
}

func NewCodec(key [32]byte) *Codec {
	return &Codec{key: key}
}

// Seal returns base64url(nonce || secretbox(plain)). Every call yields a new payload.
func (c *Codec) Seal(plain string) (string, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return "", fmt.Errorf("failed to read nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(plain), &nonce, &c.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Open recovers the sealed value, or ErrInvalidPayload for anything this key did not seal
func (c *Codec) Open(payload string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil || len(raw) < nonceSize+secretbox.Overhead {
		return "", ErrInvalidPayload
	}
	var nonce [nonceSize]byte
	copy(nonce[:], raw[:nonceSize])
	plain, ok := secretbox.Open(nil, raw[nonceSize:], &nonce, &c.key)
	if !ok {
		return "", ErrInvalidPayload
	}
	return string(plain), nil
}
