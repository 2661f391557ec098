package aead

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/kenneth/uid2-client-go/internal/bytecodec"
)

// EncryptGCM encrypts plaintext with AES-GCM using iv and key, and returns
// ciphertext||tag: a single buffer of length len(plaintext)+TagSizeGCM, as
// cipher.AEAD.Seal already produces.
func EncryptGCM(plaintext []byte, iv, key []byte) ([]byte, error) {
	if len(iv) != IVSizeGCM {
		return nil, fmt.Errorf("aead: GCM iv must be %d bytes, got %d", IVSizeGCM, len(iv))
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	return gcm.Seal(nil, iv, plaintext, nil), nil
}

// DecryptGCM decrypts the region aliased by combined, which must be laid
// out as iv(IVSizeGCM) || ciphertext || tag(TagSizeGCM), using key.
// Authentication failure is reported as ErrInvalidPayload, matching the
// envelope codec's InvalidPayload status for a tampered or corrupt blob.
func DecryptGCM(combined bytecodec.Slice, key []byte) ([]byte, error) {
	buf := combined.Bytes()
	if len(buf) < IVSizeGCM+TagSizeGCM {
		return nil, ErrInvalidPayload
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	iv := buf[:IVSizeGCM]
	ciphertextAndTag := buf[IVSizeGCM:]

	plaintext, err := gcm.Open(nil, iv, ciphertextAndTag, nil)
	if err != nil {
		return nil, ErrInvalidPayload
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: new AES cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aead: new GCM: %w", err)
	}
	return gcm, nil
}
