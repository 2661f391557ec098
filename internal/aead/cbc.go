// Package aead implements the two cipher conventions the envelope codec
// nests: AES-CBC with an external IV and PKCS#7 padding for the V2 wire
// format, and AES-GCM with the IV prepended and the tag appended to a
// single combined slice for V3. Both are built directly on crypto/aes and
// crypto/cipher rather than a third-party AES implementation, the
// standard idiomatic choice for block cipher work in Go.
package aead

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/kenneth/uid2-client-go/internal/bytecodec"
)

const (
	// IVSizeCBC is the AES block size and therefore the CBC IV length.
	IVSizeCBC = 16
	// IVSizeGCM is the standard GCM nonce length.
	IVSizeGCM = 12
	// TagSizeGCM is the GCM authentication tag length.
	TagSizeGCM = 16
)

// ErrInvalidPayload is returned for any CBC padding error or length that is
// not a multiple of the block size. The envelope layer maps this directly
// to DecryptionStatus InvalidPayload.
var ErrInvalidPayload = fmt.Errorf("aead: invalid payload")

// DecryptCBC decrypts the region aliased by ciphertext with AES-CBC using
// iv and key, and removes PKCS#7 padding. key must be 16 or 32 bytes
// (AES-128 or AES-256). ciphertext is a non-owning Slice so the caller (the
// envelope codec, unwrapping a nested ciphertext embedded in an outer
// plaintext) never has to copy the outer buffer first.
func DecryptCBC(ciphertext bytecodec.Slice, iv, key []byte) ([]byte, error) {
	if len(iv) != IVSizeCBC {
		return nil, fmt.Errorf("aead: CBC iv must be %d bytes, got %d", IVSizeCBC, len(iv))
	}
	ct := ciphertext.Bytes()
	if len(ct) == 0 || len(ct)%aes.BlockSize != 0 {
		return nil, ErrInvalidPayload
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: new AES cipher: %w", err)
	}

	plaintext := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, ct)

	return unpadPKCS7(plaintext)
}

// EncryptCBC encrypts plaintext with AES-CBC using iv and key, applying
// PKCS#7 padding. The caller is responsible for placing iv in the envelope
// (the V2 wire format stores it as iv||ciphertext).
func EncryptCBC(plaintext []byte, iv, key []byte) ([]byte, error) {
	if len(iv) != IVSizeCBC {
		return nil, fmt.Errorf("aead: CBC iv must be %d bytes, got %d", IVSizeCBC, len(iv))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aead: new AES cipher: %w", err)
	}

	padded := padPKCS7(plaintext, aes.BlockSize)
	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)
	return ciphertext, nil
}

func padPKCS7(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

func unpadPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrInvalidPayload
	}
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > len(data) || padLen > aes.BlockSize {
		return nil, ErrInvalidPayload
	}
	if !bytes.Equal(data[len(data)-padLen:], bytes.Repeat([]byte{byte(padLen)}, padLen)) {
		return nil, ErrInvalidPayload
	}
	return data[:len(data)-padLen], nil
}

// GenerateIV returns n cryptographically secure random bytes, read from
// crypto/rand. It never reuses output.
func GenerateIV(n int) ([]byte, error) {
	iv := make([]byte, n)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("aead: generate iv: %w", err)
	}
	return iv, nil
}
