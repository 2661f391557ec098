package envelope

import (
	"time"

	"github.com/kenneth/uid2-client-go/internal/aead"
	"github.com/kenneth/uid2-client-go/internal/bytecodec"
	"github.com/kenneth/uid2-client-go/internal/model"
)

// decryptTokenV2 implements spec.md §4.4.
//
// Outer envelope:  version(1) master_key_id(4) master_iv(16) master_ciphertext(CBC)
// Master plaintext: expires_ms(8) site_key_id(4) identity_iv(16) identity_ciphertext(CBC)
// Identity plaintext: site_id(4) id_length(4) uid(id_length) privacy_bits(4, ignored) established_ms(8)
func decryptTokenV2(raw []byte, keys model.KeyStore, now time.Time) model.DecryptionResponse {
	r := bytecodec.NewReader(raw)

	if _, err := r.ReadU8(); err != nil { // version, already dispatched on
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	masterKeyID, err := r.ReadI32()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	masterIV, err := r.ReadBytes(aead.IVSizeCBC)
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	masterCiphertext := r.Rest()

	masterKey, ok := keys.TryGetKey(int64(masterKeyID))
	if !ok {
		return model.DecryptionResponse{Status: model.NotAuthorizedForKey}
	}

	masterPlaintext, err := aead.DecryptCBC(masterCiphertext, masterIV, masterKey.Secret)
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}

	mr := bytecodec.NewReader(masterPlaintext)
	expiresMs, err := mr.ReadI64()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	siteKeyID, err := mr.ReadI32()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	identityIV, err := mr.ReadBytes(aead.IVSizeCBC)
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	identityCiphertext := mr.Rest()

	siteKey, ok := keys.TryGetKey(int64(siteKeyID))
	if !ok {
		return model.DecryptionResponse{Status: model.NotAuthorizedForKey}
	}

	identityPlaintext, err := aead.DecryptCBC(identityCiphertext, identityIV, siteKey.Secret)
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}

	ir := bytecodec.NewReader(identityPlaintext)
	siteID, err := ir.ReadI32()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	idLength, err := ir.ReadI32()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	// A robust implementation bounds-checks id_length against the
	// remaining buffer rather than trusting the declared length (the
	// original source did not do this; spec.md §9 flags it as worth
	// fixing).
	if idLength < 0 || int(idLength) > ir.Len() {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	uidBytes, err := ir.ReadBytes(int(idLength))
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := ir.ReadI32(); err != nil { // privacy_bits, read but unused
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	establishedMs, err := ir.ReadI64()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}

	expires := time.UnixMilli(expiresMs)
	established := time.UnixMilli(establishedMs)

	if expires.Before(now) {
		return model.DecryptionResponse{
			Status:        model.ExpiredToken,
			Established:   established,
			SiteID:        siteID,
			SiteKeySiteID: siteKey.SiteID,
		}
	}

	return model.DecryptionResponse{
		Status:        model.Success,
		UID:           string(uidBytes),
		Established:   established,
		SiteID:        siteID,
		SiteKeySiteID: siteKey.SiteID,
	}
}
