package envelope

import (
	"time"

	"github.com/kenneth/uid2-client-go/internal/aead"
	"github.com/kenneth/uid2-client-go/internal/bytecodec"
	"github.com/kenneth/uid2-client-go/internal/model"
)

// encodeDataV3 builds the V3 data envelope of spec.md §4.6:
//
// inner payload:  now_ms(8) site_id(4) data(remainder)
// envelope:       scope_prefix(1) version(1) key_id(4) iv(12) gcm(ciphertext‖tag)
//
// The caller base64-encodes the result; this function returns raw bytes.
func encodeDataV3(key model.Key, scope model.IdentityScope, iv []byte, now time.Time, siteID int32, data []byte) ([]byte, error) {
	inner := bytecodec.NewWriter(12 + len(data))
	inner.WriteI64(now.UnixMilli())
	inner.WriteI32(siteID)
	inner.WriteBytes(data)

	ciphertextAndTag, err := aead.EncryptGCM(inner.Bytes(), iv, key.Secret)
	if err != nil {
		return nil, err
	}

	out := bytecodec.NewWriter(1 + 1 + 4 + len(iv) + len(ciphertextAndTag))
	out.WriteU8(encodeScopePrefix(PayloadTypeDataV3, byte(scope)))
	out.WriteU8(versionV3)
	out.WriteI32(int32(key.ID))
	out.WriteBytes(iv)
	out.WriteBytes(ciphertextAndTag)
	return out.Bytes(), nil
}

// decryptDataV3 implements the V3 half of spec.md §4.7.
func decryptDataV3(raw []byte, keys model.KeyStore, scope model.IdentityScope) model.DataResponse {
	r := bytecodec.NewReader(raw)

	scopePrefix, err := r.ReadU8()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	if decodeScope(scopePrefix) != byte(scope) {
		return model.DataResponse{Status: model.InvalidIdentityScope}
	}

	version, err := r.ReadU8()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	if version != versionV3 {
		return model.DataResponse{Status: model.VersionNotSupported}
	}

	keyID, err := r.ReadI32()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	blob := r.Rest()

	key, ok := keys.TryGetKey(int64(keyID))
	if !ok {
		return model.DataResponse{Status: model.NotAuthorizedForKey}
	}

	plaintext, err := aead.DecryptGCM(blob, key.Secret)
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}

	pr := bytecodec.NewReader(plaintext)
	encryptedAtMs, err := pr.ReadI64()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	if _, err := pr.ReadI32(); err != nil { // site_id, not surfaced on DataResponse
		return model.DataResponse{Status: model.InvalidPayload}
	}
	data := pr.Rest()

	return model.DataResponse{
		Status:      model.Success,
		Payload:     data.Bytes(),
		EncryptedAt: time.UnixMilli(encryptedAtMs),
	}
}
