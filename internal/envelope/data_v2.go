package envelope

import (
	"time"

	"github.com/kenneth/uid2-client-go/internal/aead"
	"github.com/kenneth/uid2-client-go/internal/bytecodec"
	"github.com/kenneth/uid2-client-go/internal/model"
)

const dataVersionV2 byte = 1

// decryptDataV2 implements spec.md §4.7's V2 data layout:
// payload_type(1) version(1) encrypted_at_ms(8) site_id(4) key_id(4) iv(16) ciphertext(CBC)
func decryptDataV2(raw []byte, keys model.KeyStore) model.DataResponse {
	r := bytecodec.NewReader(raw)

	payloadType, err := r.ReadU8()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	if PayloadType(payloadType) != PayloadTypeData {
		return model.DataResponse{Status: model.InvalidPayloadType}
	}

	version, err := r.ReadU8()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	if version != dataVersionV2 {
		return model.DataResponse{Status: model.VersionNotSupported}
	}

	encryptedAtMs, err := r.ReadI64()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	if _, err := r.ReadI32(); err != nil { // site_id, not needed to decrypt
		return model.DataResponse{Status: model.InvalidPayload}
	}
	keyID, err := r.ReadI32()
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	iv, err := r.ReadBytes(aead.IVSizeCBC)
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	ciphertext := r.Rest()

	key, ok := keys.TryGetKey(int64(keyID))
	if !ok {
		return model.DataResponse{Status: model.NotAuthorizedForKey}
	}

	plaintext, err := aead.DecryptCBC(ciphertext, iv, key.Secret)
	if err != nil {
		return model.DataResponse{Status: model.InvalidPayload}
	}

	return model.DataResponse{
		Status:      model.Success,
		Payload:     plaintext,
		EncryptedAt: time.UnixMilli(encryptedAtMs),
	}
}
