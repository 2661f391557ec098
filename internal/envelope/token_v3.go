package envelope

import (
	"encoding/base64"
	"time"

	"github.com/kenneth/uid2-client-go/internal/aead"
	"github.com/kenneth/uid2-client-go/internal/bytecodec"
	"github.com/kenneth/uid2-client-go/internal/model"
)

// v3MasterHeaderSize is the fixed portion of the master plaintext before
// the nested site GCM blob, per spec.md §4.5.
const v3MasterHeaderSize = 33

// decryptTokenV3 implements spec.md §4.5.
//
// Outer envelope: scope_prefix(1) version(1) master_key_id(4) master_gcm_blob(iv‖ct‖tag)
// Master plaintext: expires_ms(8) created_ms(8) operator_site_id(4) operator_type(1)
//   operator_version(4) operator_key_id(4) site_key_id(4) site_gcm_blob(iv‖ct‖tag)
// Site plaintext: site_id(4) publisher_id(8) publisher_key_id(4) privacy_bits(4)
//   established_ms(8) refreshed_ms(8) raw_id_bytes(remainder)
func decryptTokenV3(raw []byte, keys model.KeyStore, now time.Time, scope model.IdentityScope) model.DecryptionResponse {
	r := bytecodec.NewReader(raw)

	scopePrefix, err := r.ReadU8()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	// Scope is validated before any key lookup or decryption attempt.
	if decodeScope(scopePrefix) != byte(scope) {
		return model.DecryptionResponse{Status: model.InvalidIdentityScope}
	}

	version, err := r.ReadU8()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if version != versionV3 {
		return model.DecryptionResponse{Status: model.VersionNotSupported}
	}

	masterKeyID, err := r.ReadI32()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	masterBlob := r.Rest()

	masterKey, ok := keys.TryGetKey(int64(masterKeyID))
	if !ok {
		return model.DecryptionResponse{Status: model.NotAuthorizedForKey}
	}

	masterPlaintext, err := aead.DecryptGCM(masterBlob, masterKey.Secret)
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if len(masterPlaintext) < v3MasterHeaderSize {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}

	mr := bytecodec.NewReader(masterPlaintext)
	expiresMs, err := mr.ReadI64()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := mr.ReadI64(); err != nil { // created_ms, not surfaced by the core
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := mr.ReadI32(); err != nil { // operator_site_id
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := mr.ReadU8(); err != nil { // operator_type
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := mr.ReadI32(); err != nil { // operator_version
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := mr.ReadI32(); err != nil { // operator_key_id
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	siteKeyID, err := mr.ReadI32()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	siteBlob := mr.Rest()

	siteKey, ok := keys.TryGetKey(int64(siteKeyID))
	if !ok {
		return model.DecryptionResponse{Status: model.NotAuthorizedForKey}
	}

	sitePlaintext, err := aead.DecryptGCM(siteBlob, siteKey.Secret)
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}

	sr := bytecodec.NewReader(sitePlaintext)
	siteID, err := sr.ReadI32()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := sr.ReadI64(); err != nil { // publisher_id
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := sr.ReadI32(); err != nil { // publisher_key_id
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := sr.ReadI32(); err != nil { // privacy_bits, read but unused
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	establishedMs, err := sr.ReadI64()
	if err != nil {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	if _, err := sr.ReadI64(); err != nil { // refreshed_ms
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}
	rawID := sr.Rest()

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
		UID:           base64.StdEncoding.EncodeToString(rawID.Bytes()),
		Established:   established,
		SiteID:        siteID,
		SiteKeySiteID: siteKey.SiteID,
	}
}
