package envelope

import (
	"encoding/base64"
	"time"

	"github.com/kenneth/uid2-client-go/internal/aead"
	"github.com/kenneth/uid2-client-go/internal/bytecodec"
	"github.com/kenneth/uid2-client-go/internal/model"
)

func decodeBase64(b []byte) ([]byte, error) {
	return base64.StdEncoding.DecodeString(string(b))
}

func base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

func testKey(id int64, siteID int32, secret []byte, now time.Time) model.Key {
	return model.Key{
		ID:        id,
		SiteID:    siteID,
		Secret:    secret,
		Created:   now.Add(-24 * time.Hour),
		Activates: now.Add(-24 * time.Hour),
		Expires:   now.Add(24 * time.Hour),
	}
}

// buildV2Token encodes a V2 token envelope per §4.4, for use as a fixed
// test vector.
func buildV2Token(masterKey, siteKey model.Key, siteID int32, uid string, establishedMs, expiresMs int64) []byte {
	identity := bytecodec.NewWriter(4 + 4 + len(uid) + 4 + 8)
	identity.WriteI32(siteID)
	identity.WriteI32(int32(len(uid)))
	identity.WriteBytes([]byte(uid))
	identity.WriteI32(0) // privacy_bits, ignored
	identity.WriteI64(establishedMs)

	identityIV := make([]byte, aead.IVSizeCBC)
	identityCT, err := aead.EncryptCBC(identity.Bytes(), identityIV, siteKey.Secret)
	if err != nil {
		panic(err)
	}

	master := bytecodec.NewWriter(8 + 4 + aead.IVSizeCBC + len(identityCT))
	master.WriteI64(expiresMs)
	master.WriteI32(int32(siteKey.ID))
	master.WriteBytes(identityIV)
	master.WriteBytes(identityCT)

	masterIV := make([]byte, aead.IVSizeCBC)
	masterCT, err := aead.EncryptCBC(master.Bytes(), masterIV, masterKey.Secret)
	if err != nil {
		panic(err)
	}

	out := bytecodec.NewWriter(1 + 4 + aead.IVSizeCBC + len(masterCT))
	out.WriteU8(versionV2)
	out.WriteI32(int32(masterKey.ID))
	out.WriteBytes(masterIV)
	out.WriteBytes(masterCT)
	return out.Bytes()
}

// buildV3Token encodes a V3 token envelope per §4.5.
func buildV3Token(masterKey, siteKey model.Key, scope model.IdentityScope, siteID int32, rawID []byte, establishedMs, expiresMs int64) []byte {
	site := bytecodec.NewWriter(4 + 8 + 4 + 4 + 8 + 8 + len(rawID))
	site.WriteI32(siteID)
	site.WriteI64(0) // publisher_id
	site.WriteI32(0) // publisher_key_id
	site.WriteI32(0) // privacy_bits
	site.WriteI64(establishedMs)
	site.WriteI64(0) // refreshed_ms
	site.WriteBytes(rawID)

	siteIV, err := aead.GenerateIV(aead.IVSizeGCM)
	if err != nil {
		panic(err)
	}
	siteCT, err := aead.EncryptGCM(site.Bytes(), siteIV, siteKey.Secret)
	if err != nil {
		panic(err)
	}
	siteBlob := append(append([]byte{}, siteIV...), siteCT...)

	master := bytecodec.NewWriter(8 + 8 + 4 + 1 + 4 + 4 + 4 + len(siteBlob))
	master.WriteI64(expiresMs)
	master.WriteI64(0) // created_ms
	master.WriteI32(0) // operator_site_id
	master.WriteU8(0)  // operator_type
	master.WriteI32(0) // operator_version
	master.WriteI32(0) // operator_key_id
	master.WriteI32(int32(siteKey.ID))
	master.WriteBytes(siteBlob)

	masterIV, err := aead.GenerateIV(aead.IVSizeGCM)
	if err != nil {
		panic(err)
	}
	masterCT, err := aead.EncryptGCM(master.Bytes(), masterIV, masterKey.Secret)
	if err != nil {
		panic(err)
	}
	masterBlob := append(append([]byte{}, masterIV...), masterCT...)

	out := bytecodec.NewWriter(1 + 1 + 4 + len(masterBlob))
	out.WriteU8(encodeScopePrefix(0, byte(scope)))
	out.WriteU8(versionV3)
	out.WriteI32(int32(masterKey.ID))
	out.WriteBytes(masterBlob)
	return out.Bytes()
}

// buildV2Data encodes a V2 data envelope per §4.7.
func buildV2Data(key model.Key, siteID int32, encryptedAtMs int64, data []byte) []byte {
	iv := make([]byte, aead.IVSizeCBC)
	ct, err := aead.EncryptCBC(data, iv, key.Secret)
	if err != nil {
		panic(err)
	}

	out := bytecodec.NewWriter(1 + 1 + 8 + 4 + 4 + aead.IVSizeCBC + len(ct))
	out.WriteU8(byte(PayloadTypeData))
	out.WriteU8(dataVersionV2)
	out.WriteI64(encryptedAtMs)
	out.WriteI32(siteID)
	out.WriteI32(int32(key.ID))
	out.WriteBytes(iv)
	out.WriteBytes(ct)
	return out.Bytes()
}
