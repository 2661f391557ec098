package bench

import (
	"fmt"

	"github.com/kenneth/uid2-client-go/internal/aead"
	"github.com/kenneth/uid2-client-go/internal/bytecodec"
	"github.com/kenneth/uid2-client-go/internal/model"
)

// Wire constants duplicated from internal/envelope: bench generates its own
// token fixtures locally rather than depending on an encode path the core
// deliberately does not expose (tokens are issued by the UID2 operator).
const (
	versionV2       byte = 2
	versionV3       byte = 112
	payloadTypeData byte = 0
	dataVersionV2   byte = 1
	scopeCookie     byte = 0x0B
)

func encodeScopePrefix(payloadType byte, scope byte) byte {
	return payloadType | (scope << 4) | scopeCookie
}

// GenerateV2Tokens builds n synthetic V2 advertising tokens for siteID,
// encrypted under masterKey/siteKey, for use as DecryptToken bench load.
func GenerateV2Tokens(n int, masterKey, siteKey model.Key, siteID int32, establishedMs, expiresMs int64) ([][]byte, error) {
	tokens := make([][]byte, n)
	for i := 0; i < n; i++ {
		uid := fmt.Sprintf("bench-uid-%d", i)
		token, err := buildV2Token(masterKey, siteKey, siteID, uid, establishedMs, expiresMs)
		if err != nil {
			return nil, err
		}
		tokens[i] = token
	}
	return tokens, nil
}

// GenerateV3Tokens builds n synthetic V3 advertising tokens for siteID,
// encrypted under masterKey/siteKey, for use as DecryptToken bench load.
func GenerateV3Tokens(n int, masterKey, siteKey model.Key, scope model.IdentityScope, siteID int32, establishedMs, expiresMs int64) ([][]byte, error) {
	tokens := make([][]byte, n)
	for i := 0; i < n; i++ {
		rawID := []byte(fmt.Sprintf("bench-raw-id-%d", i))
		token, err := buildV3Token(masterKey, siteKey, scope, siteID, rawID, establishedMs, expiresMs)
		if err != nil {
			return nil, err
		}
		tokens[i] = token
	}
	return tokens, nil
}

// GenerateV2DataEnvelopes builds n synthetic V2 data envelopes under key,
// for use as DecryptData bench load.
func GenerateV2DataEnvelopes(n int, key model.Key, siteID int32, encryptedAtMs int64, payloadSize int) ([][]byte, error) {
	envelopes := make([][]byte, n)
	for i := 0; i < n; i++ {
		data := make([]byte, payloadSize)
		for j := range data {
			data[j] = byte((i + j) % 256)
		}
		envelope, err := buildV2Data(key, siteID, encryptedAtMs, data)
		if err != nil {
			return nil, err
		}
		envelopes[i] = envelope
	}
	return envelopes, nil
}

func buildV2Token(masterKey, siteKey model.Key, siteID int32, uid string, establishedMs, expiresMs int64) ([]byte, error) {
	identity := bytecodec.NewWriter(4 + 4 + len(uid) + 4 + 8)
	identity.WriteI32(siteID)
	identity.WriteI32(int32(len(uid)))
	identity.WriteBytes([]byte(uid))
	identity.WriteI32(0)
	identity.WriteI64(establishedMs)

	identityIV, err := aead.GenerateIV(aead.IVSizeCBC)
	if err != nil {
		return nil, err
	}
	identityCT, err := aead.EncryptCBC(identity.Bytes(), identityIV, siteKey.Secret)
	if err != nil {
		return nil, err
	}

	master := bytecodec.NewWriter(8 + 4 + aead.IVSizeCBC + len(identityCT))
	master.WriteI64(expiresMs)
	master.WriteI32(int32(siteKey.ID))
	master.WriteBytes(identityIV)
	master.WriteBytes(identityCT)

	masterIV, err := aead.GenerateIV(aead.IVSizeCBC)
	if err != nil {
		return nil, err
	}
	masterCT, err := aead.EncryptCBC(master.Bytes(), masterIV, masterKey.Secret)
	if err != nil {
		return nil, err
	}

	out := bytecodec.NewWriter(1 + 4 + aead.IVSizeCBC + len(masterCT))
	out.WriteU8(versionV2)
	out.WriteI32(int32(masterKey.ID))
	out.WriteBytes(masterIV)
	out.WriteBytes(masterCT)
	return out.Bytes(), nil
}

func buildV3Token(masterKey, siteKey model.Key, scope model.IdentityScope, siteID int32, rawID []byte, establishedMs, expiresMs int64) ([]byte, error) {
	site := bytecodec.NewWriter(4 + 8 + 4 + 4 + 8 + 8 + len(rawID))
	site.WriteI32(siteID)
	site.WriteI64(0)
	site.WriteI32(0)
	site.WriteI32(0)
	site.WriteI64(establishedMs)
	site.WriteI64(0)
	site.WriteBytes(rawID)

	siteIV, err := aead.GenerateIV(aead.IVSizeGCM)
	if err != nil {
		return nil, err
	}
	siteCT, err := aead.EncryptGCM(site.Bytes(), siteIV, siteKey.Secret)
	if err != nil {
		return nil, err
	}
	siteBlob := append(append([]byte{}, siteIV...), siteCT...)

	master := bytecodec.NewWriter(8 + 8 + 4 + 1 + 4 + 4 + 4 + len(siteBlob))
	master.WriteI64(expiresMs)
	master.WriteI64(0)
	master.WriteI32(0)
	master.WriteU8(0)
	master.WriteI32(0)
	master.WriteI32(0)
	master.WriteI32(int32(siteKey.ID))
	master.WriteBytes(siteBlob)

	masterIV, err := aead.GenerateIV(aead.IVSizeGCM)
	if err != nil {
		return nil, err
	}
	masterCT, err := aead.EncryptGCM(master.Bytes(), masterIV, masterKey.Secret)
	if err != nil {
		return nil, err
	}
	masterBlob := append(append([]byte{}, masterIV...), masterCT...)

	out := bytecodec.NewWriter(1 + 1 + 4 + len(masterBlob))
	out.WriteU8(encodeScopePrefix(0, byte(scope)))
	out.WriteU8(versionV3)
	out.WriteI32(int32(masterKey.ID))
	out.WriteBytes(masterBlob)
	return out.Bytes(), nil
}

func buildV2Data(key model.Key, siteID int32, encryptedAtMs int64, data []byte) ([]byte, error) {
	iv, err := aead.GenerateIV(aead.IVSizeCBC)
	if err != nil {
		return nil, err
	}
	ct, err := aead.EncryptCBC(data, iv, key.Secret)
	if err != nil {
		return nil, err
	}

	out := bytecodec.NewWriter(1 + 1 + 8 + 4 + 4 + aead.IVSizeCBC + len(ct))
	out.WriteU8(payloadTypeData)
	out.WriteU8(dataVersionV2)
	out.WriteI64(encryptedAtMs)
	out.WriteI32(siteID)
	out.WriteI32(int32(key.ID))
	out.WriteBytes(iv)
	out.WriteBytes(ct)
	return out.Bytes(), nil
}
