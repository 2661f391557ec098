package envelope

import (
	"encoding/base64"

	"github.com/kenneth/uid2-client-go/internal/aead"
	"github.com/kenneth/uid2-client-go/internal/model"
)

// EncryptData implements spec.md §4.6's key-resolution order and produces a
// base64-encoded V3 data envelope. The returned error is non-nil only for
// caller mistakes (nil Data, or both SiteID and AdvertisingToken set);
// every other failure is reported through the DataResponse's Status.
func EncryptData(req model.EncryptDataRequest, keys model.KeyStore, scope model.IdentityScope) (model.DataResponse, error) {
	if req.Data == nil {
		return model.DataResponse{}, model.ErrNilData
	}
	if req.SiteID != nil && req.AdvertisingToken != nil {
		return model.DataResponse{}, model.ErrAmbiguousKeyResolution
	}

	key, status := resolveEncryptionKey(req, keys, scope)
	if status != model.Success {
		return model.DataResponse{Status: status}, nil
	}

	iv := req.InitializationVector
	if iv == nil {
		var err error
		iv, err = aead.GenerateIV(aead.IVSizeGCM)
		if err != nil {
			return model.DataResponse{Status: model.EncryptionFailure}, nil
		}
	}

	envelope, err := encodeDataV3(key, scope, iv, req.Now, key.SiteID, req.Data)
	if err != nil {
		return model.DataResponse{Status: model.EncryptionFailure}, nil
	}

	return model.DataResponse{
		Status:      model.Success,
		Payload:     []byte(base64.StdEncoding.EncodeToString(envelope)),
		EncryptedAt: req.Now,
	}, nil
}

// resolveEncryptionKey implements the explicit-key / site-id / advertising-
// token branches of the resolution order. It never returns an invocation
// error: everything it rejects is data-driven and belongs in Status.
func resolveEncryptionKey(req model.EncryptDataRequest, keys model.KeyStore, scope model.IdentityScope) (model.Key, model.DecryptionStatus) {
	if req.Key != nil {
		if !req.Key.IsActive(req.Now) {
			return model.Key{}, model.KeyInactive
		}
		return *req.Key, model.Success
	}

	if keys == nil {
		return model.Key{}, model.NotInitialized
	}
	if !keys.IsValid(req.Now) {
		return model.Key{}, model.KeysNotSynced
	}

	siteID, status := resolveSiteID(req, keys, scope)
	if status != model.Success {
		return model.Key{}, status
	}

	key, ok := keys.TryGetActiveSiteKey(siteID, req.Now)
	if !ok {
		return model.Key{}, model.NotAuthorizedForKey
	}
	return key, model.Success
}

func resolveSiteID(req model.EncryptDataRequest, keys model.KeyStore, scope model.IdentityScope) (int32, model.DecryptionStatus) {
	if req.SiteID != nil {
		return *req.SiteID, model.Success
	}
	if req.AdvertisingToken != nil {
		decoded, err := base64.StdEncoding.DecodeString(*req.AdvertisingToken)
		if err != nil {
			return 0, model.TokenDecryptFailure
		}
		resp := DecryptToken(decoded, keys, req.Now, scope)
		if resp.Status != model.Success {
			return 0, model.TokenDecryptFailure
		}
		return resp.SiteKeySiteID, model.Success
	}
	return 0, model.NotAuthorizedForKey
}
