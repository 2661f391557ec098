// Package envelope implements the envelope codec: version/scope dispatch,
// the V2 (AES-CBC) and V3 (AES-GCM) token envelopes, and the V2/V3 data
// payload envelopes. It is the hard core the rest of the repository
// exists to support; every byte offset below mirrors the wire format
// exactly, since third-party decoders must interoperate bit-for-bit.
package envelope

import (
	"time"

	"github.com/kenneth/uid2-client-go/internal/model"
)

// DecryptToken dispatches raw to the V2 or V3 token decoder based on its
// first two bytes, exactly as spec'd: byte 0 == 2 is V2; otherwise byte 1
// == 112 is V3; anything else is VersionNotSupported. Buffers shorter than
// two bytes are rejected before either byte is inspected.
func DecryptToken(raw []byte, keys model.KeyStore, now time.Time, scope model.IdentityScope) model.DecryptionResponse {
	if len(raw) < 2 {
		return model.DecryptionResponse{Status: model.InvalidPayload}
	}

	switch {
	case raw[0] == versionV2:
		return decryptTokenV2(raw, keys, now)
	case raw[1] == versionV3:
		return decryptTokenV3(raw, keys, now, scope)
	default:
		return model.DecryptionResponse{Status: model.VersionNotSupported}
	}
}

// DecryptData dispatches raw to the V2 or V3 data-payload decoder based on
// the high bits of its first byte (see isPayloadTypeDataV3).
func DecryptData(raw []byte, keys model.KeyStore, scope model.IdentityScope) model.DataResponse {
	if len(raw) < 1 {
		return model.DataResponse{Status: model.InvalidPayload}
	}
	if isPayloadTypeDataV3(raw[0]) {
		return decryptDataV3(raw, keys, scope)
	}
	return decryptDataV2(raw, keys)
}
