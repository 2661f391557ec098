package envelope

// Version constants, a small closed set the wire format dispatches on.
const (
	versionV2 byte = 2
	versionV3 byte = 112 // 0x70, ASCII 'p'
)

// PayloadType occupies the top three bits of the V3 scope-prefix byte, and
// (for data payloads) the whole of the V2 type byte.
type PayloadType byte

const (
	// PayloadTypeData is the V2 data-payload type byte.
	PayloadTypeData PayloadType = 0
	// PayloadTypeDataV3 marks a V3-format encrypted data payload, high
	// three bits of the scope-prefix byte. Checked with "& 0xE0", not
	// equality, because it shares the byte with the scope bit and cookie.
	PayloadTypeDataV3 PayloadType = 0x20
)

// scopeCookie is the constant low nibble the encoder emits in every
// scope-prefix byte so third-party decoders can sanity-check the format.
const scopeCookie byte = 0x0B

// encodeScopePrefix packs payloadType (top 3 bits), scope (bit 4) and the
// fixed cookie (low 4 bits) into one byte, per spec: a V3 token envelope's
// leading byte and a V3 data envelope's leading byte share this encoding.
func encodeScopePrefix(payloadType PayloadType, scope byte) byte {
	return byte(payloadType) | (scope << 4) | scopeCookie
}

// decodeScope extracts the identity-scope bit from a scope-prefix byte.
func decodeScope(b byte) byte {
	return (b >> 4) & 1
}

// isPayloadTypeDataV3 checks only the top three bits of b. Data-payload
// dispatch uses a mask, not equality, because the scope bit and cookie
// share the byte.
func isPayloadTypeDataV3(b byte) bool {
	return b&0xE0 == byte(PayloadTypeDataV3)
}
