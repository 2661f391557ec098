package uid2

import "github.com/kenneth/uid2-client-go/internal/model"

// InvocationError reports a programmer mistake, a malformed call into the
// codec, as distinct from the data-driven DecryptionStatus taxonomy. It
// is modeled as a stable Code a caller can branch on, plus a
// human-readable Message. Unlike DecryptionStatus, an InvocationError is
// never returned inside a response struct; it is the err return value of
// the call that received the bad arguments.
type InvocationError = model.InvocationError

var (
	// ErrNilData means an EncryptDataRequest had a nil Data field.
	ErrNilData = model.ErrNilData

	// ErrAmbiguousKeyResolution means an EncryptDataRequest set both
	// SiteID and AdvertisingToken; only one may be used to resolve the
	// encryption key.
	ErrAmbiguousKeyResolution = model.ErrAmbiguousKeyResolution
)
