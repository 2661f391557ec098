package uid2

import "github.com/kenneth/uid2-client-go/internal/model"

// DecryptionStatus is the outcome taxonomy for DecryptToken, EncryptData
// and DecryptData. It is not an error: every status except the
// programmer-mistake cases in errors.go is returned, never raised, so
// callers branch on status rather than on error handling.
type DecryptionStatus = model.DecryptionStatus

const (
	Success              = model.Success
	NotInitialized       = model.NotInitialized
	InvalidPayload       = model.InvalidPayload
	InvalidPayloadType   = model.InvalidPayloadType
	VersionNotSupported  = model.VersionNotSupported
	NotAuthorizedForKey  = model.NotAuthorizedForKey
	InvalidIdentityScope = model.InvalidIdentityScope
	ExpiredToken         = model.ExpiredToken
	KeysNotSynced        = model.KeysNotSynced
	KeyInactive          = model.KeyInactive
	EncryptionFailure    = model.EncryptionFailure
	TokenDecryptFailure  = model.TokenDecryptFailure
)

// DecryptionResponse is the result of DecryptToken. Established, SiteID
// and SiteKeySiteID are only populated for Status Success or
// ExpiredToken, and UID only for Success; every other status carries
// only Status.
type DecryptionResponse = model.DecryptionResponse

// DataResponse is the result of EncryptData and DecryptData.
type DataResponse = model.DataResponse
