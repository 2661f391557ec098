// Package model holds the data model shared by internal/envelope and the
// public uid2 package: Key, KeyStore, IdentityScope, DecryptionStatus and
// the two response types. It exists so internal/envelope (which builds
// responses) and uid2 (which the caller imports) can agree on the same
// concrete types without an import cycle. uid2 re-exports every name
// here as a type alias.
package model

import (
	"fmt"
	"time"
)

// IdentityScope distinguishes the two deployment scopes of the identity
// framework. It is fixed at Decryptor construction and never mutated.
type IdentityScope byte

const (
	ScopeUID2 IdentityScope = 0
	ScopeEUID IdentityScope = 1
)

func (s IdentityScope) String() string {
	switch s {
	case ScopeUID2:
		return "UID2"
	case ScopeEUID:
		return "EUID"
	default:
		return "Unknown"
	}
}

// Key is one entry in the master/site key hierarchy.
type Key struct {
	ID        int64
	SiteID    int32
	Secret    []byte
	Created   time.Time
	Activates time.Time
	Expires   time.Time
}

// IsActive reports whether the key is active at t: Activates <= t < Expires.
func (k Key) IsActive(t time.Time) bool {
	return !t.Before(k.Activates) && t.Before(k.Expires)
}

// KeyStore is the read-only lookup contract the codec consumes.
type KeyStore interface {
	TryGetKey(id int64) (Key, bool)
	TryGetActiveSiteKey(siteID int32, now time.Time) (Key, bool)
	IsValid(now time.Time) bool
}

// DecryptionStatus is the outcome taxonomy for DecryptToken, EncryptData
// and DecryptData.
type DecryptionStatus int

const (
	Success DecryptionStatus = iota
	NotInitialized
	InvalidPayload
	InvalidPayloadType
	VersionNotSupported
	NotAuthorizedForKey
	InvalidIdentityScope
	ExpiredToken
	KeysNotSynced
	KeyInactive
	EncryptionFailure
	TokenDecryptFailure
)

func (s DecryptionStatus) String() string {
	switch s {
	case Success:
		return "Success"
	case NotInitialized:
		return "NotInitialized"
	case InvalidPayload:
		return "InvalidPayload"
	case InvalidPayloadType:
		return "InvalidPayloadType"
	case VersionNotSupported:
		return "VersionNotSupported"
	case NotAuthorizedForKey:
		return "NotAuthorizedForKey"
	case InvalidIdentityScope:
		return "InvalidIdentityScope"
	case ExpiredToken:
		return "ExpiredToken"
	case KeysNotSynced:
		return "KeysNotSynced"
	case KeyInactive:
		return "KeyInactive"
	case EncryptionFailure:
		return "EncryptionFailure"
	case TokenDecryptFailure:
		return "TokenDecryptFailure"
	default:
		return "Unknown"
	}
}

// DecryptionResponse is the result of DecryptToken.
type DecryptionResponse struct {
	Status        DecryptionStatus
	UID           string
	Established   time.Time
	SiteID        int32
	SiteKeySiteID int32
}

// DataResponse is the result of EncryptData and DecryptData.
type DataResponse struct {
	Status      DecryptionStatus
	Payload     []byte
	EncryptedAt time.Time
}

// EncryptDataRequest is the input to EncryptData. Key, SiteID and
// AdvertisingToken are the ways to resolve the encryption key, per
// spec.md §4.6's resolution order: a set Key is used as-is and the other
// two are then ignored; SiteID and AdvertisingToken must not both be set.
// IV is optional (a fresh one is generated when nil).
type EncryptDataRequest struct {
	Data                 []byte
	Key                  *Key
	SiteID               *int32
	AdvertisingToken     *string
	InitializationVector []byte
	Now                  time.Time
}

// InvocationError reports a programmer mistake, a malformed call into the
// codec, as distinct from the data-driven DecryptionStatus taxonomy. It is
// modeled as a stable Code a caller can branch on, plus a human-readable
// Message. Unlike DecryptionStatus, an
// InvocationError is never returned inside a response struct; it is the err
// return value of the call that received the bad arguments.
type InvocationError struct {
	Code    string
	Message string
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("uid2: %s: %s", e.Code, e.Message)
}

var (
	// ErrNilData means an EncryptDataRequest had a nil Data field.
	ErrNilData = &InvocationError{Code: "NilData", Message: "data must not be nil"}

	// ErrAmbiguousKeyResolution means an EncryptDataRequest set both SiteID
	// and AdvertisingToken; only one may be used to resolve the encryption
	// key.
	ErrAmbiguousKeyResolution = &InvocationError{
		Code:    "AmbiguousKeyResolution",
		Message: "site_id and advertising_token must not both be set",
	}
)
