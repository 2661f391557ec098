// Package uid2 is the public surface of the UID2 client core: a token
// codec that decrypts opaque advertising tokens into a user identifier,
// and encrypts/decrypts arbitrary data payloads using site-scoped
// symmetric keys. It does not poll for key refreshes or talk to the UID2
// operator network; callers supply a KeyStore and the current time.
package uid2

import "github.com/kenneth/uid2-client-go/internal/model"

// IdentityScope distinguishes the two deployment scopes of the identity
// framework. It is fixed when a Decryptor is constructed and never
// changes over the Decryptor's lifetime. It is configuration, not
// envelope state.
type IdentityScope = model.IdentityScope

const (
	// ScopeUID2 is the UID2 deployment scope.
	ScopeUID2 = model.ScopeUID2
	// ScopeEUID is the EUID deployment scope.
	ScopeEUID = model.ScopeEUID
)
