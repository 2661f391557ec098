package uid2

import "github.com/kenneth/uid2-client-go/internal/model"

// EncryptDataRequest is the input to Decryptor.EncryptData. Key, SiteID and
// AdvertisingToken are the ways to resolve the encryption key: a set Key is
// used as-is and the other two are then ignored; SiteID and
// AdvertisingToken must not both be set. InitializationVector is optional
// and a fresh one is generated when nil.
type EncryptDataRequest = model.EncryptDataRequest
