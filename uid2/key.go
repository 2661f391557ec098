package uid2

import "github.com/kenneth/uid2-client-go/internal/model"

// Key is one entry in the master/site key hierarchy. It is immutable once
// loaded; the core never mutates a Key, it only reads one through a
// KeyStore.
type Key = model.Key

// KeyStore is the read-only lookup contract the codec consumes. It is the
// sole shared mutable resource in the system and is owned outside the
// core; an implementation must be safe for concurrent reads.
type KeyStore = model.KeyStore
