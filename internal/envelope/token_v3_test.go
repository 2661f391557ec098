package envelope

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/kenneth/uid2-client-go/internal/model"
)

func TestDecryptTokenV3_Success(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(10, 0, make([]byte, 16), now)
	siteKey := testKey(20, 101, make([]byte, 16), now)
	rawID := []byte("raw-identity-bytes")

	raw := buildV3Token(masterKey, siteKey, model.ScopeUID2, 101, rawID, now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	store := newTestStore(now, masterKey, siteKey)

	resp := DecryptToken(raw, store, now, model.ScopeUID2)
	if resp.Status != model.Success {
		t.Fatalf("expected Success, got %v", resp.Status)
	}
	if resp.SiteID != 101 {
		t.Fatalf("expected site id 101, got %d", resp.SiteID)
	}
	decoded, err := base64.StdEncoding.DecodeString(resp.UID)
	if err != nil {
		t.Fatalf("expected base64-encoded uid, got error: %v", err)
	}
	if string(decoded) != string(rawID) {
		t.Fatalf("expected decoded uid %q, got %q", rawID, decoded)
	}
}

func TestDecryptTokenV3_ScopeMismatch(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(10, 0, make([]byte, 16), now)
	siteKey := testKey(20, 101, make([]byte, 16), now)

	raw := buildV3Token(masterKey, siteKey, model.ScopeEUID, 101, []byte("uid"), now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	store := newTestStore(now, masterKey, siteKey)

	resp := DecryptToken(raw, store, now, model.ScopeUID2)
	if resp.Status != model.InvalidIdentityScope {
		t.Fatalf("expected InvalidIdentityScope, got %v", resp.Status)
	}
}

func TestDecryptTokenV3_Expired(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(10, 0, make([]byte, 16), now)
	siteKey := testKey(20, 101, make([]byte, 16), now)

	raw := buildV3Token(masterKey, siteKey, model.ScopeUID2, 101, []byte("uid"), now.Add(-2*time.Hour).UnixMilli(), now.Add(-time.Hour).UnixMilli())
	store := newTestStore(now, masterKey, siteKey)

	resp := DecryptToken(raw, store, now, model.ScopeUID2)
	if resp.Status != model.ExpiredToken {
		t.Fatalf("expected ExpiredToken, got %v", resp.Status)
	}
}

func TestDecryptTokenV3_UnknownMasterKey(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(10, 0, make([]byte, 16), now)
	siteKey := testKey(20, 101, make([]byte, 16), now)

	raw := buildV3Token(masterKey, siteKey, model.ScopeUID2, 101, []byte("uid"), now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	store := newTestStore(now, siteKey)

	resp := DecryptToken(raw, store, now, model.ScopeUID2)
	if resp.Status != model.NotAuthorizedForKey {
		t.Fatalf("expected NotAuthorizedForKey, got %v", resp.Status)
	}
}

func TestDecryptTokenV3_UnsupportedVersion(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(10, 0, make([]byte, 16), now)
	siteKey := testKey(20, 101, make([]byte, 16), now)

	raw := buildV3Token(masterKey, siteKey, model.ScopeUID2, 101, []byte("uid"), now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	raw[1] = 99 // corrupt the version byte
	store := newTestStore(now, masterKey, siteKey)

	resp := DecryptToken(raw, store, now, model.ScopeUID2)
	if resp.Status != model.VersionNotSupported {
		t.Fatalf("expected VersionNotSupported, got %v", resp.Status)
	}
}

func TestDecryptToken_DispatchesOnVersionByte(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(1, 0, make([]byte, 16), now)
	siteKey := testKey(2, 101, make([]byte, 16), now)
	store := newTestStore(now, masterKey, siteKey)

	v2 := buildV2Token(masterKey, siteKey, 101, "v2-uid", now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	if resp := DecryptToken(v2, store, now, model.ScopeUID2); resp.Status != model.Success || resp.UID != "v2-uid" {
		t.Fatalf("expected V2 dispatch to succeed with uid 'v2-uid', got status=%v uid=%q", resp.Status, resp.UID)
	}

	v3 := buildV3Token(masterKey, siteKey, model.ScopeUID2, 101, []byte("v3-uid"), now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	if resp := DecryptToken(v3, store, now, model.ScopeUID2); resp.Status != model.Success {
		t.Fatalf("expected V3 dispatch to succeed, got %v", resp.Status)
	}
}
