package envelope

import (
	"errors"
	"testing"
	"time"

	"github.com/kenneth/uid2-client-go/internal/keystore"
	"github.com/kenneth/uid2-client-go/internal/model"
)

func TestEncryptData_NilDataIsInvocationError(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newTestStore(now)

	_, err := EncryptData(model.EncryptDataRequest{Now: now}, store, model.ScopeUID2)
	if !errors.Is(err, model.ErrNilData) {
		t.Fatalf("expected ErrNilData, got %v", err)
	}
}

func TestEncryptData_AmbiguousResolutionIsInvocationError(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newTestStore(now)
	siteID := int32(101)
	token := "dG9rZW4="

	_, err := EncryptData(model.EncryptDataRequest{
		Data:             []byte("x"),
		SiteID:           &siteID,
		AdvertisingToken: &token,
		Now:              now,
	}, store, model.ScopeUID2)
	if !errors.Is(err, model.ErrAmbiguousKeyResolution) {
		t.Fatalf("expected ErrAmbiguousKeyResolution, got %v", err)
	}
}

func TestEncryptData_ExplicitKeyInactive(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newTestStore(now)
	inactive := testKey(1, 101, make([]byte, 16), now)
	inactive.Activates = now.Add(time.Hour) // not yet active

	resp, err := EncryptData(model.EncryptDataRequest{
		Data: []byte("x"),
		Key:  &inactive,
		Now:  now,
	}, store, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.KeyInactive {
		t.Fatalf("expected KeyInactive, got %v", resp.Status)
	}
}

func TestEncryptData_ExplicitKeySucceeds(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newTestStore(now)
	key := testKey(1, 101, make([]byte, 16), now)

	resp, err := EncryptData(model.EncryptDataRequest{
		Data: []byte("explicit key payload"),
		Key:  &key,
		Now:  now,
	}, store, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.Success {
		t.Fatalf("expected Success, got %v", resp.Status)
	}
}

func TestEncryptData_NotInitialized(t *testing.T) {
	now := time.Unix(1700000000, 0)
	siteID := int32(101)

	resp, err := EncryptData(model.EncryptDataRequest{
		Data:   []byte("x"),
		SiteID: &siteID,
		Now:    now,
	}, nil, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.NotInitialized {
		t.Fatalf("expected NotInitialized, got %v", resp.Status)
	}
}

func TestEncryptData_KeysNotSynced(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := keystore.NewMemoryKeyStore(time.Minute) // never refreshed, IsValid is false
	siteID := int32(101)

	resp, err := EncryptData(model.EncryptDataRequest{
		Data:   []byte("x"),
		SiteID: &siteID,
		Now:    now,
	}, store, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.KeysNotSynced {
		t.Fatalf("expected KeysNotSynced, got %v", resp.Status)
	}
}

func TestEncryptData_NotAuthorizedForSite(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newTestStore(now)
	siteID := int32(999)

	resp, err := EncryptData(model.EncryptDataRequest{
		Data:   []byte("x"),
		SiteID: &siteID,
		Now:    now,
	}, store, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.NotAuthorizedForKey {
		t.Fatalf("expected NotAuthorizedForKey, got %v", resp.Status)
	}
}

func TestEncryptData_ResolvesSiteIDFromAdvertisingToken(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(1, 0, make([]byte, 16), now)
	tokenSiteKey := testKey(2, 101, make([]byte, 16), now)
	dataKey := testKey(3, 101, make([]byte, 16), now)
	store := newTestStore(now, masterKey, tokenSiteKey, dataKey)

	rawToken := buildV2Token(masterKey, tokenSiteKey, 101, "some-uid", now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	encodedToken := base64Encode(rawToken)

	resp, err := EncryptData(model.EncryptDataRequest{
		Data:             []byte("token-resolved payload"),
		AdvertisingToken: &encodedToken,
		Now:              now,
	}, store, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.Success {
		t.Fatalf("expected Success, got %v", resp.Status)
	}

	decoded, err := decodeBase64(resp.Payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decResp := DecryptData(decoded, store, model.ScopeUID2)
	if decResp.Status != model.Success {
		t.Fatalf("expected decrypt Success, got %v", decResp.Status)
	}
	if string(decResp.Payload) != "token-resolved payload" {
		t.Fatalf("expected round-tripped payload, got %q", decResp.Payload)
	}
}

func TestEncryptData_ResolvesSiteKeySiteIDNotIdentitySiteID(t *testing.T) {
	now := time.Unix(1700000000, 0)
	masterKey := testKey(1, 0, make([]byte, 16), now)
	// The site key belongs to site 202, but the identity encoded inside
	// the token claims site 101. Key resolution must use the site key's
	// site, not the identity's, or this would encrypt under the wrong key.
	tokenSiteKey := testKey(2, 202, make([]byte, 16), now)
	dataKey := testKey(3, 202, make([]byte, 16), now)
	store := newTestStore(now, masterKey, tokenSiteKey, dataKey)

	rawToken := buildV2Token(masterKey, tokenSiteKey, 101, "some-uid", now.Add(-time.Hour).UnixMilli(), now.Add(time.Hour).UnixMilli())
	encodedToken := base64Encode(rawToken)

	resp, err := EncryptData(model.EncryptDataRequest{
		Data:             []byte("site-key-resolved payload"),
		AdvertisingToken: &encodedToken,
		Now:              now,
	}, store, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.Success {
		t.Fatalf("expected Success, got %v", resp.Status)
	}

	decoded, err := decodeBase64(resp.Payload)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	decResp := DecryptData(decoded, store, model.ScopeUID2)
	if decResp.Status != model.Success {
		t.Fatalf("expected decrypt Success, got %v", decResp.Status)
	}
	if string(decResp.Payload) != "site-key-resolved payload" {
		t.Fatalf("expected round-tripped payload, got %q", decResp.Payload)
	}

	// A store whose only active key is for the identity's site_id (101),
	// not the site key's actual site (202), must fail resolution: this is
	// what catches a regression back to using resp.SiteID. The token's
	// site key stays in the store so the token still decrypts, but it is
	// not yet active, so site 202 has no active key.
	wrongSiteKey := testKey(4, 101, make([]byte, 16), now)
	inactiveTokenSiteKey := tokenSiteKey
	inactiveTokenSiteKey.Activates = now.Add(time.Hour)
	onlyIdentitySiteStore := newTestStore(now, masterKey, inactiveTokenSiteKey, wrongSiteKey)
	resp2, err := EncryptData(model.EncryptDataRequest{
		Data:             []byte("x"),
		AdvertisingToken: &encodedToken,
		Now:              now,
	}, onlyIdentitySiteStore, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Status != model.NotAuthorizedForKey {
		t.Fatalf("expected NotAuthorizedForKey when only the identity site's key is available, got %v", resp2.Status)
	}
}

func TestEncryptData_AdvertisingTokenDecryptFailure(t *testing.T) {
	now := time.Unix(1700000000, 0)
	store := newTestStore(now)
	garbage := base64Encode([]byte("not a real token"))

	resp, err := EncryptData(model.EncryptDataRequest{
		Data:             []byte("x"),
		AdvertisingToken: &garbage,
		Now:              now,
	}, store, model.ScopeUID2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != model.TokenDecryptFailure {
		t.Fatalf("expected TokenDecryptFailure, got %v", resp.Status)
	}
}
