package bench

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenneth/uid2-client-go/internal/keystore"
	"github.com/kenneth/uid2-client-go/internal/model"
	"github.com/kenneth/uid2-client-go/uid2"
)

func newBenchDecryptor(t *testing.T) (*uid2.Decryptor, model.Key, model.Key) {
	now := time.Now()
	masterKey := model.Key{ID: 1, SiteID: 0, Secret: bytes.Repeat([]byte{0x01}, 32), Created: now.Add(-time.Hour), Activates: now.Add(-time.Hour), Expires: now.Add(time.Hour)}
	siteKey := model.Key{ID: 2, SiteID: 101, Secret: bytes.Repeat([]byte{0x02}, 32), Created: now.Add(-time.Hour), Activates: now.Add(-time.Hour), Expires: now.Add(time.Hour)}

	store := keystore.NewMemoryKeyStore(0)
	store.Refresh([]model.Key{masterKey, siteKey}, now)

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	return uid2.NewDecryptor(uid2.ScopeUID2, store, uid2.WithLogger(logger)), masterKey, siteKey
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func TestGenerateV2Tokens_DecryptSuccessfully(t *testing.T) {
	decryptor, masterKey, siteKey := newBenchDecryptor(t)
	now := time.Now()

	tokens, err := GenerateV2Tokens(5, masterKey, siteKey, siteKey.SiteID, now.UnixMilli(), now.Add(time.Hour).UnixMilli())
	if err != nil {
		t.Fatalf("GenerateV2Tokens: %v", err)
	}
	if len(tokens) != 5 {
		t.Fatalf("expected 5 tokens, got %d", len(tokens))
	}

	for _, token := range tokens {
		resp := decryptor.DecryptToken(token, now)
		if resp.Status != uid2.Success {
			t.Fatalf("expected Success, got %v", resp.Status)
		}
	}
}

func TestGenerateV3Tokens_DecryptSuccessfully(t *testing.T) {
	decryptor, masterKey, siteKey := newBenchDecryptor(t)
	now := time.Now()

	tokens, err := GenerateV3Tokens(5, masterKey, siteKey, uid2.ScopeUID2, siteKey.SiteID, now.UnixMilli(), now.Add(time.Hour).UnixMilli())
	if err != nil {
		t.Fatalf("GenerateV3Tokens: %v", err)
	}

	for _, token := range tokens {
		resp := decryptor.DecryptToken(token, now)
		if resp.Status != uid2.Success {
			t.Fatalf("expected Success, got %v", resp.Status)
		}
	}
}

func TestGenerateV2DataEnvelopes_DecryptSuccessfully(t *testing.T) {
	decryptor, _, siteKey := newBenchDecryptor(t)
	now := time.Now()

	envelopes, err := GenerateV2DataEnvelopes(3, siteKey, siteKey.SiteID, now.UnixMilli(), 32)
	if err != nil {
		t.Fatalf("GenerateV2DataEnvelopes: %v", err)
	}

	for _, envelope := range envelopes {
		resp := decryptor.DecryptData(envelope)
		if resp.Status != uid2.Success {
			t.Fatalf("expected Success, got %v", resp.Status)
		}
	}
}

func TestRunDecryptTokenBench(t *testing.T) {
	decryptor, masterKey, siteKey := newBenchDecryptor(t)
	now := time.Now()

	tokens, err := GenerateV2Tokens(10, masterKey, siteKey, siteKey.SiteID, now.UnixMilli(), now.Add(time.Hour).UnixMilli())
	if err != nil {
		t.Fatalf("GenerateV2Tokens: %v", err)
	}

	cfg := Config{NumWorkers: 2, Duration: 50 * time.Millisecond}
	m, err := RunDecryptTokenBench(cfg, decryptor, tokens, quietLogger())
	if err != nil {
		t.Fatalf("RunDecryptTokenBench: %v", err)
	}
	if m.TotalOperations == 0 {
		t.Fatal("expected at least one operation")
	}
	if m.SuccessfulOps != m.TotalOperations {
		t.Fatalf("expected all operations to succeed, got %d/%d", m.SuccessfulOps, m.TotalOperations)
	}
}

func TestRunEncryptDataBench(t *testing.T) {
	decryptor, _, siteKey := newBenchDecryptor(t)

	cfg := Config{NumWorkers: 2, Duration: 50 * time.Millisecond}
	m, err := RunEncryptDataBench(cfg, decryptor, siteKey.SiteID, []byte("bench payload"), quietLogger())
	if err != nil {
		t.Fatalf("RunEncryptDataBench: %v", err)
	}
	if m.TotalOperations == 0 {
		t.Fatal("expected at least one operation")
	}
}

func TestAnalyzeRegression_DetectsLatencyRegression(t *testing.T) {
	dir := t.TempDir()
	baselineFile := filepath.Join(dir, "baseline.json")

	baseline := &Metrics{Operation: "decrypt_token", AvgLatency: 10 * time.Microsecond, Throughput: 1000, ErrorRate: 0}
	if err := saveBaseline(baseline, baselineFile); err != nil {
		t.Fatalf("saveBaseline: %v", err)
	}

	current := &Metrics{Operation: "decrypt_token", AvgLatency: 50 * time.Microsecond, Throughput: 200, ErrorRate: 0}
	result, err := AnalyzeRegression(current, baselineFile, 10.0)
	if err != nil {
		t.Fatalf("AnalyzeRegression: %v", err)
	}
	if !result.SignificantRegression {
		t.Fatal("expected a significant regression")
	}
}

func TestAnalyzeRegression_MissingBaseline(t *testing.T) {
	_, err := AnalyzeRegression(&Metrics{}, "/nonexistent/baseline.json", 10.0)
	if err == nil {
		t.Fatal("expected an error for a missing baseline file")
	}
	if !os.IsNotExist(err) {
		t.Fatalf("expected a not-exist error, got %v", err)
	}
}
