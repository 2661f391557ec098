package audit

import (
	"testing"
	"time"
)

func TestAuditLogger_LogDecryptToken(t *testing.T) {
	logger := NewLogger(100, nil)

	logger.LogDecryptToken("req-1", "Success", 42, true, nil, 100*time.Microsecond)

	events := logger.(*auditLogger).GetEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.EventType != EventTypeDecryptToken {
		t.Fatalf("expected event type %s, got %s", EventTypeDecryptToken, event.EventType)
	}
	if event.SiteID != 42 {
		t.Fatalf("expected site id 42, got %d", event.SiteID)
	}
	if !event.Success {
		t.Fatal("expected success to be true")
	}
}

func TestAuditLogger_LogEncryptData(t *testing.T) {
	logger := NewLogger(100, nil)

	logger.LogEncryptData("req-2", "Success", 7, true, nil, 50*time.Microsecond)

	events := logger.(*auditLogger).GetEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].EventType != EventTypeEncryptData {
		t.Fatalf("expected event type %s, got %s", EventTypeEncryptData, events[0].EventType)
	}
}

func TestAuditLogger_MaxEvents(t *testing.T) {
	logger := NewLogger(5, nil)

	for i := 0; i < 10; i++ {
		logger.LogDecryptData("req", "Success", 1, true, nil, time.Microsecond)
	}

	events := logger.(*auditLogger).GetEvents()
	if len(events) != 5 {
		t.Fatalf("expected 5 events (max), got %d", len(events))
	}
}

func TestAuditLogger_LogError(t *testing.T) {
	logger := NewLogger(100, nil)

	err := &testError{msg: "test error"}
	logger.LogDecryptToken("req-3", "InvalidPayload", 0, false, err, time.Microsecond)

	events := logger.(*auditLogger).GetEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	event := events[0]
	if event.Success {
		t.Fatal("expected success to be false")
	}
	if event.Error != "test error" {
		t.Fatalf("expected error 'test error', got %s", event.Error)
	}
}

type testError struct {
	msg string
}

func (e *testError) Error() string {
	return e.msg
}
