// Package audit records a structured trail of codec operations: which
// status a DecryptToken/EncryptData/DecryptData call returned, for which
// site, how long it took. Ring-buffer retention with a pluggable writer
// for the event sink.
package audit

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// EventType identifies which codec operation an AuditEvent describes.
type EventType string

const (
	EventTypeDecryptToken EventType = "decrypt_token"
	EventTypeEncryptData  EventType = "encrypt_data"
	EventTypeDecryptData  EventType = "decrypt_data"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time
	EventType EventType
	RequestID string
	Status    string
	SiteID    int32
	Success   bool
	Error     string
	Duration  time.Duration
}

// Logger is the interface the Decryptor calls into after every operation.
type Logger interface {
	Log(event *AuditEvent)
	LogDecryptToken(requestID, status string, siteID int32, success bool, err error, duration time.Duration)
	LogEncryptData(requestID, status string, siteID int32, success bool, err error, duration time.Duration)
	LogDecryptData(requestID, status string, siteID int32, success bool, err error, duration time.Duration)
}

// EventWriter is an interface for writing audit events somewhere durable.
type EventWriter interface {
	WriteEvent(event *AuditEvent)
}

type auditLogger struct {
	mu        sync.Mutex
	events    []*AuditEvent
	maxEvents int
	writer    EventWriter
}

// NewLogger creates a Logger that keeps the last maxEvents in memory and
// forwards each one to writer. A nil writer logs through logrus at info
// level on success, warn on failure.
func NewLogger(maxEvents int, writer EventWriter) Logger {
	if writer == nil {
		writer = &logrusWriter{log: logrus.StandardLogger()}
	}
	return &auditLogger{
		events:    make([]*AuditEvent, 0, maxEvents),
		maxEvents: maxEvents,
		writer:    writer,
	}
}

func (l *auditLogger) Log(event *AuditEvent) {
	l.writer.WriteEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	if len(l.events) > l.maxEvents {
		l.events = l.events[len(l.events)-l.maxEvents:]
	}
}

func (l *auditLogger) LogDecryptToken(requestID, status string, siteID int32, success bool, err error, duration time.Duration) {
	l.log(EventTypeDecryptToken, requestID, status, siteID, success, err, duration)
}

func (l *auditLogger) LogEncryptData(requestID, status string, siteID int32, success bool, err error, duration time.Duration) {
	l.log(EventTypeEncryptData, requestID, status, siteID, success, err, duration)
}

func (l *auditLogger) LogDecryptData(requestID, status string, siteID int32, success bool, err error, duration time.Duration) {
	l.log(EventTypeDecryptData, requestID, status, siteID, success, err, duration)
}

func (l *auditLogger) log(eventType EventType, requestID, status string, siteID int32, success bool, err error, duration time.Duration) {
	event := &AuditEvent{
		Timestamp: time.Now(),
		EventType: eventType,
		RequestID: requestID,
		Status:    status,
		SiteID:    siteID,
		Success:   success,
		Duration:  duration,
	}
	if err != nil {
		event.Error = err.Error()
	}
	l.Log(event)
}

// GetEvents returns a copy of the retained events, for tests.
func (l *auditLogger) GetEvents() []*AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	events := make([]*AuditEvent, len(l.events))
	copy(events, l.events)
	return events
}

type logrusWriter struct {
	log *logrus.Logger
}

func (w *logrusWriter) WriteEvent(event *AuditEvent) {
	entry := w.log.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"request_id": event.RequestID,
		"status":     event.Status,
		"site_id":    event.SiteID,
		"duration":   event.Duration,
	})
	if event.Success {
		entry.Info("uid2 codec operation")
	} else {
		entry.WithField("error", event.Error).Warn("uid2 codec operation failed")
	}
}
