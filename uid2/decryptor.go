package uid2

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kenneth/uid2-client-go/internal/audit"
	"github.com/kenneth/uid2-client-go/internal/envelope"
	"github.com/kenneth/uid2-client-go/internal/metrics"
	"github.com/kenneth/uid2-client-go/internal/telemetry"
)

// Decryptor is the codec's public entry point: a KeyStore and an
// IdentityScope bound once at construction, per spec §9's "scope is
// configuration, not envelope state". DecryptToken, EncryptData and
// DecryptData are safe for concurrent use as long as the KeyStore is.
type Decryptor struct {
	scope   IdentityScope
	keys    KeyStore
	logger  *logrus.Logger
	metrics *metrics.Recorder
	audit   audit.Logger
	tracing bool
}

// Option configures a Decryptor at construction time.
type Option func(*Decryptor)

// WithLogger attaches a logrus.Logger for diagnostic (non-audit) logging.
// The default is logrus.StandardLogger().
func WithLogger(logger *logrus.Logger) Option {
	return func(d *Decryptor) { d.logger = logger }
}

// WithMetrics registers every codec call against recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(d *Decryptor) { d.metrics = recorder }
}

// WithAuditLogger records a structured audit trail of every codec call.
func WithAuditLogger(logger audit.Logger) Option {
	return func(d *Decryptor) { d.audit = logger }
}

// WithTracing wraps every codec call in an OpenTelemetry span when enabled.
func WithTracing(enabled bool) Option {
	return func(d *Decryptor) { d.tracing = enabled }
}

// NewDecryptor binds scope and keys for the lifetime of the returned
// Decryptor.
func NewDecryptor(scope IdentityScope, keys KeyStore, opts ...Option) *Decryptor {
	d := &Decryptor{
		scope:  scope,
		keys:   keys,
		logger: logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DecryptToken decrypts raw into a DecryptionResponse using now as the
// current time and the Decryptor's bound KeyStore and scope.
func (d *Decryptor) DecryptToken(raw []byte, now time.Time) DecryptionResponse {
	requestID := uuid.NewString()
	start := time.Now()
	var resp DecryptionResponse

	d.traced("decrypt_token", 0, func() string {
		resp = envelope.DecryptToken(raw, d.keys, now, d.scope)
		return resp.Status.String()
	})

	d.record("decrypt_token", requestID, resp.Status.String(), resp.SiteID, resp.Status == Success, time.Since(start))
	return resp
}

// EncryptData resolves a site key per req's resolution order and returns a
// base64-encoded V3 data envelope. The returned error is non-nil only for
// caller mistakes (ErrNilData, ErrAmbiguousKeyResolution).
func (d *Decryptor) EncryptData(req EncryptDataRequest) (DataResponse, error) {
	requestID := uuid.NewString()
	start := time.Now()
	siteID := int32(0)
	if req.SiteID != nil {
		siteID = *req.SiteID
	}

	var resp DataResponse
	var err error
	d.traced("encrypt_data", siteID, func() string {
		resp, err = envelope.EncryptData(req, d.keys, d.scope)
		return resp.Status.String()
	})

	d.record("encrypt_data", requestID, resp.Status.String(), siteID, err == nil && resp.Status == Success, time.Since(start))
	return resp, err
}

// DecryptData decrypts raw into a DataResponse using the Decryptor's bound
// KeyStore and scope.
func (d *Decryptor) DecryptData(raw []byte) DataResponse {
	requestID := uuid.NewString()
	start := time.Now()
	var resp DataResponse

	d.traced("decrypt_data", 0, func() string {
		resp = envelope.DecryptData(raw, d.keys, d.scope)
		return resp.Status.String()
	})

	d.record("decrypt_data", requestID, resp.Status.String(), 0, resp.Status == Success, time.Since(start))
	return resp
}

// traced runs fn, wrapping it in an OpenTelemetry span when tracing is
// enabled. fn returns the DecryptionStatus string the span is tagged with.
func (d *Decryptor) traced(operation string, siteID int32, fn func() string) {
	if !d.tracing {
		fn()
		return
	}
	_, span := telemetry.StartOperation(context.Background(), operation, siteID)
	status := fn()
	telemetry.EndOperation(span, status)
}

func (d *Decryptor) record(operation, requestID, status string, siteID int32, success bool, duration time.Duration) {
	if d.metrics != nil {
		d.metrics.RecordOperation(operation, status, duration)
	}
	if d.audit != nil {
		switch operation {
		case "decrypt_token":
			d.audit.LogDecryptToken(requestID, status, siteID, success, nil, duration)
		case "encrypt_data":
			d.audit.LogEncryptData(requestID, status, siteID, success, nil, duration)
		case "decrypt_data":
			d.audit.LogDecryptData(requestID, status, siteID, success, nil, duration)
		}
	}
	d.logger.WithFields(logrus.Fields{
		"operation":  operation,
		"request_id": requestID,
		"status":     status,
		"duration":   duration,
	}).Debug("uid2 codec call")
}
