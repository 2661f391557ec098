package keystore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kenneth/uid2-client-go/internal/model"
)

// fileKey is the on-disk representation of one model.Key in a key-source
// JSON file: secret is base64, timestamps are Unix milliseconds, matching
// the wire format's own timestamp convention.
type fileKey struct {
	ID          int64  `json:"id"`
	SiteID      int32  `json:"site_id"`
	Secret      string `json:"secret"`
	CreatedMs   int64  `json:"created_ms"`
	ActivatesMs int64  `json:"activates_ms"`
	ExpiresMs   int64  `json:"expires_ms"`
}

// LoadKeysFromFile parses a key-source JSON file: a top-level array of
// fileKey objects. It does not touch any MemoryKeyStore; call Refresh on
// the result.
func LoadKeysFromFile(path string) ([]model.Key, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("keystore: read %s: %w", path, err)
	}

	var raw []fileKey
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("keystore: parse %s: %w", path, err)
	}

	keys := make([]model.Key, 0, len(raw))
	for _, fk := range raw {
		secret, err := base64.StdEncoding.DecodeString(fk.Secret)
		if err != nil {
			return nil, fmt.Errorf("keystore: key %d: decode secret: %w", fk.ID, err)
		}
		keys = append(keys, model.Key{
			ID:        fk.ID,
			SiteID:    fk.SiteID,
			Secret:    secret,
			Created:   time.UnixMilli(fk.CreatedMs),
			Activates: time.UnixMilli(fk.ActivatesMs),
			Expires:   time.UnixMilli(fk.ExpiresMs),
		})
	}
	return keys, nil
}

// StartFileRefresher reloads path into store every interval, logging (but
// not failing) a load error so a transient file-write race doesn't take the
// key store offline. It runs until the process exits; the admin server owns
// its lifetime.
func StartFileRefresher(store *MemoryKeyStore, path string, interval time.Duration, logger *logrus.Logger) {
	refresh := func() {
		keys, err := LoadKeysFromFile(path)
		if err != nil {
			logger.WithError(err).WithField("path", path).Warn("keystore: refresh failed, keeping previous snapshot")
			return
		}
		store.Refresh(keys, time.Now())
		logger.WithFields(logrus.Fields{"path": path, "keys": len(keys)}).Info("keystore: refreshed")
	}

	refresh()
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			refresh()
		}
	}()
}
