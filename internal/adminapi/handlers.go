// Package adminapi implements the admin server's HTTP handlers: health,
// and a local decode-and-inspect endpoint for tokens and data payloads the
// caller already holds. Handler-struct-plus-RegisterRoutes shape, with a
// small JSON error envelope.
package adminapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/kenneth/uid2-client-go/uid2"
)

// Handler wires the admin server's routes to a bound Decryptor.
type Handler struct {
	decryptor *uid2.Decryptor
	logger    *logrus.Logger
}

// NewHandler returns a Handler serving decoder and decryptor over decryptor.
func NewHandler(decryptor *uid2.Decryptor, logger *logrus.Logger) *Handler {
	return &Handler{decryptor: decryptor, logger: logger}
}

// RegisterRoutes mounts the handler's routes on router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/debug/decode", h.handleDecodeToken).Methods(http.MethodPost)
	router.HandleFunc("/debug/decrypt-data", h.handleDecryptData).Methods(http.MethodPost)
	router.HandleFunc("/debug/encrypt-data", h.handleEncryptData).Methods(http.MethodPost)
}

// apiError is the admin server's JSON error envelope.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(apiError{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeTokenRequest carries the base64 advertising token to inspect.
type decodeTokenRequest struct {
	Token string `json:"token"`
}

type decodeTokenResponse struct {
	Status        string `json:"status"`
	UID           string `json:"uid,omitempty"`
	Established   string `json:"established,omitempty"`
	SiteID        int32  `json:"site_id,omitempty"`
	SiteKeySiteID int32  `json:"site_key_site_id,omitempty"`
}

// handleDecodeToken decrypts a caller-supplied advertising token locally.
// It never contacts the UID2 operator network; the caller is responsible
// for having obtained the token from the operator already.
func (h *Handler) handleDecodeToken(w http.ResponseWriter, r *http.Request) {
	var req decodeTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "request body must be JSON with a token field")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "token must not be empty")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "token is not valid base64")
		return
	}

	resp := h.decryptor.DecryptToken(raw, time.Now())
	out := decodeTokenResponse{
		Status:        resp.Status.String(),
		SiteID:        resp.SiteID,
		SiteKeySiteID: resp.SiteKeySiteID,
	}
	if resp.Status == uid2.Success || resp.Status == uid2.ExpiredToken {
		out.UID = resp.UID
		out.Established = resp.Established.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, out)
}

// decryptDataRequest carries the base64 data envelope to decrypt.
type decryptDataRequest struct {
	Data string `json:"data"`
}

type dataEnvelopeResponse struct {
	Status      string `json:"status"`
	Payload     string `json:"payload,omitempty"`
	EncryptedAt string `json:"encrypted_at,omitempty"`
}

func (h *Handler) handleDecryptData(w http.ResponseWriter, r *http.Request) {
	var req decryptDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "request body must be JSON with a data field")
		return
	}
	if req.Data == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "data must not be empty")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "data is not valid base64")
		return
	}

	resp := h.decryptor.DecryptData(raw)
	out := dataEnvelopeResponse{Status: resp.Status.String()}
	if resp.Status == uid2.Success {
		out.Payload = base64.StdEncoding.EncodeToString(resp.Payload)
		out.EncryptedAt = resp.EncryptedAt.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, out)
}

// encryptDataRequest carries the plaintext and one of the three key
// resolution modes EncryptDataRequest supports.
type encryptDataRequest struct {
	Data             string `json:"data"`
	SiteID           *int32 `json:"site_id,omitempty"`
	AdvertisingToken string `json:"advertising_token,omitempty"`
}

func (h *Handler) handleEncryptData(w http.ResponseWriter, r *http.Request) {
	var req encryptDataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "request body must be JSON")
		return
	}
	if req.Data == "" {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "data must not be empty")
		return
	}
	if req.SiteID != nil && req.AdvertisingToken != "" {
		writeError(w, http.StatusBadRequest, "AmbiguousKeyResolution", "site_id and advertising_token must not both be set")
		return
	}

	plaintext, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", "data is not valid base64")
		return
	}

	encReq := uid2.EncryptDataRequest{Data: plaintext, Now: time.Now()}
	if req.SiteID != nil {
		encReq.SiteID = req.SiteID
	}
	if req.AdvertisingToken != "" {
		encReq.AdvertisingToken = &req.AdvertisingToken
	}

	resp, err := h.decryptor.EncryptData(encReq)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	out := dataEnvelopeResponse{Status: resp.Status.String()}
	if resp.Status == uid2.Success {
		// EncryptData already returns the envelope base64-encoded.
		out.Payload = string(resp.Payload)
	}
	writeJSON(w, http.StatusOK, out)
}
