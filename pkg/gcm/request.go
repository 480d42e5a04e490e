package gcm

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// SendRequest addresses one message to one device registration.
type SendRequest struct {
	RegistrationID string
	// Data is forwarded untouched as the "data" member of the payload.
	Data   any
	DryRun bool
	// Headers are applied over the default headers and win on collision.
	Headers map[string]string
}

type wirePayload struct {
	RegistrationIDs []string `json:"registration_ids"`
	Data            any      `json:"data"`
	DryRun          bool     `json:"dry_run,omitempty"`
}

// EncodePayload renders the JSON body for req. dry_run is only present when
// requested; some services treat the presence of the key as the signal.
func EncodePayload(req SendRequest) ([]byte, error) {
	if req.RegistrationID == "" {
		return nil, ErrEmptyRegistrationID
	}
	body, err := json.Marshal(wirePayload{
		RegistrationIDs: []string{req.RegistrationID},
		Data:            req.Data,
		DryRun:          req.DryRun,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return body, nil
}

// BuildHeaders returns the authorization and content headers, with extra
// merged on top.
func BuildHeaders(apiKey string, extra map[string]string) http.Header {
	h := make(http.Header, 2+len(extra))
	h.Set("Authorization", "key="+apiKey)
	h.Set("Content-Type", "application/json")
	for k, v := range extra {
		h.Set(k, v)
	}
	return h
}
