package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/logging"
	"github.com/EconomistDigitalSolutions/aws-key-rotator/internal/rotator"
)

// WebhookHandler delivers the new key pair to an HTTP endpoint, e.g. a
// CI system's credential-update hook. Any non-2xx response fails the
// rotation and triggers the rotator's rollback of the new key.
type WebhookHandler struct {
	url    string
	token  string
	client *http.Client
}

// webhookPayload is the request body sent to the endpoint
type webhookPayload struct {
	Identity        string    `json:"identity"`
	AccessKeyID     string    `json:"access_key_id"`
	SecretAccessKey string    `json:"secret_access_key"`
	Timestamp       time.Time `json:"timestamp"`
}

// NewWebhookHandler creates a webhook propagation handler. token, when
// set, is sent as a bearer token.
func NewWebhookHandler(url, token string) (*WebhookHandler, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook handler requires 'url'")
	}
	return &WebhookHandler{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Name returns the handler name
func (h *WebhookHandler) Name() string {
	return "webhook"
}

// Handle POSTs the key pair as JSON to the configured URL.
func (h *WebhookHandler) Handle(ctx context.Context, key *rotator.Key) error {
	return openSecret(key, func(secret string) error {
		body, err := json.Marshal(webhookPayload{
			Identity:        key.Identity,
			AccessKeyID:     key.ID,
			SecretAccessKey: secret,
			Timestamp:       time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if h.token != "" {
			req.Header.Set("Authorization", "Bearer "+h.token)
		}

		resp, err := h.client.Do(req)
		if err != nil {
			return fmt.Errorf("webhook request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			// The endpoint may echo the request body back; scrub the
			// key material before it reaches logs.
			snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return fmt.Errorf("webhook returned %d: %s",
				resp.StatusCode, logging.Redact(string(snippet), []string{secret, key.ID}))
		}
		return nil
	})
}
