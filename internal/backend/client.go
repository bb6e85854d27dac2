package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client talks to the backend identity system. The gateway only ever
// mirrors records into it best-effort; nothing here is on a request's
// critical path.
type Client struct {
	baseURL string
	client  *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type webRegisterRequest struct {
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name,omitempty"`
	WebUserID   string  `json:"web_user_id"`
}

type webRegisterResponse struct {
	ID string `json:"id"`
}

// RegisterWebUser mirrors a locally created user into the backend and
// returns the backend's identifier. The backend treats the call as
// idempotent on web_user_id, so retries are safe.
func (c *Client) RegisterWebUser(
	ctx context.Context,
	email string,
	displayName *string,
	webUserID string,
) (string, error) {

	payload, err := json.Marshal(webRegisterRequest{
		Email:       email,
		DisplayName: displayName,
		WebUserID:   webUserID,
	})
	if err != nil {
		return "", fmt.Errorf("backend: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/users/web-register",
		bytes.NewReader(payload),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("backend: web-register request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("backend: web-register returned status %d", resp.StatusCode)
	}

	var body webRegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("backend: failed to decode response: %w", err)
	}
	if body.ID == "" {
		return "", fmt.Errorf("backend: web-register response missing id")
	}

	return body.ID, nil
}
