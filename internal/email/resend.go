package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultResendBaseURL = "https://api.resend.com"

// ResendSender delivers magic-link emails through the Resend HTTP API.
type ResendSender struct {
	apiKey  string
	from    string
	baseURL string
	client  *http.Client
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		apiKey:  apiKey,
		from:    from,
		baseURL: defaultResendBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func (s *ResendSender) SendMagicLink(ctx context.Context, to, link string) error {

	body := resendRequest{
		From:    s.from,
		To:      []string{to},
		Subject: "Your sign-in link",
		HTML: fmt.Sprintf(
			`<p>Click the link below to sign in. It expires in 15 minutes.</p>`+
				`<p><a href="%s">Sign in</a></p>`,
			link,
		),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("email: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		s.baseURL+"/emails",
		bytes.NewReader(payload),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("email: resend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("email: resend returned status %d", resp.StatusCode)
	}

	return nil
}
