package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultSMSBaseURL = "https://www.smslocal.com/dev/bulkV2"
	defaultSMSTimeout = 15 * time.Second
)

// SMSLocalClient sends OTP SMS through the SMS Local bulk API (route=otp).
type SMSLocalClient struct {
	APIKey     string
	BaseURL    string
	Sender     string
	HTTPClient *http.Client
}

// NewSMSLocalClient returns a client for apiKey. Empty baseURL selects the public endpoint.
func NewSMSLocalClient(apiKey, baseURL, sender string) *SMSLocalClient {
	if baseURL == "" {
		baseURL = defaultSMSBaseURL
	}
	return &SMSLocalClient{
		APIKey:     apiKey,
		BaseURL:    baseURL,
		Sender:     sender,
		HTTPClient: &http.Client{Timeout: defaultSMSTimeout},
	}
}

type smsRequest struct {
	Route     string `json:"route"`
	Numbers   string `json:"numbers"`
	Variables string `json:"variables"`
	Sender    string `json:"sender_id,omitempty"`
}

// SendOTP texts msg.Code to msg.Phone. The code is never logged.
func (c *SMSLocalClient) SendOTP(ctx context.Context, msg Message) error {
	if c.APIKey == "" {
		return fmt.Errorf("sms: API key not configured")
	}
	if msg.Phone == "" {
		return ErrNoRecipient
	}
	raw, err := json.Marshal(smsRequest{Route: "otp", Numbers: msg.Phone, Variables: msg.Code, Sender: c.Sender})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL, bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.APIKey)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms: request failed status=%d body=%s", resp.StatusCode, string(b))
	}
	return nil
}
