package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewSMSLocalClient_Defaults(t *testing.T) {
	client := NewSMSLocalClient("api-key", "", "")
	if client.BaseURL != defaultSMSBaseURL {
		t.Errorf("BaseURL = %q, want default", client.BaseURL)
	}
	if client.HTTPClient == nil || client.HTTPClient.Timeout != defaultSMSTimeout {
		t.Errorf("HTTPClient timeout not set")
	}
	if c := NewSMSLocalClient("k", "https://custom.sms.local/api", "TEST"); c.BaseURL != "https://custom.sms.local/api" || c.Sender != "TEST" {
		t.Errorf("custom client = %+v", c)
	}
}

func TestSMSLocalClient_SendOTP(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if r.Header.Get("Authorization") != "test-api-key" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		var body smsRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		if body.Route != "otp" || body.Numbers != "919999999999" || body.Variables != "123456" || body.Sender != "PORTAL" {
			t.Errorf("body = %+v", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewSMSLocalClient("test-api-key", server.URL, "PORTAL")
	err := client.SendOTP(context.Background(), Message{Phone: "919999999999", Code: "123456"})
	if err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
}

func TestSMSLocalClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewSMSLocalClient("k", server.URL, "")
	err := client.SendOTP(context.Background(), Message{Phone: "1", Code: "1"})
	if err == nil || !strings.Contains(err.Error(), "status=401") {
		t.Errorf("err = %v; want status=401", err)
	}
	if err := client.SendOTP(context.Background(), Message{Code: "1"}); !errors.Is(err, ErrNoRecipient) {
		t.Errorf("missing phone err = %v; want ErrNoRecipient", err)
	}
	if err := NewSMSLocalClient("", server.URL, "").SendOTP(context.Background(), Message{Phone: "1"}); err == nil {
		t.Error("missing API key should fail")
	}
}

func TestSMSLocalClient_ContextDeadline(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewSMSLocalClient("k", server.URL, "")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := client.SendOTP(ctx, Message{Phone: "1", Code: "1"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v; want DeadlineExceeded", err)
	}
}
