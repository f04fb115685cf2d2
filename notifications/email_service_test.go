package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func withClient(t *testing.T, handler http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	prev := EmailClient
	EmailClient = &BrevoService{APIKey: "key-123", SenderEmail: "noreply@studyhub.test", SenderName: "StudyHub", URL: srv.URL, HTTPClient: srv.Client()}
	t.Cleanup(func() { EmailClient = prev })
}

func TestSendPasswordReset(t *testing.T) {
	var got brevoPayload
	withClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("api-key") != "key-123" {
			t.Errorf("api-key header = %q", r.Header.Get("api-key"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	})

	if err := SendPasswordReset("", "lan@example.com", "https://app.test/reset-password?token=abc"); err != nil {
		t.Fatalf("SendPasswordReset: %v", err)
	}
	if got.To[0]["email"] != "lan@example.com" || got.To[0]["name"] != "lan" {
		t.Fatalf("recipient = %v", got.To)
	}
	if !strings.Contains(got.HTMLContent, "reset-password?token=abc") {
		t.Fatalf("body = %s", got.HTMLContent)
	}
}

func TestSendEmailErrors(t *testing.T) {
	withClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
	})

	if err := SendWelcome("Lan", "lan@example.com"); err == nil || !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v, want 401 failure", err)
	}
	if err := SendEmail("Lan", "not-an-email", "s", "b"); err == nil {
		t.Fatal("invalid recipient should fail")
	}

	EmailClient = nil
	if err := SendWelcome("Lan", "lan@example.com"); err != nil {
		t.Fatalf("unconfigured client should be a no-op, got %v", err)
	}
}
