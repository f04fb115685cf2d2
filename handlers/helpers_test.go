package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/sessions"
	"github.com/anjiri1684/studyhub/testutil"
	"github.com/anjiri1684/studyhub/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret-for-handlers"

// setup installs a fresh database and in-memory session store.
func setup(t *testing.T) *sessions.MemoryStore {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	testutil.DB(t)

	store := sessions.NewMemoryStore()
	prev := sessions.Default
	sessions.Default = store
	t.Cleanup(func() { sessions.Default = prev })
	return store
}

func seedUser(t *testing.T, email, password, role string) models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u := models.User{
		FullName: "Minh Tran",
		Email:    email,
		Phone:    uuid.NewString()[:12],
		Password: string(hashed),
		Role:     role,
		Status:   "active",
	}
	if err := testutil.Create(&u); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// bearer issues a live access token for u.
func bearer(t *testing.T, u *models.User) string {
	t.Helper()
	token, err := utils.GenerateToken(u, sessions.AccessTTL())
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if err := sessions.Default.Save(context.Background(), sessions.Access, u.ID.String(), token, sessions.AccessTTL()); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return token
}

// call performs a request and decodes the JSON object response.
func call(t *testing.T, app *fiber.App, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	out := map[string]interface{}{}
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}
