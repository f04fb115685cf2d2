package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/sessions"
	"github.com/anjiri1684/studyhub/testutil"
	"github.com/anjiri1684/studyhub/utils"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

func setup(t *testing.T) (*fiber.App, *sessions.MemoryStore) {
	t.Helper()
	t.Setenv("JWT_SECRET", "middleware-secret")
	testutil.DB(t)

	store := sessions.NewMemoryStore()
	prev := sessions.Default
	sessions.Default = store
	t.Cleanup(func() { sessions.Default = prev })

	app := fiber.New()
	app.Get("/me", Protected(), func(c *fiber.Ctx) error {
		id, _ := UserID(c)
		return c.JSON(fiber.Map{"userId": id.String()})
	})
	app.Get("/admin", Protected(), AdminRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, store
}

func seedUser(t *testing.T, role string) *models.User {
	t.Helper()
	u := &models.User{FullName: "Hoa Le", Email: uuid.NewString() + "@example.com", Phone: uuid.NewString()[:12], Password: "x", Role: role, Status: "active"}
	if err := database.DB.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func issue(t *testing.T, store sessions.Store, u *models.User, ttl time.Duration) string {
	t.Helper()
	tok, err := utils.GenerateToken(u, ttl)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if err := store.Save(context.Background(), sessions.Access, u.ID.String(), tok, time.Hour); err != nil {
		t.Fatalf("save token: %v", err)
	}
	return tok
}

func call(t *testing.T, app *fiber.App, path, token string) (int, string) {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp.StatusCode, body.Error
}

func TestProtected(t *testing.T) {
	app, store := setup(t)
	user := seedUser(t, models.RoleStudent)
	live := issue(t, store, user, time.Hour)

	revoked := issue(t, store, user, time.Hour)
	if err := store.RemoveToken(context.Background(), user.ID.String(), revoked); err != nil {
		t.Fatalf("remove: %v", err)
	}
	expired, _ := utils.GenerateToken(user, -time.Minute)
	unstored, _ := utils.GenerateToken(user, time.Hour)
	reset, _ := utils.GenerateResetToken(user, time.Hour)
	_ = store.Save(context.Background(), sessions.Access, user.ID.String(), reset, time.Hour)

	tests := []struct {
		name       string
		token      string
		wantStatus int
		wantError  string
	}{
		{name: "live token", token: live, wantStatus: fiber.StatusOK},
		{name: "missing token", wantStatus: fiber.StatusUnauthorized, wantError: "Access token is required"},
		{name: "garbage token", token: "a.b.c", wantStatus: fiber.StatusUnauthorized, wantError: "Invalid token"},
		{name: "expired token", token: expired, wantStatus: fiber.StatusUnauthorized, wantError: "Token expired"},
		{name: "revoked token", token: revoked, wantStatus: fiber.StatusUnauthorized, wantError: "Token has been invalidated or expired"},
		{name: "signed but never stored", token: unstored, wantStatus: fiber.StatusUnauthorized, wantError: "Token has been invalidated or expired"},
		{name: "reset token", token: reset, wantStatus: fiber.StatusUnauthorized, wantError: "Invalid token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := call(t, app, "/me", tc.token)
			if status != tc.wantStatus || msg != tc.wantError {
				t.Fatalf("got %d %q, want %d %q", status, msg, tc.wantStatus, tc.wantError)
			}
		})
	}
}

func TestAdminRequired(t *testing.T) {
	app, store := setup(t)
	student := seedUser(t, models.RoleStudent)
	admin := seedUser(t, models.RoleAdmin)

	if status, msg := call(t, app, "/admin", issue(t, store, student, time.Hour)); status != fiber.StatusForbidden || msg != "Admin access required" {
		t.Fatalf("student got %d %q", status, msg)
	}
	adminToken := issue(t, store, admin, time.Hour)
	if status, _ := call(t, app, "/admin", adminToken); status != fiber.StatusNoContent {
		t.Fatalf("admin got %d", status)
	}

	database.DB.Model(admin).Update("role", models.RoleStudent)
	if status, _ := call(t, app, "/admin", adminToken); status != fiber.StatusForbidden {
		t.Fatalf("demoted admin got %d, want 403", status)
	}
}
