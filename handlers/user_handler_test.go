package handlers

import (
	"testing"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/gofiber/fiber/v2"
)

func TestUpdateUserByID(t *testing.T) {
	setup(t)
	app := fiber.New()
	app.Put("/users/:id", middleware.Protected(), UpdateUserByID)

	owner := seedUser(t, "owner@example.com", "Secret1!pass", models.RoleStudent)
	other := seedUser(t, "other@example.com", "Secret1!pass", models.RoleStudent)
	admin := seedUser(t, "admin@example.com", "Secret1!pass", models.RoleAdmin)

	tests := []struct {
		name       string
		caller     *models.User
		body       map[string]interface{}
		wantStatus int
		wantRole   string
	}{
		{name: "other student forbidden", caller: &other, body: map[string]interface{}{"fullName": "Someone Else"}, wantStatus: fiber.StatusForbidden},
		{name: "owner cannot promote", caller: &owner, body: map[string]interface{}{"role": "admin"}, wantStatus: fiber.StatusOK, wantRole: models.RoleStudent},
		{name: "admin can promote", caller: &admin, body: map[string]interface{}{"role": "admin"}, wantStatus: fiber.StatusOK, wantRole: models.RoleAdmin},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := call(t, app, "PUT", "/users/"+owner.ID.String(), bearer(t, tc.caller), tc.body)
			if status != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%v)", status, tc.wantStatus, body)
			}
			if tc.wantRole == "" {
				return
			}
			var got models.User
			if err := database.DB.First(&got, "id = ?", owner.ID).Error; err != nil {
				t.Fatalf("reload: %v", err)
			}
			if got.Role != tc.wantRole {
				t.Fatalf("role = %q, want %q", got.Role, tc.wantRole)
			}
		})
	}
}

func TestMissingFields(t *testing.T) {
	tests := []struct {
		present []bool
		want    string
	}{
		{present: []bool{true, true, true}, want: ""},
		{present: []bool{false, true, false}, want: "Missing required fields: userId, content"},
	}
	for _, tc := range tests {
		if got := missingFields([]string{"userId", "rating", "content"}, tc.present); got != tc.want {
			t.Errorf("missingFields(%v) = %q, want %q", tc.present, got, tc.want)
		}
	}
}
