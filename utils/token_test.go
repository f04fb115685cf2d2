package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/anjiri1684/studyhub/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

func testUser() *models.User {
	u := &models.User{FullName: "Minh Tran", Email: "minh@example.com", Role: models.RoleStudent}
	u.ID = uuid.New()
	return u
}

func TestGenerateAndParseToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	user := testUser()

	tok, err := GenerateToken(user, time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	id, err := UserIDFromClaims(claims)
	if err != nil || id != user.ID {
		t.Fatalf("user id = %v, %v", id, err)
	}
	if claims["email"] != user.Email || claims["role"] != models.RoleStudent || Purpose(claims) != "" {
		t.Fatalf("claims = %v", claims)
	}

	other, _ := GenerateToken(user, time.Minute)
	if other == tok {
		t.Fatal("tokens issued in the same second should differ")
	}
}

func TestParseTokenRejects(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	user := testUser()

	expired, _ := GenerateToken(user, -time.Minute)
	if _, err := ParseToken(expired); !errors.Is(err, jwt.ErrTokenExpired) {
		t.Fatalf("expired token err = %v", err)
	}

	t.Setenv("JWT_SECRET", "another-secret")
	valid, _ := GenerateToken(user, time.Minute)
	t.Setenv("JWT_SECRET", "unit-test-secret")
	if _, err := ParseToken(valid); err == nil {
		t.Fatal("token signed with another key should be rejected")
	}
}

func TestResetTokenPurpose(t *testing.T) {
	t.Setenv("JWT_SECRET", "unit-test-secret")
	tok, err := GenerateResetToken(testUser(), 15*time.Minute)
	if err != nil {
		t.Fatalf("GenerateResetToken: %v", err)
	}
	claims, err := ParseToken(tok)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if Purpose(claims) != PurposePasswordReset {
		t.Fatalf("purpose = %q", Purpose(claims))
	}
	if _, err := UserIDFromClaims(jwt.MapClaims{"userId": 42}); !errors.Is(err, ErrInvalidClaims) {
		t.Fatalf("err = %v", err)
	}
}
