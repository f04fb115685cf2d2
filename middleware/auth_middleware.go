package middleware

import (
	"errors"
	"strings"

	config "github.com/anjiri1684/studyhub/configs"
	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/sessions"
	"github.com/anjiri1684/studyhub/utils"
	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const (
	localUserID = "userID"
	localToken  = "accessToken"
)

// Protected checks the bearer token's signature and then asks the session
// store whether the token is still live.
func Protected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey:     []byte(config.Config("JWT_SECRET")),
		ErrorHandler:   jwtError,
		SuccessHandler: checkSession,
	})
}

func jwtError(c *fiber.Ctx, err error) error {
	switch {
	case strings.EqualFold(err.Error(), "Missing or malformed JWT"):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access token is required"})
	case errors.Is(err, jwt.ErrTokenExpired):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token expired"})
	default:
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
}

func checkSession(c *fiber.Ctx) error {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	claims, _ := token.Claims.(jwt.MapClaims)
	userID, err := utils.UserIDFromClaims(claims)
	if err != nil || utils.Purpose(claims) != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if sessions.Default == nil {
		logger.Log.Error("session store not installed")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	valid, err := sessions.Default.IsValid(c.UserContext(), sessions.Access, userID.String(), token.Raw)
	if err != nil {
		logger.Log.Error("session lookup failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Token has been invalidated or expired"})
	}

	c.Locals(localUserID, userID)
	c.Locals(localToken, token.Raw)
	return c.Next()
}

// UserID returns the id of the authenticated caller set by Protected.
func UserID(c *fiber.Ctx) (uuid.UUID, bool) {
	id, ok := c.Locals(localUserID).(uuid.UUID)
	return id, ok
}

func AccessToken(c *fiber.Ctx) string {
	tok, _ := c.Locals(localToken).(string)
	return tok
}

// AdminRequired reads the caller's role from the database, not the token.
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := UserID(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Access token is required"})
		}
		var user models.User
		if err := database.DB.Select("id", "role").First(&user, "id = ?", userID).Error; err != nil || user.Role != models.RoleAdmin {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Admin access required"})
		}
		return c.Next()
	}
}
