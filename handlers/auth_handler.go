package handlers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/notifications"
	"github.com/anjiri1684/studyhub/sessions"
	"github.com/anjiri1684/studyhub/utils"
	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const resetTokenTTL = 15 * time.Minute

type RegisterRequest struct {
	Email               string            `json:"email" validate:"required,email_address"`
	Phone               string            `json:"phone" validate:"required,phone"`
	Password            string            `json:"password" validate:"required,studyhub_password"`
	FullName            string            `json:"fullName" validate:"required,fullname"`
	Dob                 string            `json:"dob" validate:"required,past_date"`
	Gender              string            `json:"gender" validate:"required,oneof=male female other"`
	WalletAddress       string            `json:"walletAddress" validate:"omitempty,wallet"`
	Organization        string            `json:"organization"`
	CurrentLevel        models.ExamLevels `json:"currentLevel"`
	LearningGoals       string            `json:"learningGoals"`
	LearningPreferences []string          `json:"learningPreferences"`
	StudyMethods        []string          `json:"studyMethods"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email_address"`
	Password string `json:"password" validate:"required"`
}

type UserSummary struct {
	ID            string            `json:"id"`
	FullName      string            `json:"fullName"`
	Email         string            `json:"email"`
	Role          string            `json:"role"`
	WalletAddress *string           `json:"walletAddress"`
	CurrentLevel  models.ExamLevels `json:"currentLevel"`
}

func summarize(u *models.User) UserSummary {
	return UserSummary{
		ID:            u.ID.String(),
		FullName:      u.FullName,
		Email:         u.Email,
		Role:          u.Role,
		WalletAddress: u.WalletAddress,
		CurrentLevel:  u.CurrentLevel,
	}
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

// duplicateContact reports the message for an email or phone already taken
// by a user other than exclude.
func duplicateContact(email, phone string, exclude *models.User) string {
	check := func(column, value string) bool {
		if value == "" {
			return false
		}
		q := database.DB.Model(&models.User{}).Where(column+" = ?", value)
		if exclude != nil {
			q = q.Where("id <> ?", exclude.ID)
		}
		var n int64
		q.Count(&n)
		return n > 0
	}
	switch {
	case check("email", email):
		return "This email address has been used"
	case check("phone", phone):
		return "This phone number has been used"
	}
	return ""
}

func RegisterUser(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)

	if msg := duplicateContact(req.Email, req.Phone, nil); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register user"})
	}
	dob, _ := parseDate(req.Dob)

	user := models.User{
		FullName:            strings.TrimSpace(req.FullName),
		Email:               req.Email,
		Phone:               req.Phone,
		Password:            string(hashedPassword),
		Role:                models.RoleStudent,
		Dob:                 &dob,
		Gender:              req.Gender,
		Organization:        req.Organization,
		Status:              "active",
		CurrentLevel:        req.CurrentLevel,
		LearningGoals:       req.LearningGoals,
		LearningPreferences: req.LearningPreferences,
		StudyMethods:        req.StudyMethods,
	}
	if req.WalletAddress != "" {
		wallet := strings.TrimSpace(req.WalletAddress)
		user.WalletAddress = &wallet
	}

	if err := database.DB.Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This wallet address has been used"})
		}
		logger.Log.Error("register user failed", "email", req.Email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register user"})
	}

	token, err := utils.GenerateToken(&user, sessions.RegistrationTTL())
	if err == nil {
		err = sessions.Default.Save(c.UserContext(), sessions.Access, user.ID.String(), token, sessions.RegistrationTTL())
	}
	if err != nil {
		logger.Log.Error("registration token failed", "user_id", user.ID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to register user"})
	}

	go notifications.SendWelcome(user.FullName, user.Email)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully!",
		"user":    user,
		"token":   token,
	})
}

func LoginUser(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	var user models.User
	if err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "No accounts found with that email."})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Password is not correct"})
	}

	accessToken, err := utils.GenerateToken(&user, sessions.AccessTTL())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to login user"})
	}
	refreshToken, err := utils.GenerateToken(&user, sessions.RefreshTTL())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to login user"})
	}

	ctx := c.UserContext()
	uid := user.ID.String()
	if err := sessions.Default.Save(ctx, sessions.Access, uid, accessToken, sessions.AccessTTL()); err != nil {
		logger.Log.Error("save access token failed", "user_id", uid, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to login user"})
	}
	if err := sessions.Default.Save(ctx, sessions.Refresh, uid, refreshToken, sessions.RefreshTTL()); err != nil {
		logger.Log.Error("save refresh token failed", "user_id", uid, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to login user"})
	}

	return c.JSON(fiber.Map{
		"message":      "Login successfully!",
		"accessToken":  accessToken,
		"refreshToken": refreshToken,
		"user":         summarize(&user),
	})
}

func Logout(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	if err := sessions.Default.RemoveToken(c.UserContext(), userID.String(), middleware.AccessToken(c)); err != nil {
		logger.Log.Error("logout failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to logout user"})
	}
	return c.JSON(fiber.Map{
		"message":   "Logout successful!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func LogoutAll(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	if err := sessions.Default.RemoveAllUserTokens(c.UserContext(), userID.String()); err != nil {
		logger.Log.Error("logout all failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to logout all sessions"})
	}
	return c.JSON(fiber.Map{
		"message":   "All sessions logged out successfully!",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"userId":    userID,
	})
}

func GetSessions(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	counts, err := sessions.Default.ActiveSessions(c.UserContext(), userID.String())
	if err != nil {
		logger.Log.Error("session count failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get user sessions"})
	}
	return c.JSON(fiber.Map{
		"message": "User sessions retrieved successfully",
		"data":    fiber.Map{"userId": userID, "activeSessions": counts},
	})
}

// RefreshToken trades a live refresh token for a new access token. The
// access token in the Authorization header, if any, is revoked.
func RefreshToken(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken" validate:"required"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	claims, err := utils.ParseToken(req.RefreshToken)
	if err != nil || utils.Purpose(claims) != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}
	userID, err := utils.UserIDFromClaims(claims)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}

	ctx := c.UserContext()
	valid, err := sessions.Default.IsValid(ctx, sessions.Refresh, userID.String(), req.RefreshToken)
	if err != nil {
		logger.Log.Error("refresh token lookup failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to refresh token"})
	}
	if !valid {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid refresh token"})
	}

	if old := strings.TrimSpace(strings.TrimPrefix(c.Get(fiber.HeaderAuthorization), "Bearer ")); old != "" {
		if err := sessions.Default.Remove(ctx, sessions.Access, userID.String(), old); err != nil {
			logger.Log.Warn("old access token not removed", "user_id", userID.String(), "error", err)
		}
	}

	accessToken, err := utils.GenerateToken(&user, sessions.AccessTTL())
	if err == nil {
		err = sessions.Default.Save(ctx, sessions.Access, userID.String(), accessToken, sessions.AccessTTL())
	}
	if err != nil {
		logger.Log.Error("refresh failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to refresh token"})
	}

	return c.JSON(fiber.Map{
		"message":     "Token refreshed successfully!",
		"accessToken": accessToken,
	})
}

func ChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword string `json:"currentPassword" validate:"required"`
		NewPassword     string `json:"newPassword" validate:"required,studyhub_password"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	userID, _ := middleware.UserID(c)
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Current password is incorrect"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change password"})
	}
	if err := database.DB.Model(&user).Update("password", string(hashed)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to change password"})
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully!"})
}

func ForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email" validate:"required,email_address"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	var user models.User
	if err := database.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User with this email not found"})
	}

	token, err := utils.GenerateResetToken(&user, resetTokenTTL)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process forgot password request"})
	}
	resetLink := fmt.Sprintf("%s/reset-password?token=%s", config.ConfigOrDefault("CLIENT_URL", "http://localhost:3000"), token)

	if err := notifications.SendPasswordReset(user.FullName, user.Email, resetLink); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to process forgot password request"})
	}
	return c.JSON(fiber.Map{"message": fmt.Sprintf("Reset link sent to %s", user.Email)})
}

func ResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token       string `json:"token" validate:"required"`
		NewPassword string `json:"newPassword" validate:"required,studyhub_password"`
	}
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	claims, err := utils.ParseToken(req.Token)
	if err != nil || utils.Purpose(claims) != utils.PurposePasswordReset {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired token"})
	}
	userID, err := utils.UserIDFromClaims(claims)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid or expired token"})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	if err := database.DB.Model(&user).Update("password", string(hashed)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to reset password"})
	}
	if err := sessions.Default.RemoveAllUserTokens(c.UserContext(), user.ID.String()); err != nil {
		logger.Log.Warn("sessions not cleared after password reset", "user_id", user.ID.String(), "error", err)
	}
	return c.JSON(fiber.Map{"message": "Password reset successfully"})
}
