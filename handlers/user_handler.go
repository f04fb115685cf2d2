package handlers

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type UpdateProfileRequest struct {
	FullName            *string            `json:"fullName" validate:"omitempty,fullname"`
	Phone               *string            `json:"phone" validate:"omitempty,phone"`
	Dob                 *string            `json:"dob" validate:"omitempty,past_date"`
	Gender              *string            `json:"gender" validate:"omitempty,oneof=male female other"`
	WalletAddress       *string            `json:"walletAddress" validate:"omitempty,wallet"`
	AvatarURL           *string            `json:"avatarUrl"`
	Organization        *string            `json:"organization"`
	CurrentLevel        *models.ExamLevels `json:"currentLevel"`
	StudyHoursPerWeek   *float64           `json:"studyHoursPerWeek" validate:"omitempty,gte=0"`
	LearningGoals       *string            `json:"learningGoals"`
	LearningPreferences []string           `json:"learningPreferences"`
	StudyMethods        []string           `json:"studyMethods"`
}

// AdminUpdateUserRequest adds the fields only an admin may change.
type AdminUpdateUserRequest struct {
	UpdateProfileRequest
	Role   *string `json:"role" validate:"omitempty,oneof=student teacher admin"`
	Status *string `json:"status" validate:"omitempty,oneof=active inactive"`
}

func (r *UpdateProfileRequest) apply(u *models.User) {
	if r.FullName != nil {
		u.FullName = strings.TrimSpace(*r.FullName)
	}
	if r.Phone != nil {
		u.Phone = strings.TrimSpace(*r.Phone)
	}
	if r.Dob != nil {
		if dob, err := parseDate(*r.Dob); err == nil {
			u.Dob = &dob
		}
	}
	if r.Gender != nil {
		u.Gender = *r.Gender
	}
	if r.WalletAddress != nil {
		wallet := strings.TrimSpace(*r.WalletAddress)
		if wallet == "" {
			u.WalletAddress = nil
		} else {
			u.WalletAddress = &wallet
		}
	}
	if r.AvatarURL != nil {
		u.AvatarURL = *r.AvatarURL
	}
	if r.Organization != nil {
		u.Organization = *r.Organization
	}
	if r.CurrentLevel != nil {
		u.CurrentLevel = *r.CurrentLevel
	}
	if r.StudyHoursPerWeek != nil {
		u.StudyHoursPerWeek = *r.StudyHoursPerWeek
	}
	if r.LearningGoals != nil {
		u.LearningGoals = *r.LearningGoals
	}
	if r.LearningPreferences != nil {
		u.LearningPreferences = r.LearningPreferences
	}
	if r.StudyMethods != nil {
		u.StudyMethods = r.StudyMethods
	}
}

func findUser(c *fiber.Ctx, column, value, failMsg string) error {
	var user models.User
	if err := database.DB.Where(column+" = ?", value).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		logger.Log.Error("user lookup failed", "column", column, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failMsg})
	}
	return c.JSON(fiber.Map{"message": "User profile retrieved successfully", "data": user})
}

func GetProfile(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	return findUser(c, "id", userID.String(), "Failed to get profile")
}

func GetUserByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	return findUser(c, "id", id.String(), "Failed to get user by id")
}

func GetUserByWallet(c *fiber.Ctx) error {
	return findUser(c, "LOWER(wallet_address)", strings.ToLower(c.Params("walletAddress")), "Failed to get user by wallet address")
}

func GetUserByEmail(c *fiber.Ctx) error {
	return findUser(c, "email", strings.ToLower(c.Params("email")), "Failed to get user by email")
}

func saveUserUpdate(c *fiber.Ctx, user *models.User, failMsg string) error {
	if err := database.DB.Save(user).Error; err != nil {
		if isUniqueViolation(err) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "This phone number or wallet address has been used"})
		}
		logger.Log.Error("user update failed", "user_id", user.ID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failMsg})
	}
	return c.JSON(fiber.Map{"message": "User updated successfully", "data": user})
}

func UpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	userID, _ := middleware.UserID(c)
	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	phone := ""
	if req.Phone != nil {
		phone = strings.TrimSpace(*req.Phone)
	}
	if msg := duplicateContact("", phone, &user); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	req.apply(&user)
	return saveUserUpdate(c, &user, "Failed to update profile")
}

// UpdateUserByID lets a user edit their own record; admins may edit anyone
// and also change role and status.
func UpdateUserByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	var req AdminUpdateUserRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	callerID, _ := middleware.UserID(c)
	var caller models.User
	if err := database.DB.Select("id", "role").First(&caller, "id = ?", callerID).Error; err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}
	isAdmin := caller.Role == models.RoleAdmin
	if caller.ID != id && !isAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only update your own account"})
	}

	var user models.User
	if err := database.DB.First(&user, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
	}
	req.UpdateProfileRequest.apply(&user)
	if isAdmin {
		if req.Role != nil {
			user.Role = *req.Role
		}
		if req.Status != nil {
			user.Status = *req.Status
		}
	}
	return saveUserUpdate(c, &user, "Failed to update user by id")
}

func GetAllUsers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 200 {
		limit = 50
	}
	search := strings.TrimSpace(c.Query("search"))

	query := database.DB.Model(&models.User{})
	if search != "" {
		term := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(full_name) LIKE ? OR LOWER(email) LIKE ?", term, term)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get all users"})
	}
	users := []models.User{}
	if err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&users).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get all users"})
	}

	return c.JSON(fiber.Map{
		"message": "Users retrieved successfully",
		"data":    users,
		"total":   total,
		"meta": fiber.Map{
			"total_pages":  int(math.Ceil(float64(total) / float64(limit))),
			"current_page": page,
		},
	})
}
