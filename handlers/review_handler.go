package handlers

import (
	"errors"
	"strings"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// missingFields returns "Missing required fields: a, b" for every name whose
// flag is false, or "" when nothing is missing.
func missingFields(fields []string, present []bool) string {
	var missing []string
	for i, name := range fields {
		if !present[i] {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return ""
	}
	return "Missing required fields: " + strings.Join(missing, ", ")
}

func callerIsAdmin(userID uuid.UUID) bool {
	var user models.User
	if err := database.DB.Select("role").First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.Role == models.RoleAdmin
}

type ReviewRequest struct {
	CourseID uuid.UUID `json:"courseId"`
	Rating   *int      `json:"rating"`
	Content  string    `json:"content"`
}

func CreateReview(c *fiber.Ctx) error {
	userID, _ := middleware.UserID(c)
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if msg := missingFields(
		[]string{"courseId", "rating", "content"},
		[]bool{req.CourseID != uuid.Nil, req.Rating != nil && *req.Rating != 0, req.Content != ""},
	); msg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
	}
	if *req.Rating < 1 || *req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	}

	review := models.Review{UserID: userID, CourseID: req.CourseID, Rating: *req.Rating, Content: req.Content}
	if err := database.DB.Create(&review).Error; err != nil {
		logger.Log.Error("create review failed", "user_id", userID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create review"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Review created successfully!", "review": review})
}

func listReviews(c *fiber.Ctx, query *gorm.DB, message, failMsg string) error {
	reviews := []models.Review{}
	if err := query.Preload("User").Order("created_at desc").Find(&reviews).Error; err != nil {
		logger.Log.Error("list reviews failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failMsg})
	}
	return c.JSON(fiber.Map{"message": message, "reviews": reviews, "total": len(reviews)})
}

func GetReviewsByCourse(c *fiber.Ctx) error {
	courseID, ok := paramUUID(c, "courseId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Course ID is required"})
	}
	return listReviews(c, database.DB.Where("course_id = ?", courseID), "Reviews retrieved successfully", "Failed to get reviews by course")
}

func GetReviewsByUser(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "userId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "User ID is required"})
	}
	return listReviews(c, database.DB.Where("user_id = ?", userID), "User reviews retrieved successfully", "Failed to get reviews by user")
}

func GetAllReviews(c *fiber.Ctx) error {
	return listReviews(c, database.DB, "All reviews retrieved successfully", "Failed to get all reviews")
}

func GetReviewByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Review ID is required"})
	}
	var review models.Review
	if err := database.DB.Preload("User").First(&review, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Review not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get review by id"})
	}
	return c.JSON(fiber.Map{"message": "Review retrieved successfully", "review": review})
}

// loadOwnedReview fetches the review named by :id and checks the caller owns
// it or is an admin. It writes the error response itself.
func loadOwnedReview(c *fiber.Ctx) (*models.Review, bool, error) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Review ID is required"})
	}
	var review models.Review
	if err := database.DB.First(&review, "id = ?", id).Error; err != nil {
		return nil, false, c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Review not found"})
	}
	userID, _ := middleware.UserID(c)
	if review.UserID != userID && !callerIsAdmin(userID) {
		return nil, false, c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "You can only modify your own reviews"})
	}
	return &review, true, nil
}

func UpdateReview(c *fiber.Ctx) error {
	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be between 1 and 5"})
	}
	review, ok, err := loadOwnedReview(c)
	if !ok {
		return err
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}
	if req.Content != "" {
		review.Content = req.Content
	}
	if err := database.DB.Save(review).Error; err != nil {
		logger.Log.Error("update review failed", "review_id", review.ID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update review"})
	}
	return c.JSON(fiber.Map{"message": "Review updated successfully", "review": review})
}

func DeleteReview(c *fiber.Ctx) error {
	review, ok, err := loadOwnedReview(c)
	if !ok {
		return err
	}
	if err := database.DB.Delete(review).Error; err != nil {
		logger.Log.Error("delete review failed", "review_id", review.ID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete review"})
	}
	return c.JSON(fiber.Map{"message": "Review deleted successfully", "review": review})
}

func GetCourseRatingStats(c *fiber.Ctx) error {
	courseID, ok := paramUUID(c, "courseId")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Course ID is required"})
	}
	stats, err := services.ReviewStats(&courseID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get course rating stats"})
	}
	return c.JSON(fiber.Map{"message": "Course rating stats retrieved successfully", "stats": stats})
}

func GetAdminReviewStats(c *fiber.Ctx) error {
	stats, err := services.ReviewStats(nil)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get admin review stats"})
	}
	return c.JSON(fiber.Map{"message": "Admin review stats retrieved successfully", "stats": stats})
}
