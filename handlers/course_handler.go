package handlers

import (
	"errors"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CourseRequest struct {
	Title         string    `json:"title" validate:"required,max=255"`
	Description   string    `json:"description" validate:"required"`
	TeacherID     uuid.UUID `json:"teacherId" validate:"required"`
	CourseType    string    `json:"courseType" validate:"required,oneof=TOEIC IELTS"`
	CourseLevel   string    `json:"courseLevel" validate:"required"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	Cost          float64   `json:"cost" validate:"gte=0"`
	DurationHours float64   `json:"durationHours" validate:"gte=0"`
}

func (r *CourseRequest) apply(course *models.Course) {
	course.Title = r.Title
	course.Description = r.Description
	course.TeacherID = r.TeacherID
	course.CourseType = r.CourseType
	course.CourseLevel = r.CourseLevel
	course.ThumbnailURL = r.ThumbnailURL
	course.Category = r.Category
	course.Tags = r.Tags
	course.Cost = r.Cost
	course.DurationHours = r.DurationHours
}

func CreateCourse(c *fiber.Ctx) error {
	var req CourseRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	var course models.Course
	req.apply(&course)
	if err := database.DB.Create(&course).Error; err != nil {
		logger.Log.Error("create course failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create course"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Course created successfully!", "course": course})
}

func GetCourseByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	var course models.Course
	err := database.DB.Preload("Reviews").Preload("GrammarLessons").First(&course, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get course by id"})
	}
	return c.JSON(course)
}

func GetCourseByTitle(c *fiber.Ctx) error {
	var course models.Course
	err := database.DB.Preload("Reviews").First(&course, "title = ?", c.Params("title")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get course by title"})
	}
	return c.JSON(course)
}

func GetAllCourses(c *fiber.Ctx) error {
	courses := []models.Course{}
	query := database.DB.Order("created_at desc")
	if t := c.Query("courseType"); t != "" {
		query = query.Where("course_type = ?", t)
	}
	if err := query.Find(&courses).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get all courses"})
	}
	return c.JSON(courses)
}

func UpdateCourseByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	var req CourseRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	var course models.Course
	if err := database.DB.First(&course, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	req.apply(&course)
	if err := database.DB.Save(&course).Error; err != nil {
		logger.Log.Error("update course failed", "course_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update course by id"})
	}
	return c.JSON(course)
}

type RatingRequest struct {
	UserID  uuid.UUID `json:"userId"`
	Rating  *float64  `json:"rating"`
	Content string    `json:"content"`
}

// AddRatingToCourse stores the rating as a Review row of the course.
func AddRatingToCourse(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing course id"})
	}
	var req RatingRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if req.UserID == uuid.Nil || req.Rating == nil || req.Content == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields (userId, rating, content)"})
	}
	if *req.Rating < 1 || *req.Rating > 5 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Rating must be a number between 1 and 5"})
	}

	var course models.Course
	if err := database.DB.First(&course, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
	}
	review := models.Review{UserID: req.UserID, CourseID: id, Rating: int(*req.Rating), Content: req.Content}
	if err := database.DB.Create(&review).Error; err != nil {
		logger.Log.Error("add rating failed", "course_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to add rating to course"})
	}
	database.DB.Preload("Reviews").First(&course, "id = ?", id)
	return c.JSON(fiber.Map{"message": "Rating added successfully!", "course": course})
}

func GetMyCourses(c *fiber.Ctx) error {
	userID, ok := paramUUID(c, "userId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
	}
	var user models.User
	if err := database.DB.Preload("Courses").First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "User not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": "Server error"})
	}
	courses := user.Courses
	if courses == nil {
		courses = []*models.Course{}
	}
	return c.JSON(fiber.Map{"courses": courses})
}

func GetCourseStatistics(c *fiber.Ctx) error {
	stats, err := services.CourseStats()
	if err != nil {
		logger.Log.Error("course statistics failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get course statistics"})
	}
	return c.JSON(fiber.Map{"message": "Course statistics retrieved successfully", "data": stats})
}
