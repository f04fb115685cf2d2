package handlers

import (
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TestPoolRequest struct {
	BaseTestID uuid.UUID  `json:"baseTestId" validate:"required"`
	Level      string     `json:"level" validate:"required"`
	MaxReuse   int        `json:"maxReuse" validate:"gte=0"`
	Status     string     `json:"status" validate:"omitempty,oneof=active expired"`
	ExpiresAt  *time.Time `json:"expiresAt"`
}

func CreateTestPool(c *fiber.Ctx) error {
	var req TestPoolRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	pool := models.TestPool{
		BaseTestID: req.BaseTestID,
		Level:      req.Level,
		MaxReuse:   req.MaxReuse,
		Status:     req.Status,
		ExpiresAt:  req.ExpiresAt,
	}
	if pool.MaxReuse == 0 {
		pool.MaxReuse = 10
	}
	if pool.Status == "" {
		pool.Status = "active"
	}
	if userID, ok := middleware.UserID(c); ok {
		pool.CreatedBy = &userID
	}
	if err := database.DB.Create(&pool).Error; err != nil {
		logger.Log.Error("create test pool failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create test pool"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Test pool created", "data": pool})
}

func GetTestPoolByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "poolId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pool not found"})
	}
	var pool models.TestPool
	if err := database.DB.Preload("BaseTest").First(&pool, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pool not found"})
	}
	return c.JSON(fiber.Map{"message": "Test pool retrieved", "data": pool})
}

func GetAllTestPools(c *fiber.Ctx) error {
	pools := []models.TestPool{}
	if err := database.DB.Preload("BaseTest").Order("created_at desc").Find(&pools).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get test pools"})
	}
	return c.JSON(fiber.Map{"message": "Pools retrieved", "data": pools, "total": len(pools)})
}

func UpdateTestPoolByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "poolId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pool not found"})
	}
	var req TestPoolRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	var pool models.TestPool
	if err := database.DB.First(&pool, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pool not found"})
	}
	pool.BaseTestID = req.BaseTestID
	pool.Level = req.Level
	if req.MaxReuse > 0 {
		pool.MaxReuse = req.MaxReuse
	}
	if req.Status != "" {
		pool.Status = req.Status
	}
	pool.ExpiresAt = req.ExpiresAt
	if err := database.DB.Save(&pool).Error; err != nil {
		logger.Log.Error("update test pool failed", "pool_id", id.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to update test pool"})
	}
	return c.JSON(fiber.Map{"message": "Pool updated", "data": pool})
}

func DeleteTestPoolByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "poolId")
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pool not found"})
	}
	var pool models.TestPool
	if err := database.DB.First(&pool, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Pool not found"})
	}
	if err := database.DB.Delete(&pool).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to delete test pool"})
	}
	return c.JSON(fiber.Map{"message": "Pool deleted", "data": pool})
}

func listPools(c *fiber.Ctx, query *gorm.DB, message, emptyMsg, failMsg string) error {
	var pools []models.TestPool
	if err := query.Preload("BaseTest").Order("created_at desc").Find(&pools).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": failMsg})
	}
	if len(pools) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": emptyMsg})
	}
	return c.JSON(fiber.Map{"message": message, "data": pools, "total": len(pools)})
}

func GetTestPoolsByLevel(c *fiber.Ctx) error {
	return listPools(c, database.DB.Where("level = ?", c.Params("level")),
		"Pools retrieved", "No pools found for this level", "Failed to get test pools by level")
}

func GetPoolsByBaseTestID(c *fiber.Ctx) error {
	testID, _ := paramUUID(c, "testId")
	return listPools(c, database.DB.Where("base_test_id = ?", testID),
		"Pools retrieved by testId", "No pools found for this testId", "Failed to get pools by testId")
}

func GetTestPoolsByCreator(c *fiber.Ctx) error {
	creatorID, _ := paramUUID(c, "creatorId")
	return listPools(c, database.DB.Where("created_by = ?", creatorID),
		"Test pools retrieved by creator", "No pools found for this creator", "Failed to get pools by creator")
}
