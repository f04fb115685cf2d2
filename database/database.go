package database

import (
	config "github.com/anjiri1684/studyhub/configs"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/models"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		logger.Log.Fatal("failed to connect to database", "error", err)
	}

	logger.Log.Info("database connected")
}

// AllModels lists every table owned by the persistence layer, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Course{},
		&models.Test{},
		&models.Question{},
		&models.QuestionOption{},
		&models.TestPool{},
		&models.TestAttempt{},
		&models.AttemptDetail{},
		&models.Certificate{},
		&models.Payment{},
		&models.Review{},
		&models.StudyLog{},
		&models.StudyStats{},
		&models.GrammarLesson{},
	}
}

func Migrate() {
	if err := DB.AutoMigrate(AllModels()...); err != nil {
		logger.Log.Fatal("failed to migrate database", "error", err)
	}
	logger.Log.Info("database migration successful")
}

func SeedAdmin() {
	adminEmail := config.Config("ADMIN_EMAIL")
	adminPassword := config.Config("ADMIN_PASSWORD")
	if adminEmail == "" || adminPassword == "" {
		logger.Log.Warn("admin seed skipped, ADMIN_EMAIL or ADMIN_PASSWORD unset")
		return
	}

	var count int64
	if err := DB.Model(&models.User{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		logger.Log.Fatal("failed to check for admin user", "error", err)
		return
	}
	if count > 0 {
		logger.Log.Info("admin user already exists", "email", adminEmail)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Log.Fatal("failed to hash admin password", "error", err)
		return
	}

	adminUser := models.User{
		FullName: config.ConfigOrDefault("ADMIN_FULL_NAME", "Administrator"),
		Email:    adminEmail,
		Password: string(hashedPassword),
		Role:     models.RoleAdmin,
		Status:   "active",
	}
	if err := DB.Create(&adminUser).Error; err != nil {
		logger.Log.Fatal("failed to seed admin user", "error", err)
		return
	}

	logger.Log.Info("admin user seeded", "email", adminEmail)
}
