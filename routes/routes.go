package routes

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes mounts every API group under /api/v1.
func SetupRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	AuthRoutes(api)
	UserRoutes(api)
	CourseRoutes(api)
	CertificateRoutes(api)
	ReviewRoutes(api)
	PaymentRoutes(api)
	ExamRoutes(api)
	StudyRoutes(api)
	GrammarLessonRoutes(api)
	UploadRoutes(api)
	RealtimeRoutes(api)
}
