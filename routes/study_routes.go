package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func StudyRoutes(api fiber.Router) {
	study := api.Group("/study", middleware.Protected())
	study.Get("/stats", handlers.GetStudyStats)
	study.Post("/log", handlers.LogStudySession)

	stats := api.Group("/study-stats", middleware.Protected())
	stats.Post("/log", handlers.LogStudyActivity)
	stats.Get("/:year/:month", handlers.GetMonthlyStats)
	stats.Delete("/:year/:month", handlers.DeleteMonthlyStats)
}
