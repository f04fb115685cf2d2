package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func ReviewRoutes(api fiber.Router) {
	reviews := api.Group("/reviews")
	admin := []fiber.Handler{middleware.Protected(), middleware.AdminRequired()}

	reviews.Post("", middleware.Protected(), handlers.CreateReview)
	reviews.Get("/statistics", append(admin, handlers.GetAdminReviewStats)...)
	reviews.Get("", append(admin, handlers.GetAllReviews)...)
	reviews.Get("/course/:courseId/statistics", middleware.Protected(), handlers.GetCourseRatingStats)
	reviews.Get("/course/:courseId", handlers.GetReviewsByCourse)
	reviews.Get("/user/:userId", middleware.Protected(), handlers.GetReviewsByUser)
	reviews.Get("/:id", handlers.GetReviewByID)
	reviews.Put("/:id", middleware.Protected(), handlers.UpdateReview)
	reviews.Delete("/:id", middleware.Protected(), handlers.DeleteReview)
}
