package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func CourseRoutes(api fiber.Router) {
	courses := api.Group("/courses")
	courses.Post("/create", handlers.CreateCourse)
	courses.Get("/statistics", middleware.Protected(), middleware.AdminRequired(), handlers.GetCourseStatistics)
	courses.Get("/title/:title", handlers.GetCourseByTitle)
	courses.Get("/my-courses/:userId", handlers.GetMyCourses)
	courses.Put("/update/:id", handlers.UpdateCourseByID)
	courses.Post("/:id/ratings", handlers.AddRatingToCourse)
	courses.Get("/:id", handlers.GetCourseByID)
	courses.Get("", handlers.GetAllCourses)
}
