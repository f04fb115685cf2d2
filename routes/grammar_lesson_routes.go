package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func GrammarLessonRoutes(api fiber.Router) {
	lessons := api.Group("/grammar-lessons")
	lessons.Post("", middleware.Protected(), handlers.CreateGrammarLesson)
	lessons.Get("", handlers.GetAllGrammarLessons)
	lessons.Get("/course/:courseId", handlers.GetLessonsByCourseID)
	lessons.Get("/parts/:partId", handlers.GetLessonPartByID)
	lessons.Get("/:id", handlers.GetGrammarLessonByID)
	lessons.Put("/:id", middleware.Protected(), handlers.UpdateGrammarLessonByID)
	lessons.Delete("/:id", middleware.Protected(), handlers.DeleteGrammarLessonByID)
}
