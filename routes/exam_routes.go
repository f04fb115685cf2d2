package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

// ExamRoutes covers tests, their questions and pools, attempts and grading.
func ExamRoutes(api fiber.Router) {
	protected := middleware.Protected()

	tests := api.Group("/tests")
	tests.Post("", protected, handlers.CreateTest)
	tests.Get("/my-tests", protected, handlers.GetMyTests)
	tests.Get("/statistics", handlers.GetTestStatistics)
	tests.Get("/course/:courseId", handlers.GetTestsByCourseID)
	tests.Get("/:testId", handlers.GetTestByID)
	tests.Get("", handlers.GetAllTests)
	tests.Put("/:testId", protected, handlers.UpdateTestByID)
	tests.Delete("/:testId", protected, handlers.DeleteTestByID)

	questions := api.Group("/questions")
	questions.Post("", protected, handlers.CreateQuestion)
	questions.Post("/bulk", handlers.CreateManyQuestions)
	questions.Post("/filter", handlers.FilterQuestions)
	questions.Get("/test/:testId", handlers.GetQuestionsByTest)
	questions.Get("/attempt/:attemptId", handlers.GetQuestionsByAttemptID)
	questions.Get("/:questionId", handlers.GetQuestionByID)
	questions.Put("/:questionId", protected, handlers.UpdateQuestionByID)
	questions.Delete("/:questionId", protected, handlers.DeleteQuestionByID)

	attempts := api.Group("/attempts")
	attempts.Post("", protected, handlers.StartAttempt)
	attempts.Post("/info", handlers.GetAttemptInfo)
	attempts.Post("/by-test-pool", handlers.GetAttemptsByTestPool)
	attempts.Post("/:attemptId/submit", protected, handlers.SubmitAttempt)
	attempts.Get("/custom/user", protected, handlers.GetCustomAttemptsByUser)
	attempts.Get("/user/:userId", handlers.GetAttemptsByUser)
	attempts.Get("/test/:testId/user/:userId", handlers.GetAttemptsByTestAndUser)
	attempts.Get("/test/:testId", protected, handlers.GetAttemptByTest)
	attempts.Get("/:attemptId", handlers.GetAttemptByID)
	attempts.Patch("/:attemptId", handlers.UpdateAttempt)

	details := api.Group("/attempt-details")
	details.Post("", protected, handlers.CreateAttemptDetail)
	details.Get("", protected, handlers.GetAllAttemptDetailsByUser)
	details.Get("/details/grouped", protected, handlers.GetUserTestDetailsGroupedByTest)
	details.Get("/attempt/:attemptId", handlers.GetAnswersByAttempt)
	details.Get("/user/:userId/test/:testId", handlers.GetAttemptDetailByUserAndTest)
	details.Get("/:attemptId", protected, handlers.GetAttemptDetailByAttemptID)
	details.Put("/:attemptId", protected, handlers.UpdateAttemptDetailByAttemptID)
	details.Delete("/:attemptId", protected, handlers.DeleteAttemptDetailByAttemptID)

	api.Post("/test-result/submit", handlers.SubmitTestResult)

	generate := api.Group("/generate-test", protected)
	generate.Post("", handlers.GenerateTest)
	generate.Post("/custom", handlers.GenerateCustomTest)

	pools := api.Group("/test-pools")
	pools.Post("", protected, handlers.CreateTestPool)
	pools.Get("", handlers.GetAllTestPools)
	pools.Get("/level/:level", handlers.GetTestPoolsByLevel)
	pools.Get("/by-test/:testId", handlers.GetPoolsByBaseTestID)
	pools.Get("/creator/:creatorId", handlers.GetTestPoolsByCreator)
	pools.Get("/:poolId", handlers.GetTestPoolByID)
	pools.Put("/:poolId", protected, handlers.UpdateTestPoolByID)
	pools.Delete("/:poolId", protected, handlers.DeleteTestPoolByID)
}
