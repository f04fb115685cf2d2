package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(api fiber.Router) {
	payments := api.Group("/payments", middleware.Protected())
	payments.Post("", handlers.CreatePayment)
	payments.Get("/user", handlers.GetMyPayments)
	payments.Get("/user/:userId", middleware.AdminRequired(), handlers.GetPaymentsByUser)
	payments.Get("/course/:courseId", handlers.GetPaymentsByCourse)
	payments.Get("/all", middleware.AdminRequired(), handlers.GetAllPayments)
	payments.Get("/statistics", middleware.AdminRequired(), handlers.GetAdminPaymentStats)
}
