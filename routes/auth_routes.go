package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func AuthRoutes(api fiber.Router) {
	auth := api.Group("/auth")
	auth.Post("/register", handlers.RegisterUser)
	auth.Post("/login", handlers.LoginUser)
	auth.Post("/refreshToken", handlers.RefreshToken)
	auth.Post("/forgot-password", handlers.ForgotPassword)
	auth.Post("/reset-password", handlers.ResetPassword)

	auth.Post("/logout", middleware.Protected(), handlers.Logout)
	auth.Post("/logout-all", middleware.Protected(), handlers.LogoutAll)
	auth.Post("/change-password", middleware.Protected(), handlers.ChangePassword)
	auth.Get("/sessions", middleware.Protected(), handlers.GetSessions)
}
