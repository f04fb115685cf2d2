package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func UserRoutes(api fiber.Router) {
	users := api.Group("/users", middleware.Protected())
	users.Get("/profile", handlers.GetProfile)
	users.Put("/profile", handlers.UpdateProfile)
	users.Get("/wallet/:walletAddress", handlers.GetUserByWallet)
	users.Get("/email/:email", handlers.GetUserByEmail)
	users.Get("", middleware.AdminRequired(), handlers.GetAllUsers)
	users.Get("/:id", handlers.GetUserByID)
	users.Put("/:id", handlers.UpdateUserByID)
}
