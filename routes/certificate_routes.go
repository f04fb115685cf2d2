package routes

import (
	"github.com/anjiri1684/studyhub/handlers"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/gofiber/fiber/v2"
)

func CertificateRoutes(api fiber.Router) {
	certs := api.Group("/certs")
	certs.Get("/hash/:hash", handlers.GetCertificateByHash)
	certs.Get("/code/:certificateCode", handlers.GetCertificateByCode)

	certs.Post("", middleware.Protected(), handlers.CreateCertificate)
	certs.Post("/issue", middleware.Protected(), handlers.IssueCertificate)
	certs.Get("/student/:address", middleware.Protected(), handlers.GetStudentCertificates)
	certs.Get("/chain/student/:address", middleware.Protected(), handlers.GetChainCertificatesByStudent)
	certs.Get("/search", middleware.Protected(), handlers.SearchCertificates)
	certs.Get("", middleware.Protected(), middleware.AdminRequired(), handlers.GetAllCertificates)
}
