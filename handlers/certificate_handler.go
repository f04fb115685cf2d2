package handlers

import (
	"errors"
	"strings"
	"time"

	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/middleware"
	"github.com/anjiri1684/studyhub/models"
	"github.com/anjiri1684/studyhub/notifications"
	"github.com/anjiri1684/studyhub/services"
	"github.com/anjiri1684/studyhub/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// announceCertificate pushes the realtime event and mails the student.
func announceCertificate(cert *models.Certificate) {
	websocket.Publish(cert.Student.ID, websocket.EventCertificateIssued, cert)

	var student models.User
	if err := database.DB.Select("id", "email", "full_name").First(&student, "id = ?", cert.Student.ID).Error; err != nil {
		logger.Log.Warn("certificate email skipped", "student_id", cert.Student.ID.String(), "error", err)
		return
	}
	go func(name, email string, c models.Certificate) {
		if err := notifications.SendCertificateIssued(name, email, c.Course.Title, c.CertificateCode, c.IPFS.MetadataURI); err != nil {
			logger.Log.Error("certificate email failed", "certificate_code", c.CertificateCode, "error", err)
		}
	}(student.FullName, student.Email, *cert)
}

func CreateCertificate(c *fiber.Ctx) error {
	var cert models.Certificate
	if err := c.BodyParser(&cert); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}
	if cert.CertificateCode == "" || cert.Student.ID == uuid.Nil || cert.Course.ID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing required fields"})
	}
	cert.ID = uuid.Nil
	if cert.Validity.IssueDate.IsZero() {
		cert.Validity.IssueDate = time.Now().UTC()
	}
	if err := database.DB.Create(&cert).Error; err != nil {
		logger.Log.Error("create certificate failed", "certificate_code", cert.CertificateCode, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to create certificate"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Certificate created successfully!", "certificate": cert})
}

type IssueCertificateRequest struct {
	CourseID uuid.UUID `json:"courseId"`
}

func IssueCertificate(c *fiber.Ctx) error {
	var req IssueCertificateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	studentID, _ := middleware.UserID(c)
	if req.CourseID == uuid.Nil || studentID == uuid.Nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":    "Missing required fields",
			"required": []string{"studentId", "courseId"},
		})
	}

	cert, err := services.IssueCertificate(c.UserContext(), studentID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrStudentNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
		case errors.Is(err, services.ErrCourseNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Course not found"})
		case errors.Is(err, services.ErrInvalidWallet):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student wallet address"})
		}
		logger.Log.Error("issue certificate failed", "student_id", studentID.String(), "course_id", req.CourseID.String(), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to issue certificate"})
	}

	announceCertificate(cert)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"isSuccess": true,
		"message":   "Certificate issued successfully",
		"data":      cert,
	})
}

func verificationResponse(c *fiber.Ctx, v services.Verification) error {
	if !v.Consistent {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"certificate": fiber.Map{}})
	}
	return c.JSON(fiber.Map{"certificate": v.Certificate})
}

func GetCertificateByHash(c *fiber.Ctx) error {
	hash := c.Params("hash")
	if hash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing certificate's hash fields"})
	}
	return verificationResponse(c, services.VerifyCertificateByHash(c.UserContext(), hash))
}

func GetCertificateByCode(c *fiber.Ctx) error {
	code := c.Params("certificateCode")
	var cert models.Certificate
	if err := database.DB.Where("certificate_code = ?", code).Limit(1).Find(&cert).Error; err != nil {
		logger.Log.Error("certificate lookup failed", "certificate_code", code, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get certificate"})
	}
	if cert.ID == uuid.Nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Certificate not found"})
	}
	hash := cert.Blockchain.CertificateHash
	if len(hash) != 66 || !strings.HasPrefix(hash, "0x") {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid certificate hash format"})
	}
	return verificationResponse(c, services.VerifyCertificate(c.UserContext(), &cert))
}

// GetStudentCertificates reads the database first and falls back to the
// pinned documents.
func GetStudentCertificates(c *fiber.Ctx) error {
	address := c.Params("address")
	certs, source, err := services.StudentCertificates(c.UserContext(), address)
	if err != nil {
		logger.Log.Error("student certificates failed", "address", address, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get student certificates"})
	}
	return c.JSON(fiber.Map{"total": len(certs), "certificates": certs, "source": source})
}

// GetChainCertificatesByStudent lists what the registry contract holds for
// a wallet.
func GetChainCertificatesByStudent(c *fiber.Ctx) error {
	address := c.Params("address")
	if services.LedgerClient == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "Blockchain client not configured"})
	}
	records, err := services.LedgerClient.CertificatesByStudent(c.UserContext(), address)
	if err != nil {
		logger.Log.Error("chain certificates failed", "address", address, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get certificates from blockchain"})
	}
	return c.JSON(fiber.Map{"total": len(records), "certificates": records})
}

func SearchCertificates(c *fiber.Ctx) error {
	rows, err := services.SearchCertificates(c.UserContext(), services.CertificateSearch{
		Student:         strings.ToLower(c.Query("student")),
		Issuer:          c.Query("issuer"),
		CourseName:      c.Query("courseName"),
		StudentName:     c.Query("studentName"),
		CertificateCode: c.Query("certificateCode"),
		Limit:           c.QueryInt("limit", 50),
		Offset:          c.QueryInt("offset", 0),
	})
	if err != nil {
		logger.Log.Error("certificate search failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to search certificates"})
	}
	return c.JSON(fiber.Map{"total": len(rows), "list": rows})
}

func GetAllCertificates(c *fiber.Ctx) error {
	certs := []models.Certificate{}
	if err := database.DB.Order("created_at desc").Find(&certs).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to get all certificates"})
	}
	return c.JSON(fiber.Map{"total": len(certs), "certificates": certs})
}
