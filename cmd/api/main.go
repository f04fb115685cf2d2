package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	config "github.com/anjiri1684/studyhub/configs"
	"github.com/anjiri1684/studyhub/database"
	"github.com/anjiri1684/studyhub/grading"
	"github.com/anjiri1684/studyhub/jobs"
	"github.com/anjiri1684/studyhub/ledger"
	"github.com/anjiri1684/studyhub/logger"
	"github.com/anjiri1684/studyhub/notifications"
	"github.com/anjiri1684/studyhub/pinning"
	"github.com/anjiri1684/studyhub/routes"
	"github.com/anjiri1684/studyhub/services"
	"github.com/anjiri1684/studyhub/sessions"
	"github.com/anjiri1684/studyhub/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	if err := logger.Init(config.ConfigOrDefault("APP_ENV", "development")); err != nil {
		panic(err)
	}
	defer logger.Log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	store, err := sessions.NewRedisStore(ctx, config.Config("REDIS_URL"))
	if err != nil {
		logger.Log.Fatal("failed to connect to redis", "error", err)
	}
	defer store.Close()
	sessions.Default = store

	installClients(ctx)

	c := cron.New()
	if err := jobs.Schedule(c); err != nil {
		logger.Log.Fatal("failed to schedule jobs", "error", err)
	}
	c.Start()
	defer c.Stop()

	go websocket.Default.Run(ctx)

	app := fiber.New(fiber.Config{
		Prefork:       false,
		AppName:       "StudyHub",
		CaseSensitive: true,
		ReadTimeout:   15 * time.Second,
		WriteTimeout:  60 * time.Second,
		IdleTimeout:   60 * time.Second,
		BodyLimit:     8 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			logger.Log.Error("request failed", "path", c.Path(), "method", c.Method(), "error", err)
			if code == fiber.StatusInternalServerError {
				return c.Status(code).JSON(fiber.Map{"error": "Internal server error"})
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  config.ConfigOrDefault("CLIENT_URL", "*"),
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))
	app.Use(recover.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "success", "message": "Welcome to StudyHub API"})
	})
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.SetupRoutes(app)

	go func() {
		<-ctx.Done()
		logger.Log.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Log.Error("shutdown failed", "error", err)
		}
	}()

	port := config.ConfigOrDefault("PORT", "8080")
	logger.Log.Info("server starting", "port", port)
	if err := app.Listen(":" + port); err != nil {
		logger.Log.Fatal("server failed to start", "error", err)
	}
}

// installClients wires the external collaborators. A missing configuration
// leaves the matching client nil and the dependent endpoints answer with an
// error instead of crashing the process.
func installClients(ctx context.Context) {
	services.GradingClient = grading.NewFromConfig()

	if config.Config("PINATA_JWT") != "" {
		services.PinningClient = pinning.NewFromConfig()
	} else {
		logger.Log.Warn("pinning client not configured")
	}

	rpcURL := config.Config("SEPOLIA_RPC_URL")
	if rpcURL != "" {
		dialCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
		defer cancel()
		registry, err := ledger.Dial(dialCtx, rpcURL, config.Config("CONTRACT_ADDRESS"), config.Config("PRIVATE_KEY"))
		if err != nil {
			logger.Log.Error("ledger client unavailable", "error", err)
		} else {
			services.LedgerClient = registry
		}
	} else {
		logger.Log.Warn("ledger client not configured")
	}

	if config.BoolOrDefault("CERT_PDF_ENABLED", false) {
		services.CertificatePDF = services.ChromePDF{Timeout: 30 * time.Second}
	}
}
