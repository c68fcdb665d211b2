// Package api exposes the follower over HTTP: status endpoints and a
// websocket stream of applied orientations.
package api

import (
	"io"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/follower/pkg/config"
	customlog "github.com/open-teleop/follower/pkg/log"
)

// OrientationProvider serves the follower state
type OrientationProvider interface {
	GetOrientationHandler(c *fiber.Ctx) error
}

// NewApp creates the fiber app. Requests are logged to accessLog when it is not nil.
func NewApp(accessLog io.Writer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Open-Teleop Follower",
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})

	if accessLog != nil {
		app.Use(fiberlogger.New(fiberlogger.Config{Output: accessLog}))
	}
	app.Use(recover.New())
	return app
}

// RegisterRoutes sets up every endpoint
func RegisterRoutes(app *fiber.App, provider OrientationProvider, hub *Hub, cfg *config.Config, logger customlog.Logger) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "open-teleop follower",
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	apiGroup := app.Group("/api/v1")
	apiGroup.Get("/orientation", provider.GetOrientationHandler)
	apiGroup.Get("/config", NewConfigHandler(cfg, logger).handleGetConfig)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/orientation", websocket.New(OrientationWebSocketHandler(hub, logger)))

	logger.Infof("Registered follower API endpoints under /api/v1 and /ws/orientation")
}

// ErrorHandler renders errors as JSON
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
