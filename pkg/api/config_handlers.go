package api

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/open-teleop/follower/pkg/config"
	customlog "github.com/open-teleop/follower/pkg/log"
	"gopkg.in/yaml.v3"
)

// ConfigHandler serves the effective configuration
type ConfigHandler struct {
	cfg    *config.Config
	logger customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(cfg *config.Config, logger customlog.Logger) *ConfigHandler {
	if cfg == nil {
		panic("Config cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		cfg:    cfg,
		logger: logger,
	}
}

// handleGetConfig returns the configuration in use, defaults and
// environment overrides included, as YAML.
func (h *ConfigHandler) handleGetConfig(c *fiber.Ctx) error {
	yamlData, err := yaml.Marshal(h.cfg)
	if err != nil {
		h.logger.Errorf("Failed to marshal config: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}
