package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_ratebadge/internal/cache"
	"github.com/bassista/go_ratebadge/internal/logger"
)

// InjectConfiguration is the payload of the inject configuration endpoints.
type InjectConfiguration struct {
	InjectEnabled *bool `json:"injectEnabled" binding:"required"`
}

// ConfigurationController exposes the user-facing settings.
type ConfigurationController struct {
	settings cache.SettingsService
}

// NewConfigurationController creates a new ConfigurationController.
func NewConfigurationController(settings cache.SettingsService) *ConfigurationController {
	return &ConfigurationController{
		settings: settings,
	}
}

// GetInject returns whether badge injection is enabled.
func (cc *ConfigurationController) GetInject(c *gin.Context) {
	enabled := cc.settings.InjectEnabled()
	c.JSON(http.StatusOK, InjectConfiguration{InjectEnabled: &enabled})
}

// SetInject enables or disables badge injection and persists the choice.
func (cc *ConfigurationController) SetInject(c *gin.Context) {
	var body InjectConfiguration
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	enabled, err := cc.settings.SetInject(c.Request.Context(), *body.InjectEnabled)
	if err != nil {
		logger.WithComponent("configuration_controller").Errorf("failed to persist inject flag: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save configuration"})
		return
	}
	c.JSON(http.StatusOK, InjectConfiguration{InjectEnabled: &enabled})
}
