package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_ratebadge/internal/api/controller"
	"github.com/bassista/go_ratebadge/internal/api/middleware"
	"github.com/bassista/go_ratebadge/internal/cache"
)

// NewConfigurationRouter sets up configuration-related routes.
func NewConfigurationRouter(timeout time.Duration, group *gin.RouterGroup, settings cache.SettingsService) {
	cc := controller.NewConfigurationController(settings)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("configuration/inject", timeoutMiddleware, cc.GetInject)
	group.PUT("configuration/inject", timeoutMiddleware, cc.SetInject)
}
