package route

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bassista/go_ratebadge/internal/api/middleware"
	"github.com/bassista/go_ratebadge/internal/app"
)

// SetupRoutes builds the engine with middleware and all public routes.
func SetupRoutes(appCtx *app.App, log *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middleware.HoneybadgerMiddleware(log, os.Getenv("HONEYBADGER_API_KEY"), os.Getenv("GO_ENV")))
	r.Use(gin.Recovery())
	r.Use(middleware.CORSMiddleware(appCtx.Config.Server.CORSAllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "UP",
		})
	})

	publicRouter := r.Group("")
	timeout := appCtx.Config.Server.RequestTimeout

	NewConfigurationRouter(timeout, publicRouter, appCtx.Settings)
	NewGameRouter(timeout, publicRouter, appCtx.Games)

	return r
}
