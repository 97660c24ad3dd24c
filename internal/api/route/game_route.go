package route

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_ratebadge/internal/api/controller"
	"github.com/bassista/go_ratebadge/internal/api/middleware"
)

// NewGameRouter sets up the game name and rating summary routes.
func NewGameRouter(timeout time.Duration, group *gin.RouterGroup, games controller.GameService) {
	gc := controller.NewGameController(games)
	timeoutMiddleware := middleware.RequestTimeout(timeout)

	group.GET("games/:appid/name", timeoutMiddleware, gc.GetName)
	group.GET("games/:appid/summary", timeoutMiddleware, gc.GetSummary)
}
