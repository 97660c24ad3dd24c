package controller

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bassista/go_ratebadge/internal/cache"
	"github.com/bassista/go_ratebadge/internal/logger"
)

// GameService is the subset of the games service used by the handlers.
type GameService interface {
	GetGameName(ctx context.Context, appID string) (string, error)
	GetAppSummary(ctx context.Context, appID string) (string, error)
}

// GameController serves game names and rating summaries.
type GameController struct {
	games GameService
}

// NewGameController creates a new GameController.
func NewGameController(games GameService) *GameController {
	return &GameController{games: games}
}

// GetName returns the store name of a game.
func (gc *GameController) GetName(c *gin.Context) {
	appID := c.Param("appid")
	name, err := gc.games.GetGameName(c.Request.Context(), appID)
	if err != nil {
		gc.fail(c, appID, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"name": name})
}

// GetSummary returns the rating summary JSON as is, or 204 when the ratings site has none.
func (gc *GameController) GetSummary(c *gin.Context) {
	appID := c.Param("appid")
	summary, err := gc.games.GetAppSummary(c.Request.Context(), appID)
	if err != nil {
		gc.fail(c, appID, err)
		return
	}
	if summary == "" {
		c.Status(http.StatusNoContent)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(summary))
}

func (gc *GameController) fail(c *gin.Context, appID string, err error) {
	switch {
	case errors.Is(err, cache.ErrInvalidKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid app id"})
	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "upstream timeout"})
	default:
		logger.WithComponent("game_controller").Errorf("lookup for %s failed: %v", appID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "lookup failed"})
	}
}
