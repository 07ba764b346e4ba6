package gameapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

const (
	defaultScoreLimit = 10
	maxScoreLimit     = 100
)

// ScoreboardController serves board rankings.
type ScoreboardController struct {
	scoreboard i.Scoreboard
}

// NewScoreboardController initializes a ScoreboardController.
func NewScoreboardController(sb i.Scoreboard) *ScoreboardController {
	return &ScoreboardController{scoreboard: sb}
}

// RegisterPublic registers public routes.
func (c *ScoreboardController) RegisterPublic(route *gin.RouterGroup) {
	route.GET("/scoreboard/:board", c.top)
}

// RegisterProtected registers protected routes.
func (c *ScoreboardController) RegisterProtected(route *gin.RouterGroup) {}

func (c *ScoreboardController) top(ctx *gin.Context) {
	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultScoreLimit)))
	if err != nil || limit <= 0 || limit > maxScoreLimit {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	board := ctx.Params.ByName("board")
	entries, err := c.scoreboard.Top(ctx.Request.Context(), board, int64(limit))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while loading scoreboard"})
		return
	}
	total, err := c.scoreboard.Count(ctx.Request.Context(), board)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while loading scoreboard"})
		return
	}
	if entries == nil {
		entries = []i.ScoreEntry{}
	}
	ctx.JSON(http.StatusOK, gin.H{"board": board, "total": total, "entries": entries})
}
