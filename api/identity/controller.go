package identity

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	dmn "github.com/beka-birhanu/vinom-sandbox/identity"
	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

const (
	tokenTTL        = 24 * time.Hour
	defaultRunLimit = 10
	maxRunLimit     = 100
)

// IdentityServer issues learner tokens and describes their holders.
type IdentityServer struct {
	tokenizer i.Tokenizer
	reports   i.ReportRepo
}

// NewIdentityServer creates a new IdentityServer. reports may be nil.
func NewIdentityServer(t i.Tokenizer, reports i.ReportRepo) *IdentityServer {
	return &IdentityServer{
		tokenizer: t,
		reports:   reports,
	}
}

// RegisterPublic registers public routes.
func (c *IdentityServer) RegisterPublic(route *gin.RouterGroup) {
	route.POST("/learners/token", c.issueToken)
}

// RegisterProtected registers privileged routes.
func (c *IdentityServer) RegisterProtected(route *gin.RouterGroup) {
	route.GET("/learners/me", c.me)
}

// issueToken creates a guest learner and returns a token for it.
func (c *IdentityServer) issueToken(ctx *gin.Context) {
	var request TokenRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	learner, err := dmn.NewLearner(request.Name)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := c.tokenizer.Generate(learner, tokenTTL)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while issuing token"})
		return
	}

	ctx.JSON(http.StatusCreated, &TokenResponse{
		LearnerID: learner.ID.String(),
		Name:      learner.Name,
		Token:     token,
	})
}

// me returns the token holder and, when reports are stored, their latest runs.
func (c *IdentityServer) me(ctx *gin.Context) {
	learner, ok := LearnerFrom(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	limit, err := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(defaultRunLimit)))
	if err != nil || limit <= 0 || limit > maxRunLimit {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
		return
	}

	response := &LearnerResponse{
		LearnerID: learner.ID.String(),
		Name:      learner.Name,
		Runs:      []*i.RunReport{},
	}
	if c.reports != nil {
		runs, err := c.reports.ByLearner(ctx.Request.Context(), learner.ID, int64(limit))
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "error while loading runs"})
			return
		}
		if runs != nil {
			response.Runs = runs
		}
	}
	ctx.JSON(http.StatusOK, response)
}
