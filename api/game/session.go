package gameapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/beka-birhanu/vinom-sandbox/api/identity"
	"github.com/beka-birhanu/vinom-sandbox/game"
	"github.com/beka-birhanu/vinom-sandbox/generator"
	"github.com/beka-birhanu/vinom-sandbox/infrastruture/log"
	"github.com/beka-birhanu/vinom-sandbox/maze"
	"github.com/beka-birhanu/vinom-sandbox/sandbox"
	"github.com/beka-birhanu/vinom-sandbox/service"
	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

// DefaultSyncRunTimeout bounds a step or a synchronous run served within one request.
const DefaultSyncRunTimeout = 30 * time.Second

// SessionController manages learner sessions.
type SessionController struct {
	sessions    *service.SessionManager
	logger      i.Logger
	syncTimeout time.Duration
}

// NewSessionController initializes a SessionController. Steps and synchronous runs end when
// the request does or after syncTimeout, DefaultSyncRunTimeout when it is not positive.
func NewSessionController(sm *service.SessionManager, logger i.Logger, syncTimeout time.Duration) *SessionController {
	if logger == nil {
		logger = log.Nop()
	}
	if syncTimeout <= 0 {
		syncTimeout = DefaultSyncRunTimeout
	}
	return &SessionController{
		sessions:    sm,
		logger:      logger,
		syncTimeout: syncTimeout,
	}
}

// RegisterPublic registers public routes.
func (sc *SessionController) RegisterPublic(route *gin.RouterGroup) {}

// RegisterProtected registers protected routes.
func (sc *SessionController) RegisterProtected(route *gin.RouterGroup) {
	sessions := route.Group("/sessions")
	{
		sessions.POST("", sc.create)
		sessions.GET("/:ID", sc.get)
		sessions.PUT("/:ID/code", sc.updateCode)
		sessions.POST("/:ID/step", sc.step)
		sessions.POST("/:ID/simulate", sc.simulate)
		sessions.POST("/:ID/stop", sc.stop)
		sessions.DELETE("/:ID", sc.delete)
	}
}

// create generates a maze and binds the submitted code to it.
func (sc *SessionController) create(ctx *gin.Context) {
	learner, ok := identity.LearnerFrom(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var request CreateSessionRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := sc.sessions.Create(learner, service.CreateSessionRequest{
		Width:           request.Width,
		Height:          request.Height,
		Generator:       request.Generator,
		ExtraEdgeChance: request.ExtraEdgeChance,
		Seed:            request.Seed,
		Code:            request.Code,
		Constants:       request.Constants,
	})
	if err != nil {
		sc.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, &SessionResponse{Session: session.View()})
}

func (sc *SessionController) get(ctx *gin.Context) {
	session, ok := sc.session(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, &SessionResponse{Session: session.View()})
}

func (sc *SessionController) updateCode(ctx *gin.Context) {
	session, ok := sc.session(ctx)
	if !ok {
		return
	}

	var request UpdateCodeRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := session.Simulator().SetStepCode(request.Code); err != nil {
		sc.fail(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, &SessionResponse{Session: session.View()})
}

// step runs the program once. A fatal program error is part of the response, not a request
// failure.
func (sc *SessionController) step(ctx *gin.Context) {
	session, ok := sc.session(ctx)
	if !ok {
		return
	}

	rctx, cancel := context.WithTimeout(ctx.Request.Context(), sc.syncTimeout)
	defer cancel()
	err := session.Simulator().StepContext(rctx)
	if errors.Is(err, game.ErrReentrantStep) {
		sc.fail(ctx, err)
		return
	}
	sc.respond(ctx, http.StatusOK, session, err)
}

// simulate runs synchronously without a timeout and schedules a timed run otherwise. A
// synchronous run is cut short when the request ends or the sync timeout passes.
func (sc *SessionController) simulate(ctx *gin.Context) {
	session, ok := sc.session(ctx)
	if !ok {
		return
	}

	var request SimulateRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := game.SimulateOptions{
		Timeout:     time.Duration(request.TimeoutMS) * time.Millisecond,
		MaxSteps:    request.MaxSteps,
		StopOnError: request.StopOnError,
	}
	if opts.Timeout <= 0 && opts.MaxSteps > game.DefaultMaxSteps {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("max_steps above %d needs timeout_ms", game.DefaultMaxSteps),
		})
		return
	}

	rctx, cancel := context.WithTimeout(ctx.Request.Context(), sc.syncTimeout)
	defer cancel()
	err := session.Simulator().SimulateContext(rctx, opts)
	if errors.Is(err, game.ErrAlreadySimulating) || errors.Is(err, game.ErrReentrantStep) {
		sc.fail(ctx, err)
		return
	}

	status := http.StatusOK
	if opts.Timeout > 0 {
		status = http.StatusAccepted
	}
	sc.respond(ctx, status, session, err)
}

func (sc *SessionController) stop(ctx *gin.Context) {
	session, ok := sc.session(ctx)
	if !ok {
		return
	}
	session.Simulator().StopSimulating()
	ctx.JSON(http.StatusOK, &SessionResponse{Session: session.View()})
}

func (sc *SessionController) delete(ctx *gin.Context) {
	learner, ok := identity.LearnerFrom(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ID, err := uuid.Parse(ctx.Params.ByName("ID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}

	if err := sc.sessions.Delete(learner.ID, ID); err != nil {
		sc.fail(ctx, err)
		return
	}
	ctx.Status(http.StatusNoContent)
}

// session resolves the :ID parameter for the requesting learner, writing the error response
// when it cannot.
func (sc *SessionController) session(ctx *gin.Context) (*service.Session, bool) {
	learner, ok := identity.LearnerFrom(ctx)
	if !ok {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return nil, false
	}
	ID, err := uuid.Parse(ctx.Params.ByName("ID"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return nil, false
	}

	session, err := sc.sessions.Get(learner.ID, ID)
	if err != nil {
		sc.fail(ctx, err)
		return nil, false
	}
	return session, true
}

func (sc *SessionController) respond(ctx *gin.Context, status int, session *service.Session, runErr error) {
	response := &SessionResponse{Session: session.View()}
	if runErr != nil {
		response.Error = runErr.Error()
	}
	ctx.JSON(status, response)
}

// fail maps service errors to HTTP statuses.
func (sc *SessionController) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTooManySessions):
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrAlreadySimulating), errors.Is(err, game.ErrReentrantStep):
		ctx.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, sandbox.ErrCompile),
		errors.Is(err, service.ErrMazeTooLarge),
		errors.Is(err, generator.ErrInvalidChance),
		errors.Is(err, maze.ErrInvalidDimensions),
		errors.Is(err, maze.ErrNoEmptyCells),
		errors.Is(err, generator.ErrUnknownGenerator):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		sc.logger.Error(fmt.Sprintf("Session request %s %s: %v", ctx.Request.Method, ctx.FullPath(), err))
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
