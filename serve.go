package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/beka-birhanu/vinom-sandbox/api"
	gameapi "github.com/beka-birhanu/vinom-sandbox/api/game"
	api_i "github.com/beka-birhanu/vinom-sandbox/api/i"
	"github.com/beka-birhanu/vinom-sandbox/api/identity"
	"github.com/beka-birhanu/vinom-sandbox/config"
	logger "github.com/beka-birhanu/vinom-sandbox/infrastruture/log"
	"github.com/beka-birhanu/vinom-sandbox/infrastruture/repo"
	"github.com/beka-birhanu/vinom-sandbox/infrastruture/scoreboard"
	"github.com/beka-birhanu/vinom-sandbox/infrastruture/token"
	"github.com/beka-birhanu/vinom-sandbox/service"
	"github.com/beka-birhanu/vinom-sandbox/service/i"
)

const (
	connectTimeout  = 10 * time.Second
	reportsCollName = "reports"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session HTTP API",
	Long: `Loads configuration from the environment (and .env), connects the optional
MongoDB run-report store and Redis scoreboard, and serves the HTTP API until
SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func serve(parent context.Context) error {
	cfg := config.Load()

	appLogger, err := logger.New("APP", config.ColorGreen, os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = appLogger.Sync() }()

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var reports i.ReportRepo
	if cfg.MongoURI != "" {
		client, err := connectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return err
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
			defer cancel()
			_ = client.Disconnect(dctx)
		}()
		reportRepo := repo.NewReportRepo(client, cfg.DBName, reportsCollName)
		if err := reportRepo.EnsureIndexes(ctx); err != nil {
			appLogger.Warning(fmt.Sprintf("Creating report indexes: %v", err))
		}
		reports = reportRepo
		appLogger.Info("Connected to MongoDB")
	} else {
		appLogger.Info("MONGO_URI not set, run reports disabled")
	}

	var board i.Scoreboard
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		pctx, cancel := context.WithTimeout(ctx, connectTimeout)
		err := client.Ping(pctx).Err()
		cancel()
		if err != nil {
			return fmt.Errorf("redis ping: %w", err)
		}
		board = scoreboard.NewRedisScoreboard(client, cfg.ScoreboardTTL)
		appLogger.Info("Connected to Redis")
	} else {
		appLogger.Info("REDIS_ADDR not set, scoreboard disabled")
	}

	sessionLogger, err := logger.New("SESSION-MANAGER", config.ColorCyan, os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	sessions := service.NewSessionManager(&service.Config{
		MaxSessions:  cfg.MaxSessions,
		SessionTTL:   cfg.SessionTTL,
		StepTimeout:  cfg.StepTimeout,
		MaxDimension: cfg.MaxMazeDimension,
		Scoreboard:   board,
		Reports:      reports,
		Logger:       sessionLogger,
	})
	defer sessions.Close()

	apiLogger, err := logger.New("API", config.ColorMagenta, os.Stdout, cfg.LogLevel)
	if err != nil {
		return err
	}
	// http.Server reports connection errors through the standard logger
	defer zap.RedirectStdLog(apiLogger.Zap())()
	jwtTokenizer := token.NewJwtService(cfg.JWTSecret, cfg.JWTIssuer)
	controllers := []api_i.Controller{
		identity.NewIdentityServer(jwtTokenizer, reports),
		gameapi.NewSessionController(sessions, apiLogger, cfg.SyncRunTimeout),
	}
	if board != nil {
		controllers = append(controllers, gameapi.NewScoreboardController(board))
	}

	router := api.NewRouter(api.Config{
		Addr:                    fmt.Sprintf("%s:%v", cfg.HostIP, cfg.RESTPort),
		BaseURL:                 "/api",
		GinMode:                 cfg.GinMode,
		Controllers:             controllers,
		AuthorizationMiddleware: identity.Authoriz(jwtTokenizer),
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		appLogger.Info(fmt.Sprintf("Serving on %s:%v", cfg.HostIP, cfg.RESTPort))
		return router.Run(gctx)
	})
	g.Go(func() error {
		return sessions.Reap(gctx)
	})

	err = g.Wait()
	appLogger.Info("Shutting down")
	return err
}

func connectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	cctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("MongoDB ping failed: %w", err)
	}
	return client, nil
}
