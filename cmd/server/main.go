package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"net"
	"net/http"
	"syscall"

	"github.com/enrichman/httpgrace"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	route "github.com/bassista/go_ratebadge/internal/api/route"
	appctx "github.com/bassista/go_ratebadge/internal/app"
	"github.com/bassista/go_ratebadge/internal/bridge"
	"github.com/bassista/go_ratebadge/internal/cache"
	"github.com/bassista/go_ratebadge/internal/config"
	"github.com/bassista/go_ratebadge/internal/games"
	"github.com/bassista/go_ratebadge/internal/injector"
	"github.com/bassista/go_ratebadge/internal/logger"
	"github.com/bassista/go_ratebadge/internal/ratings"
	"github.com/bassista/go_ratebadge/internal/repository"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithComponent("main").Fatalf("configuration error: %v", err)
	}

	// Set log level from configuration
	logLevel, err := logrus.ParseLevel(cfg.Misc.LogLevel)
	if err != nil {
		logger.WithComponent("main").Warnf("invalid log level '%s', using 'info': %v", cfg.Misc.LogLevel, err)
		logLevel = logrus.InfoLevel
	}
	logger.Logger.SetLevel(logLevel)
	logger.WithComponent("main").Debugf("log level set to: %s", logLevel.String())

	logFile, err := logger.TeeToFile(cfg.Data.LogFile)
	if err != nil {
		logger.WithComponent("main").Warnf("cannot open log file %s: %v", cfg.Data.LogFile, err)
	} else {
		defer logFile.Close()
	}
	logger.WithComponent("main").Info("main called")
	logger.WithComponent("main").Infof("App will run on port: %d", cfg.Server.Port)

	repo, err := repository.NewJSONRepository(cfg.Data.SettingsFile)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init repository: %v", err)
	}
	doc, err := repo.Load(context.Background())
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot load settings file: %v", err)
	}
	settings, err := cache.NewSettingsStore(*doc, repo)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init settings store: %v", err)
	}

	backend, backendCloser, err := newResponseBackend(cfg.Data)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init response cache: %v", err)
	}
	responses, err := cache.NewResponseStore(backend)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init response cache: %v", err)
	}

	ratingsClient := ratings.NewClient(cfg.Ratings)
	gamesSvc, err := games.NewService(responses, ratingsClient)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init games service: %v", err)
	}

	devtools := bridge.NewDevToolsBridge(cfg.Bridge)
	inject, err := injector.NewController(
		settings,
		injector.NewScriptPage(devtools, cfg.Bridge.TabName),
		injector.NewAssetPathResolver(devtools, cfg.Bridge.TabName),
		gamesSvc,
		injector.Options{
			PollInterval:   cfg.Misc.PollInterval,
			TickTimeout:    cfg.Misc.TickTimeout,
			MarkerFirst:    cfg.Misc.MarkerFirst,
			RatingsBaseURL: ratingsClient.BaseURL(),
		},
	)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init injector: %v", err)
	}

	app, err := appctx.New(cfg, repo, settings, gamesSvc, inject, backendCloser, ratingsClient, devtools)
	if err != nil {
		logger.WithComponent("main").Fatalf("cannot init app: %v", err)
	}
	defer app.Shutdown()

	if err := app.StartWatchers(); err != nil {
		logger.WithComponent("main").Fatalf("%v", err)
	}

	gin.SetMode(cfg.Misc.GinMode)
	gin.DefaultWriter = logger.Logger.Writer()
	gin.DefaultErrorWriter = logger.Logger.Writer()

	r := route.SetupRoutes(app, logger.Logger)
	mainSrv := createGraceHttpServer(app.BaseCtx, "main-server", app.Config.Server, r)

	if err := mainSrv.ListenAndServe(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithComponent("main").Fatal(err)
	}
}

// newResponseBackend picks the storage for cached upstream responses.
// The returned closer is nil for the file backend.
func newResponseBackend(cfg config.DataConfig) (cache.Backend, io.Closer, error) {
	switch cfg.CacheBackend {
	case config.CacheBackendRedis:
		rb, err := cache.NewRedisBackend(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		logger.WithComponent("main").Infof("caching responses in redis under prefix %q", cfg.RedisPrefix)
		return rb, rb, nil
	case config.CacheBackendFile, "":
		db, err := cache.NewDirBackend(cfg.CacheDir)
		if err != nil {
			return nil, nil, err
		}
		logger.WithComponent("main").Infof("caching responses in %s", cfg.CacheDir)
		return db, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func createGraceHttpServer(ctx context.Context, name string, serverConfig config.ServerConfig, r *gin.Engine) *httpgrace.Server {
	slogLogger := slog.New(slog.NewTextHandler(logger.Logger.Writer(), nil))

	srv := httpgrace.NewServer(r,
		httpgrace.WithTimeout(serverConfig.ShutDownTimeout),
		httpgrace.WithSignals(syscall.SIGTERM, syscall.SIGINT),
		httpgrace.WithLogger(slogLogger),
		httpgrace.WithBeforeShutdown(func() {
			logger.WithComponent("http").Infof("Shutting down %s server....", name)
		}),
		httpgrace.WithServerOptions(
			httpgrace.WithReadTimeout(serverConfig.ReadTimeout),
			httpgrace.WithWriteTimeout(serverConfig.WriteTimeout),
			httpgrace.WithIdleTimeout(serverConfig.IdleTimeout),
			func(srv *http.Server) {
				srv.BaseContext = func(_ net.Listener) context.Context {
					return ctx
				}
			},
			func(srv *http.Server) {
				srv.ErrorLog = log.New(logger.Logger.Writer(), fmt.Sprintf("[%s] ", name), log.LstdFlags)
			},
		),
	)
	return srv
}
