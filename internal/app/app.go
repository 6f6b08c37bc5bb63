package app

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.uber.org/zap"

	"github.com/Yassin-Kassem/weather-news-api/internal/config"
	authHandler "github.com/Yassin-Kassem/weather-news-api/internal/handlers/auth"
	newsHandler "github.com/Yassin-Kassem/weather-news-api/internal/handlers/news"
	searchHandler "github.com/Yassin-Kassem/weather-news-api/internal/handlers/search"
	weatherHandler "github.com/Yassin-Kassem/weather-news-api/internal/handlers/weather"
	"github.com/Yassin-Kassem/weather-news-api/internal/models"
	"github.com/Yassin-Kassem/weather-news-api/internal/preferences"
	authSvc "github.com/Yassin-Kassem/weather-news-api/internal/services/auth"
	"github.com/Yassin-Kassem/weather-news-api/internal/services/cache"
	"github.com/Yassin-Kassem/weather-news-api/internal/services/geocode"
	"github.com/Yassin-Kassem/weather-news-api/internal/services/location"
	loggerT "github.com/Yassin-Kassem/weather-news-api/internal/services/logger"
	metricsSvc "github.com/Yassin-Kassem/weather-news-api/internal/services/metrics"
	"github.com/Yassin-Kassem/weather-news-api/internal/services/news"
	serviceWeather "github.com/Yassin-Kassem/weather-news-api/internal/services/weather"
	"github.com/Yassin-Kassem/weather-news-api/internal/workflow"
	fLogger "github.com/Yassin-Kassem/weather-news-api/pkg/logger"
)

// ServiceContainer holds initialized dependencies for servers.
type ServiceContainer struct {
	Acquisition *workflow.Acquisition
	Search      *workflow.Search

	Router     *gin.Engine
	Srv        *http.Server
	db         *sql.DB
	refresher  *authSvc.Refresher
	fileLogger *zap.Logger
}

// App ties together config, logger, and metrics for startup/shutdown.
type App struct {
	cfg config.Config
	l   zerolog.Logger
	m   *metricsSvc.Metrics
}

// New prepares a new App with given config, zerolog logger, and metrics.
func New(cfg config.Config, logger zerolog.Logger, met *metricsSvc.Metrics) *App {
	return &App{
		cfg: cfg,
		l:   logger,
		m:   met,
	}
}

// Start initializes services, mounts routes and waits for shutdown.
func (a *App) Start(ctx context.Context) error {
	srvContainer, err := a.init(ctx)
	if err != nil {
		return err
	}

	a.l.Info().
		Str("address", a.cfg.Server.Address).
		Msg("starting weather-news service")

	go func() {
		if serveErr := srvContainer.Srv.ListenAndServe(); serveErr != nil &&
			!errors.Is(serveErr, http.ErrServerClosed) {
			a.l.Error().Err(serveErr).Msg("http server failed")
		}
	}()

	a.l.Info().Msg("weather-news service started successfully")

	<-ctx.Done()
	a.l.Info().Msg("shutdown signal received, stopping weather-news service")

	if err := a.Shutdown(srvContainer); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown application")
		return err
	}
	a.l.Info().Msg("application shutdown successfully")
	return nil
}

// Shutdown performs graceful shutdown of the HTTP server, stops background
// jobs and syncs loggers.
func (a *App) Shutdown(srvContainer ServiceContainer) error {
	a.l.Info().Msg("stopping weather-news service…")

	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			a.l.Error().Err(err).Msg("failed to sync file logger")
		} else {
			a.l.Info().Msg("file logger synced successfully")
		}
	}(srvContainer.fileLogger)

	srvContainer.refresher.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srvContainer.Srv.Shutdown(shutdownCtx); err != nil {
		a.l.Error().Err(err).Msg("failed to shutdown http server")
	}

	if err := srvContainer.db.Close(); err != nil {
		a.l.Error().Err(err).Msg("failed to close database")
	} else {
		a.l.Info().Msg("database closed")
	}

	a.l.Info().Msg("shutdown complete")
	return nil
}

const shutdownTimeout = 10 * time.Second

// init sets up storage, provider clients, workflows and the router without
// starting the server.
func (a *App) init(_ context.Context) (ServiceContainer, error) {
	a.l.Info().Msgf("initializing weather-news service with config: %+v", a.cfg)

	db, err := CreateSqliteDb(a.cfg.DB.Source)
	if err != nil {
		return ServiceContainer{}, err
	}

	if err := InitSqliteDb(db, a.cfg.DB.Dialect, a.cfg.DB.MigrationsPath); err != nil {
		return ServiceContainer{}, err
	}

	redisClient := newRedisConnection(a.cfg.Redis.Host+":"+a.cfg.Redis.Port, a.cfg.Redis.Db)

	fileLogger, err := fLogger.NewFileLogger(a.cfg.LogsPath)
	if err != nil {
		return ServiceContainer{}, err
	}

	// Every outbound provider call goes through the logging transport.
	roundTripper := loggerT.NewRoundTripper(fileLogger)
	httpLogClient := &http.Client{Transport: roundTripper}

	breakerCfg := serviceWeather.BreakerConfig{
		TimeInterval: time.Duration(a.cfg.Breaker.TimeInterval) * time.Second,
		TimeTimeOut:  time.Duration(a.cfg.Breaker.TimeTimeOut) * time.Second,
		RepeatNumber: a.cfg.Breaker.RepeatNumber,
	}
	weatherClient := serviceWeather.NewBreakerClient("WeatherAPI", breakerCfg,
		serviceWeather.NewClient(
			a.cfg.Weather.Key,
			a.cfg.Weather.BaseURL,
			a.cfg.Weather.ForecastDays,
			httpLogClient,
			a.l,
		),
	)

	newsClient := news.NewClient(a.cfg.News.Key, a.cfg.News.BaseURL, a.cfg.News.Language, httpLogClient, a.l)

	geoCache := cache.NewMetricsDecorator[models.Place](
		cache.NewRedisClient[models.Place](redisClient, a.l, time.Duration(a.cfg.Redis.LiveTimeMinutes)*time.Minute),
		metricsSvc.NewPromCollector(a.m.Registry),
	)
	geocoder := geocode.NewCachedClient(
		geocode.NewClient(a.cfg.Geocode.BaseURL, httpLogClient, a.l),
		geoCache,
		a.l,
	)

	clock := clockwork.NewRealClock()
	locator := location.NewService(
		location.NewIPSensor(a.cfg.Location.SensorURL, a.cfg.Location.Consent, httpLogClient, a.l),
		clock,
		time.Duration(a.cfg.Location.TimeoutSeconds)*time.Second,
		a.l,
	)

	prefStore := preferences.NewStore(db, a.l)

	alerts := workflow.NewAlertBox()
	acquisition := workflow.NewAcquisition(
		prefStore,
		locator,
		weatherClient,
		geocoder,
		alerts,
		a.m,
		time.Duration(a.cfg.Location.InitialMaxAgeSecs)*time.Second,
		time.Duration(a.cfg.Location.RefreshMaxAgeSecs)*time.Second,
		a.l,
	)
	search := workflow.NewSearch(
		weatherClient,
		clock,
		time.Duration(a.cfg.Search.DebounceMs)*time.Millisecond,
		a.cfg.Search.MinChars,
		a.m,
		a.l,
	)

	authClient := authSvc.NewClient(a.cfg.Auth.Key, a.cfg.Auth.BaseURL, a.cfg.Auth.TokenURL, httpLogClient, a.l)
	sessionHolder := authSvc.NewHolder(a.l)
	refresher := authSvc.NewRefresher(authClient, sessionHolder, a.cfg.Auth.RefreshSpec, a.l)
	if err := refresher.Start(); err != nil {
		return ServiceContainer{}, err
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(a.m.HTTPMiddleware())
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(a.m.Registry, promhttp.HandlerOpts{})))

	a.mountRoutes(router, acquisition, search, alerts, newsClient, authClient, sessionHolder)

	httpServer := &http.Server{
		Addr:        a.cfg.Server.Address,
		Handler:     router,
		ReadTimeout: time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
	}

	return ServiceContainer{
		Acquisition: acquisition,
		Search:      search,
		Router:      router,
		Srv:         httpServer,
		db:          db,
		refresher:   refresher,
		fileLogger:  fileLogger,
	}, nil
}

func (a *App) mountRoutes(
	router *gin.Engine,
	acquisition *workflow.Acquisition,
	search *workflow.Search,
	alerts *workflow.AlertBox,
	newsClient *news.Client,
	authClient *authSvc.Client,
	sessionHolder *authSvc.Holder,
) {
	wHandler := weatherHandler.NewHandler(acquisition, alerts, a.l)
	sHandler := searchHandler.NewHandler(search, acquisition)
	nHandler := newsHandler.NewHandler(newsClient)
	aHandler := authHandler.NewHandler(authClient, sessionHolder)

	api := router.Group("/api")

	api.POST("/auth/signup", aHandler.SignUp)
	api.POST("/auth/signin", aHandler.SignIn)
	api.POST("/auth/signout", aHandler.SignOut)
	api.GET("/auth/session", aHandler.Session)

	gated := api.Group("")
	gated.Use(authHandler.RequireSession(sessionHolder))

	gated.GET("/weather", wHandler.GetWeather)
	gated.POST("/weather/refresh", wHandler.Refresh)
	gated.POST("/weather/city", wHandler.SwitchCity)
	gated.POST("/weather/alert/dismiss", wHandler.DismissAlert)

	gated.PUT("/search/query", sHandler.SetQuery)
	gated.GET("/search/results", sHandler.Results)
	gated.POST("/search/select", sHandler.Select)

	gated.GET("/news", nHandler.GetNews)
}

func CreateSqliteDb(name string) (*sql.DB, error) {
	if name == "" {
		return nil, errors.New("database name cannot be empty")
	}
	connectionString := "file:" + name + "?cache=shared&mode=rwc"
	db, err := sql.Open("sqlite", connectionString)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func InitSqliteDb(db *sql.DB, dialect, migrationPath string) error {
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}

	if err := goose.Up(db, migrationPath); err != nil {
		return err
	}

	return nil
}

func newRedisConnection(connString string, dbNum int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: connString, DB: dbNum})
}
