package app

import (
	"context"
	"habit_tracker_backend/internal/config"
	"habit_tracker_backend/internal/controller"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/service"
	"habit_tracker_backend/internal/util"
	"habit_tracker_backend/pkg/configwatcher"
	"habit_tracker_backend/pkg/database"
	"habit_tracker_backend/pkg/logger"
	"habit_tracker_backend/pkg/monitoring"
	"habit_tracker_backend/pkg/security"
	"habit_tracker_backend/pkg/tracing"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config    *config.Config
	Router    *gin.Engine
	DB        *gorm.DB
	Redis     *redis.Client
	Scheduler *ReminderScheduler

	services        *services
	tracer          *sdktrace.TracerProvider
	mu              sync.Mutex
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	habit    *repository.HabitRepository
	uploaded *repository.UploadedDataRepository
	archive  *repository.UploadArchiveRepository
}

type services struct {
	auth     *service.AuthService
	identity service.IdentityProvider
	habit    *service.HabitService
	insight  *service.InsightService
	upload   *service.UploadService
	reminder *service.ReminderService
}

type controllers struct {
	auth      *controller.AuthController
	habit     *controller.HabitController
	analytics *controller.AnalyticsController
	upload    *controller.UploadController
	email     *controller.EmailController
	health    *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.configCallbacks = append(a.configCallbacks, callback)
}

// reloadConfig 配置热更新后依次通知回调
func (a *App) reloadConfig(cfg *config.Config) {
	a.mu.Lock()
	callbacks := append([]func(*config.Config){}, a.configCallbacks...)
	a.mu.Unlock()

	for _, cb := range callbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		habit:    repository.NewHabitRepository(db),
		uploaded: repository.NewUploadedDataRepository(db),
		archive:  repository.NewUploadArchiveRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) (*services, error) {
	s := &services{}

	var cache service.InsightCache = service.NoopInsightCache{}
	if rdb != nil {
		cache = service.NewRedisInsightCache(rdb, cfg.Redis.InsightTTL)
	}

	s.auth = service.NewAuthService(repos.user)
	identity, err := service.NewIdentityProvider(cfg, s.auth)
	if err != nil {
		return nil, err
	}
	s.identity = identity

	s.habit = service.NewHabitService(repos.habit, cache)
	s.insight = service.NewInsightService(repos.habit, cache)
	s.upload = service.NewUploadService(repos.habit, repos.uploaded, repos.archive, service.NewStorageService(cfg), cache)
	s.reminder = service.NewReminderService(service.NewSMTPMailer(cfg.Email), repos.user, s.insight, cfg.Reminder.LookbackDays)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:      controller.NewAuthController(s.auth, s.identity),
		habit:     controller.NewHabitController(s.habit),
		analytics: controller.NewAnalyticsController(s.insight),
		upload:    controller.NewUploadController(s.upload),
		email:     controller.NewEmailController(s.reminder),
		health:    controller.NewHealthController(db, s.identity.Mode()),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// ensureGuestUser 访客模式下保证访客在用户表中存在，每日提醒才能覆盖到
func (a *App) ensureGuestUser(repos *repositories, cfg *config.Config) {
	if cfg.Identity.Provider != util.IdentityGuest {
		return
	}
	guest := cfg.Identity.Guest
	if _, err := repos.user.EnsureUser(guest.ID, guest.Email, guest.Name); err != nil {
		logger.Log.Warn("Failed to ensure guest user", zap.Uint("id", guest.ID), zap.Error(err))
	}
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
	}
	if cfg.MigrateOnly {
		return app
	}

	if cfg.Redis.Enabled {
		rdb, err := database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Warn("Redis unavailable, insight cache disabled", zap.Error(err))
		} else {
			app.Redis = rdb
		}
	}

	repos := app.initRepositories(db)
	app.ensureGuestUser(repos, cfg)

	services, err := app.initServices(repos, cfg, app.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(cfg.Tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)
	app.registerRoutes(router, controllers, services, cfg)

	if cfg.Storage.Type == util.StorageLocal {
		router.Static(service.LocalStorageURLPrefix, cfg.Storage.LocalPath)
	}

	app.Scheduler = NewReminderScheduler(func(ctx context.Context) {
		if _, err := services.reminder.SendDailyRemindersToAllUsers(ctx); err != nil {
			logger.Log.Error("Daily reminder job failed", zap.Error(err))
		}
	})
	if err := app.Scheduler.Apply(cfg.Reminder); err != nil {
		logger.Log.Error("Invalid reminder schedule", zap.String("schedule", cfg.Reminder.Schedule), zap.Error(err))
	}
	app.RegisterConfigCallback(func(newCfg *config.Config) {
		if err := app.Scheduler.Apply(newCfg.Reminder); err != nil {
			logger.Log.Error("Invalid reminder schedule, keeping previous", zap.String("schedule", newCfg.Reminder.Schedule), zap.Error(err))
		}
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	a.Scheduler.Start()

	if a.Config.ConfigFile != "" {
		go func() {
			if err := configwatcher.WatchConfig(ctx, a.Config.ConfigFile, a.reloadConfig); err != nil {
				logger.Log.Error("Config watcher stopped", zap.Error(err))
			}
		}()
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	stop()
	<-a.Scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(shutdownCtx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}

	logger.Log.Info("Server exiting")
}
