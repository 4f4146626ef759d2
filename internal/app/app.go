package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"wechat_survey_backend/internal/config"
	"wechat_survey_backend/internal/controller"
	"wechat_survey_backend/internal/middleware"
	"wechat_survey_backend/internal/repository"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/database"
	"wechat_survey_backend/pkg/logger"
	"wechat_survey_backend/pkg/monitoring"
	"wechat_survey_backend/pkg/security"
	"wechat_survey_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	tracer          *sdktrace.TracerProvider
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user     *repository.UserRepository
	survey   *repository.SurveyRepository
	question *repository.QuestionRepository
	category *repository.CategoryRepository
	response *repository.ResponseRepository
	qrcode   *repository.QRCodeRepository
	rpi      *repository.RPIRepository
	session  *repository.SessionRepository
}

type services struct {
	auth      *service.AuthService
	storage   *service.StorageService
	stats     *service.StatsService
	survey    *service.SurveyService
	response  *service.ResponseService
	question  *service.QuestionService
	category  *service.CategoryService
	qrcode    *service.QRCodeService
	wechat    *service.WeChatService
	rpi       *service.RPIService
	scheduler *service.Scheduler
}

type controllers struct {
	auth        *controller.AuthController
	survey      *controller.SurveyController
	adminSurvey *controller.AdminSurveyController
	question    *controller.QuestionController
	category    *controller.CategoryController
	qrcode      *controller.QRCodeController
	wechat      *controller.WeChatController
	rpi         *controller.RPIController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ReloadConfig 配置文件变化时依次执行已注册的回调
func (a *App) ReloadConfig(cfg *config.Config) {
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:     repository.NewUserRepository(db),
		survey:   repository.NewSurveyRepository(db),
		question: repository.NewQuestionRepository(db),
		category: repository.NewCategoryRepository(db),
		response: repository.NewResponseRepository(db),
		qrcode:   repository.NewQRCodeRepository(db),
		rpi:      repository.NewRPIRepository(db),
		session:  repository.NewSessionRepository(rdb, a.Config.SessionTTL()),
	}
}

func (a *App) initServices(ctx context.Context, r *repositories, cfg *config.Config) (*services, error) {
	stats, err := service.NewStatsService(r.survey, r.response, time.Duration(cfg.Cache.StatsTTLSeconds)*time.Second)
	if err != nil {
		return nil, err
	}

	s := &services{
		auth:      service.NewAuthService(r.user, cfg),
		storage:   service.NewStorageService(ctx, &cfg.Storage),
		stats:     stats,
		response:  service.NewResponseService(r.response, r.survey),
		question:  service.NewQuestionService(r.question, r.category, cfg.Import.MaxBytes),
		category:  service.NewCategoryService(r.category),
		wechat:    service.NewWeChatService(cfg.WeChat.AppID, cfg.WeChat.AppSecret, cfg.WeChatTimeout(), r.session, r.session, cfg.App.BaseURL),
		rpi:       service.NewRPIService(r.rpi, r.session),
		scheduler: service.NewScheduler(r.survey, r.response),
	}
	s.survey = service.NewSurveyService(r.survey, r.response, r.question, r.session, stats)
	s.qrcode = service.NewQRCodeService(r.qrcode, r.survey, s.storage, cfg.App.BaseURL)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		survey:      controller.NewSurveyController(s.survey, s.stats),
		adminSurvey: controller.NewAdminSurveyController(s.survey, s.response, s.stats),
		question:    controller.NewQuestionController(s.question),
		category:    controller.NewCategoryController(s.category),
		qrcode:      controller.NewQRCodeController(s.qrcode),
		wechat:      controller.NewWeChatController(s.wechat),
		rpi:         controller.NewRPIController(s.rpi),
		health:      controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(ctx context.Context, router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
	router.Use(middleware.Session(cfg.Session.CookieName, cfg.SessionTTL(), cfg.Session.Secure))
}

func (a *App) registerConfigCallbacks(s *services) {
	a.RegisterConfigCallback(func(cfg *config.Config) {
		logger.SetMode(cfg.Server.Mode)
	})
	a.RegisterConfigCallback(func(cfg *config.Config) {
		s.wechat.UpdateCredentials(cfg.WeChat.AppID, cfg.WeChat.AppSecret)
		logger.Log.Info("微信公众号配置已更新", zap.Bool("configured", cfg.WeChat.AppID != ""))
	})
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	migrate := cfg.ForceMigrate || cfg.Server.Mode != gin.ReleaseMode
	db, err := database.InitDB(&cfg.Database, migrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		cancel: cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}
	app.Redis = rdb

	if err := util.RegisterValidators(); err != nil {
		logger.Log.Fatal("Failed to register validators", zap.Error(err))
	}

	repos := app.initRepositories(db, rdb)
	services, err := app.initServices(ctx, repos, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db, rdb)
	app.registerConfigCallbacks(services)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.Default()
	app.Router = router

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer(tracing.ServiceName, cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.setupMiddlewares(ctx, router, cfg)
	app.registerRoutes(router, controllers, cfg)

	// 远程存储初始化失败时同样退回本地目录
	if local, ok := services.storage.Provider.(*service.LocalStorageProvider); ok {
		router.Static("/uploads", local.Root)
	}

	if err := services.scheduler.Start(); err != nil {
		logger.Log.Fatal("Failed to start scheduler", zap.Error(err))
	}

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	a.Close(ctx)
	log.Println("Server exiting")
}

// Close 停止后台任务并释放连接
func (a *App) Close(ctx context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	if a.services != nil {
		a.services.scheduler.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
