package app

import (
	"wechat_survey_backend/docs"
	"wechat_survey_backend/internal/config"
	"wechat_survey_backend/internal/middleware"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/util"
	"wechat_survey_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.GET("/health", c.health.HealthCheck)
	router.NoRoute(util.NotFound)

	// 1. 答卷页面和扫码入口(无需登录)
	a.registerPublicRoutes(router, c, cfg)

	// 2. RPI 测试，以会话标识用户
	a.registerRPIRoutes(router, c)

	// 3. 后台接口
	a.registerAdminRoutes(router, c, cfg)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	survey := router.Group("/survey")
	survey.Use(middleware.TryAuthMiddleware(cfg.JWT.Secret))
	{
		survey.GET("/:id", c.survey.Detail)
		survey.POST("/:id/submit", c.survey.SubmitForm)
	}

	router.GET("/qrcode/:code/redirect/", c.qrcode.Redirect)
	router.GET("/qrcode/:code/image/", c.qrcode.Image)
	router.GET("/qr/:code", c.qrcode.Redirect)

	wechat := router.Group("/wechat")
	{
		wechat.GET("/auth", c.wechat.Auth)
		wechat.GET("/callback", c.wechat.Callback)
	}

	api := router.Group("/api")
	{
		api.POST("/auth/login", c.auth.Login)

		surveys := api.Group("/surveys")
		surveys.Use(middleware.TryAuthMiddleware(cfg.JWT.Secret))
		{
			surveys.GET("", c.survey.ListOpen)
			surveys.POST("/:id/submit", c.survey.SubmitJSON)
		}

		api.GET("/survey/:id/stats/", c.survey.Stats)

		me := api.Group("/auth")
		me.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
		{
			me.GET("/me", c.auth.Me)
			me.PUT("/password", c.auth.ChangePassword)
		}
	}
}

func (a *App) registerRPIRoutes(router *gin.Engine, c *controllers) {
	rpi := router.Group("/api/rpi")
	{
		rpi.POST("/auth", c.rpi.Auth)
		rpi.GET("/questions", c.rpi.Questions)
		rpi.POST("/submit", c.rpi.Submit)
		rpi.GET("/result", c.rpi.Result)
		rpi.POST("/reset", c.rpi.Reset)
	}
}

func (a *App) registerAdminRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	admin := router.Group("/api/admin")
	admin.Use(middleware.AuthMiddleware(cfg.JWT.Secret), middleware.RoleMiddleware(model.Admin, model.Staff))
	{
		surveys := admin.Group("/surveys")
		{
			surveys.GET("", c.adminSurvey.List)
			surveys.POST("", c.adminSurvey.Create)
			surveys.POST("/activate", c.adminSurvey.Activate)
			surveys.POST("/deactivate", c.adminSurvey.Deactivate)
			surveys.GET("/:id", c.adminSurvey.Get)
			surveys.PUT("/:id", c.adminSurvey.Update)
			surveys.DELETE("/:id", c.adminSurvey.Delete)
			surveys.POST("/:id/questions", c.adminSurvey.AddQuestion)
			surveys.PUT("/:id/questions/:questionId", c.adminSurvey.UpdateQuestion)
			surveys.DELETE("/:id/questions/:questionId", c.adminSurvey.RemoveQuestion)
			surveys.GET("/:id/statistics", c.adminSurvey.Statistics)
			surveys.GET("/:id/responses", c.adminSurvey.Responses)
		}
		admin.GET("/responses/:id", c.adminSurvey.ResponseDetail)

		questions := admin.Group("/questions")
		{
			questions.GET("", c.question.List)
			questions.POST("", c.question.Create)
			questions.GET("/types", c.question.Types)
			questions.GET("/export", c.question.Export)
			questions.GET("/template", c.question.Template)
			questions.POST("/import", c.question.Import)
			questions.POST("/public", c.question.MakePublic)
			questions.POST("/private", c.question.MakePrivate)
			questions.POST("/category", c.question.ChangeCategory)
			questions.GET("/:id", c.question.Get)
			questions.PUT("/:id", c.question.Update)
			questions.DELETE("/:id", c.question.Delete)
		}

		categories := admin.Group("/categories")
		{
			categories.GET("", c.category.List)
			categories.POST("", c.category.Create)
			categories.POST("/activate", c.category.Activate)
			categories.POST("/deactivate", c.category.Deactivate)
			categories.GET("/:id", c.category.Get)
			categories.PUT("/:id", c.category.Update)
			categories.DELETE("/:id", c.category.Delete)
		}

		qrcodes := admin.Group("/qrcodes")
		{
			qrcodes.GET("", c.qrcode.List)
			qrcodes.POST("", c.qrcode.Create)
			qrcodes.GET("/:code", c.qrcode.Get)
			qrcodes.DELETE("/:code", c.qrcode.Delete)
			qrcodes.POST("/:code/archive", c.qrcode.Archive)
		}

		rpi := admin.Group("/rpi")
		{
			rpi.GET("/codes", c.rpi.ListCodes)
			rpi.POST("/codes", c.rpi.GenerateCodes)
			rpi.GET("/results", c.rpi.ListResults)
		}
	}
}
