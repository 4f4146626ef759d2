// @title 微信问卷 后端 API
// @version 1.0
// @description 微信问卷调查与 RPI 测试的后端服务：问卷答题、扫码入口、题库管理和统计。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

//go:generate swag init -g main.go -o docs --parseInternal

package main

import (
	"context"
	"flag"
	"log"
	"wechat_survey_backend/internal/app"
	"wechat_survey_backend/internal/config"
	"wechat_survey_backend/pkg/configwatcher"
	"wechat_survey_backend/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const configDir = "configs"

func main() {
	// 命令行参数
	migrateOnly := flag.Bool("migrate-only", false, "只执行数据库迁移，完成后退出")
	migrate := flag.Bool("migrate", false, "启动时强制执行数据库迁移（即使是 release 模式）")
	watch := flag.Bool("watch-config", true, "监听配置文件变化并热更新")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 设置迁移标志
	cfg.ForceMigrate = *migrate || *migrateOnly
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		application.Close(context.Background())
		log.Println("数据库迁移完成，退出程序")
		return
	}

	if *watch {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		if err := configwatcher.WatchConfig(ctx, configDir, application.ReloadConfig); err != nil {
			logger.Log.Warn("配置热更新未启用", zap.Error(err))
		}
	}

	application.Run()
}
