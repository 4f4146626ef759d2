package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"wechat_survey_backend/internal/config"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/repository"
	"wechat_survey_backend/internal/service"
	"wechat_survey_backend/pkg/database"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

const usage = `用法:
  surveyctl authcodes   [-number 10] [-length 8] [-prefix RPI]
  surveyctl createadmin -username admin -password ****** [-email a@b.c] [-role admin|staff]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Print(usage)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		color.HiBlack("No .env file found")
	}

	var err error
	switch os.Args[1] {
	case "authcodes":
		err = runAuthCodes(os.Args[2:])
	case "createadmin":
		err = runCreateAdmin(os.Args[2:])
	default:
		fmt.Print(usage)
		os.Exit(2)
	}
	if err != nil {
		color.Red("失败: %v", err)
		os.Exit(1)
	}
}

func loadConfig(dir string) (*config.Config, error) {
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("加载配置: %w", err)
	}
	return cfg, nil
}

func runAuthCodes(args []string) error {
	fs := flag.NewFlagSet("authcodes", flag.ExitOnError)
	configDir := fs.String("config", "configs", "配置目录")
	number := fs.Int("number", 10, "生成数量")
	length := fs.Int("length", 0, "授权码长度(含前缀)，0 表示默认长度")
	prefix := fs.String("prefix", "", "授权码前缀")
	fs.Parse(args)

	cfg, err := loadConfig(*configDir)
	if err != nil {
		return err
	}
	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		return err
	}

	// 生成授权码不读写会话
	svc := service.NewRPIService(repository.NewRPIRepository(db), nil)
	res, err := svc.GenerateCodes(context.Background(), service.GenerateCodesRequest{
		Number: *number,
		Length: *length,
		Prefix: *prefix,
	})
	if err != nil {
		return err
	}

	for _, code := range res.Codes {
		fmt.Println(code)
	}
	color.Green("已生成 %d 个授权码", len(res.Codes))
	if res.Duplicates > 0 {
		color.Yellow("重复跳过 %d 次", res.Duplicates)
	}
	return nil
}

func runCreateAdmin(args []string) error {
	fs := flag.NewFlagSet("createadmin", flag.ExitOnError)
	configDir := fs.String("config", "configs", "配置目录")
	username := fs.String("username", "", "用户名")
	email := fs.String("email", "", "邮箱")
	password := fs.String("password", "", "密码，至少 6 位")
	role := fs.String("role", string(model.Admin), "角色 admin 或 staff")
	fs.Parse(args)

	cfg, err := loadConfig(*configDir)
	if err != nil {
		return err
	}
	db, err := database.InitDB(&cfg.Database, false)
	if err != nil {
		return err
	}

	auth := service.NewAuthService(repository.NewUserRepository(db), cfg)
	user, err := auth.CreateAccount(context.Background(), *username, *email, *password, model.UserRole(*role))
	if err != nil {
		return err
	}
	color.Green("已创建账号 %s (id=%d, role=%s)", user.Username, user.ID, user.Role)
	return nil
}
