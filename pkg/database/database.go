package database

import (
	"fmt"
	"log"
	"wechat_survey_backend/internal/config"
	"wechat_survey_backend/internal/model"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig, migrate bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if !migrate {
		return db, nil
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")
	return db, nil
}

// Migrate 建表并写入默认数据
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.Category{},
		&model.Question{},
		&model.Option{},
		&model.Survey{},
		&model.SurveyQuestion{},
		&model.Response{},
		&model.Answer{},
		&model.QRCode{},
		&model.AuthorizationCode{},
		&model.RPIUser{},
		&model.RPIQuestion{},
		&model.RPIAnswer{},
		&model.RPITestResult{},
	)
	if err != nil {
		return err
	}

	return seedRPIQuestions(db)
}

// 默认的 RPI 测试题（仅在表为空时写入）
func seedRPIQuestions(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.RPIQuestion{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	defaultQuestions := []model.RPIQuestion{
		{QuestionOrder: 1, Category: "信任与隐私", QuestionText: "我会经常查看伴侣的手机、社交媒体或聊天记录"},
		{QuestionOrder: 2, Category: "嫉妒与安全感", QuestionText: "当伴侣与异性朋友相处时，我会感到不安或嫉妒"},
		{QuestionOrder: 3, Category: "控制欲", QuestionText: "我希望伴侣能随时告诉我他们在哪里、在做什么"},
		{QuestionOrder: 4, Category: "焦虑与依赖", QuestionText: "我会因为伴侣没有立即回复消息而感到焦虑"},
		{QuestionOrder: 5, Category: "自我中心", QuestionText: "我认为伴侣应该优先考虑我的感受和需求"},
		{QuestionOrder: 6, Category: "被忽视感", QuestionText: "当伴侣有自己的兴趣爱好或社交活动时，我会感到被忽视"},
		{QuestionOrder: 7, Category: "控制欲", QuestionText: "我会试图影响伴侣的穿着、交友或职业选择"},
		{QuestionOrder: 8, Category: "安全感", QuestionText: "我害怕伴侣会离开我，所以会尽力讨好他们"},
		{QuestionOrder: 9, Category: "过去经历", QuestionText: "我会因为伴侣过去的感情经历而感到不舒服或耿耿于怀"},
		{QuestionOrder: 10, Category: "独占欲", QuestionText: "我希望伴侣只属于我一个人，不与其他人分享他们的时间和精力"},
	}
	return db.Create(&defaultQuestions).Error
}
