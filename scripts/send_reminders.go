// 手动触发每日提醒邮件
//
// 主程序已按 reminder.schedule 定时发送，此脚本用于补发或验证 SMTP 配置。
//
// 用法: go run scripts/send_reminders.go [-config configs] [-email someone@example.com]

package main

import (
	"context"
	"flag"
	"habit_tracker_backend/internal/config"
	"habit_tracker_backend/internal/repository"
	"habit_tracker_backend/internal/service"
	"habit_tracker_backend/internal/util"
	"habit_tracker_backend/pkg/database"
	"habit_tracker_backend/pkg/logger"
	"log"
)

func main() {
	configDir := flag.String("config", "configs", "config.yaml 所在目录")
	testEmail := flag.String("email", "", "只给该地址发送一封测试提醒")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}

	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	habitRepo := repository.NewHabitRepository(db)
	reminders := service.NewReminderService(
		service.NewSMTPMailer(cfg.Email),
		repository.NewUserRepository(db),
		service.NewInsightService(habitRepo, nil),
		cfg.Reminder.LookbackDays,
	)

	ctx := context.Background()
	if *testEmail != "" {
		if err := reminders.SendTestReminder(ctx, &util.Identity{Email: *testEmail}); err != nil {
			log.Fatalf("发送失败: %v", err)
		}
		log.Println("测试提醒已发送")
		return
	}

	log.Println("手动触发每日提醒...")
	result, err := reminders.SendDailyRemindersToAllUsers(ctx)
	if err != nil {
		log.Fatalf("提醒任务失败: %v", err)
	}
	log.Printf("完成！成功 %d，失败 %d", result.Sent, result.Failed)
}
