// Package testutil 测试用的数据库与数据构造工具
package testutil

import (
	"fmt"
	"habit_tracker_backend/internal/analytics"
	"habit_tracker_backend/internal/model"
	"habit_tracker_backend/pkg/database"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB 每个测试独立的内存 SQLite 库
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// 内存库在最后一个连接关闭时销毁，保持一个连接常驻
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

// Day 解析 YYYY-MM-DD，格式错误直接 panic
func Day(s string) time.Time {
	d, err := analytics.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Habit 构造一条习惯记录
func Habit(userID uint, name, date string, status int) model.Habit {
	return model.Habit{
		UserID:    userID,
		HabitName: name,
		Date:      Day(date),
		Status:    status,
	}
}
