package dbcore

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/skillpod-hq/sentinel/database/models"
)

var (
	instance *gorm.DB
	once     sync.Once
)

// Initialize 打开数据库并自动迁移。driver 为 sqlite 或 mysql。
func Initialize(driver, dsn string) error {
	var initErr error
	once.Do(func() {
		initErr = open(driver, dsn)
	})
	return initErr
}

// InitializeForTest 用内存 sqlite 重建连接，仅供测试使用
func InitializeForTest() error {
	return open("sqlite", "file::memory:?cache=shared")
}

func open(driver, dsn string) error {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		if dsn == "" {
			dsn = "./data/sentinel.db"
		}
		if dir := filepath.Dir(dsn); dir != "." && dir != "" && !isMemoryDSN(dsn) {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		dialector = sqlite.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return fmt.Errorf("unsupported database driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return err
	}
	if err := migrate(db); err != nil {
		return err
	}
	instance = db
	return nil
}

func migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.SecurityPolicy{},
		&models.TransferOverrideRequest{},
		&models.DataTransferAttempt{},
		&models.WatermarkConfiguration{},
		&models.WatermarkInstance{},
		&models.TenantKey{},
	)
}

// GetDBInstance 获取全局数据库连接
func GetDBInstance() *gorm.DB {
	if instance == nil {
		log.Fatal("database is not initialized")
	}
	return instance
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || len(dsn) >= 5 && dsn[:5] == "file:"
}
