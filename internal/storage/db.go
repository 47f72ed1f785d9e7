package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"med_bridge/internal/models"
	"med_bridge/pkg/config"
)

// DB 包裝 gorm 連線，支援 SQLite（預設）與 PostgreSQL
type DB struct {
	*gorm.DB
}

// Open 依設定開啟資料庫連線
func Open(cfg config.DBConfig) (*DB, error) {
	switch cfg.Driver {
	case "postgres":
		return NewPostgresDB(cfg.Host, cfg.User, cfg.Password, cfg.Name, cfg.Port)
	case "sqlite", "":
		return NewSQLiteDB(cfg.Path)
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.Driver)
	}
}

// NewSQLiteDB 開啟 SQLite 檔案。
// 使用 WAL 與 busy timeout，讓醫師端與病患端的多個程序可同時讀寫同一個檔案
func NewSQLiteDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	return &DB{DB: db}, nil
}

func NewPostgresDB(host, user, password, dbname string, port int) (*DB, error) {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=disable TimeZone=UTC",
		host, user, password, dbname, port)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	return &DB{DB: db}, nil
}

// Ping 檢查連線是否可用
func (db *DB) Ping() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AutoMigrate 自動遷移資料庫結構
func (db *DB) AutoMigrate(models ...interface{}) error {
	return db.DB.AutoMigrate(models...)
}

// Migrate 建立或更新本服務使用的資料表
func (db *DB) Migrate() error {
	return db.AutoMigrate(&models.Message{}, &models.AudioBlob{})
}
