package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB opens the database from environment configuration. MySQL is the
// production target; setting DB_DRIVER=sqlite gives a file-backed local run.
// TranslateError is required: the sequence allocator relies on
// gorm.ErrDuplicatedKey being reported uniformly across drivers.
func InitDB() (*gorm.DB, error) {
	cfg := &gorm.Config{TranslateError: true}

	if os.Getenv("DB_DRIVER") == "sqlite" {
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "annapurna.db"
		}
		return gorm.Open(sqlite.Open(path), cfg)
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		envOr("DB_USER", "root"),
		os.Getenv("DB_PASSWORD"),
		envOr("DB_HOST", "127.0.0.1"),
		envOr("DB_PORT", "3306"),
		envOr("DB_NAME", "annapurna_pos"),
	)
	return gorm.Open(mysql.Open(dsn), cfg)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
