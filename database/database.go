package database

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"fibernet/config"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// InitDB initializes the database connection using environment/config
func InitDB() error {
	// Setup logging mode for GORM. TranslateError makes unique-constraint
	// violations surface as gorm.ErrDuplicatedKey on every driver; that
	// error is the authoritative Conflict signal for the services.
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	var err error

	switch config.AppConfig.DBDriver {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			config.AppConfig.DBHost,
			config.AppConfig.DBPort,
			config.AppConfig.DBUser,
			config.AppConfig.DBPassword,
			config.AppConfig.DBName,
		)

		log.Printf("Connecting to PostgreSQL at host=%s port=%s db=%s...",
			config.AppConfig.DBHost,
			config.AppConfig.DBPort,
			config.AppConfig.DBName,
		)

		DB, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			log.Printf("Failed to connect to PostgreSQL: %v", err)
			return err
		}

		log.Println("PostgreSQL connection successful")
		return nil

	case "sqlite", "sqlite3":
		dbDir := filepath.Dir(config.AppConfig.DBPath)
		if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
			log.Printf("Failed to create SQLite folder: %v", err)
			return err
		}

		DB, err = gorm.Open(sqlite.Open(config.AppConfig.DBPath), gormConfig)
		if err != nil {
			log.Printf("Failed to connect to SQLite: %v", err)
			return err
		}

		log.Printf("SQLite connection successful at %s", config.AppConfig.DBPath)
		return nil
	}

	return fmt.Errorf("unsupported DB driver: %s", config.AppConfig.DBDriver)
}
