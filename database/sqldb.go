package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"fibernet/config"
)

// SQLDB is the raw database/sql handle used for the hand-written reporting
// join. It points at the same database as the GORM connection.
var SQLDB *sql.DB

// InitSQLDB initializes the raw SQL connection for report queries
func InitSQLDB() error {
	var err error

	switch config.AppConfig.DBDriver {
	case "postgres":
		dbURL := os.Getenv("DATABASE_URL")
		var connStr string

		if dbURL != "" {
			connStr = dbURL
			log.Println("Using DATABASE_URL environment variable for the raw PostgreSQL connection")
		} else {
			connStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
				config.AppConfig.DBHost,
				config.AppConfig.DBPort,
				config.AppConfig.DBUser,
				config.AppConfig.DBPassword,
				config.AppConfig.DBName)
		}

		SQLDB, err = sql.Open("postgres", connStr)
		if err != nil {
			log.Printf("Failed to open raw PostgreSQL connection: %v", err)
			return err
		}

	case "sqlite", "sqlite3":
		SQLDB, err = sql.Open("sqlite3", config.AppConfig.DBPath)
		if err != nil {
			log.Printf("Failed to open raw SQLite connection: %v", err)
			return err
		}

	default:
		return fmt.Errorf("unsupported DB driver: %s", config.AppConfig.DBDriver)
	}

	if err := SQLDB.Ping(); err != nil {
		log.Printf("Raw database connection ping failed: %v", err)
		return err
	}

	log.Println("Raw report database connection established")
	return nil
}

// CloseSQLDB closes the raw SQL connection
func CloseSQLDB() error {
	if SQLDB != nil {
		return SQLDB.Close()
	}
	return nil
}
