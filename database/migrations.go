package database

import (
	"log"

	"golang.org/x/crypto/bcrypt"

	"fibernet/auth"
)

// RunMigrations runs all database migrations
func RunMigrations() error {
	log.Println("Running database migrations...")

	// AutoMigrate will create tables if they don't exist
	if err := DB.AutoMigrate(
		&Company{},
		&User{},
		&TelecomCenter{},
		&FAT{},
		&Subscriber{},
		&Subscription{},
		&SupportTicket{},
		&InstallationReport{},
		&SupportReport{},
	); err != nil {
		log.Printf("Migration failed: %v", err)
		return err
	}

	log.Println("Database migrations completed successfully")
	return nil
}

// SeedDefaultAdmin creates a default super admin if none exists
func SeedDefaultAdmin() {
	var count int64
	if err := DB.Model(&User{}).Where("role = ?", string(auth.RoleSuperAdmin)).Count(&count).Error; err != nil {
		log.Printf("Failed to check existing super admin: %v", err)
		return
	}

	if count == 0 {
		hash, err := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("Failed to hash default admin password: %v", err)
			return
		}

		admin := User{
			Username:     "admin",
			PasswordHash: string(hash),
			Role:         string(auth.RoleSuperAdmin),
		}

		if err := DB.Create(&admin).Error; err != nil {
			log.Printf("Failed to seed default super admin: %v", err)
			return
		}

		log.Println("Seeded default super admin (username: admin)")
	}
}
