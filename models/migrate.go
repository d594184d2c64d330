package models

import (
	"log"

	"gorm.io/gorm"
)

// Migrate 自动迁移消息表
func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&Message{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
