package database

import (
	"backend/internal/model"

	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.Company{},
		&model.Department{},
		&model.Role{},
		&model.User{},
		&model.RefreshToken{},
		&model.Request{},
		&model.RequestItem{},
		&model.Approval{},
		&model.AuditLog{},
	)
	if err != nil {
		log.Warn("failed to auto-migrate models: ", err)
	}

	return db, nil
}

// SeedDefaultRoles inserts the built-in role rows if they are missing.
// The approval chain depends on these rows existing.
func SeedDefaultRoles(db *gorm.DB) error {
	for _, role := range model.DefaultRoles() {
		var existing model.Role
		err := db.Where("name = ?", role.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}
	return nil
}
