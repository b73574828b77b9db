package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email       string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	FullName    string    `gorm:"type:varchar(255);not null"`
	PhoneNumber *string   `gorm:"type:varchar(20)"`
	Role        string    `gorm:"type:varchar(50);not null"`
	IsActive    bool      `gorm:"not null"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}
