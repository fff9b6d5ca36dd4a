package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a login account, independent of role
type User struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Username    string         `json:"username" gorm:"type:varchar(150);uniqueIndex"`
	Email       string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password    string         `json:"-" gorm:"type:varchar(255)"`
	FirstName   string         `json:"first_name" gorm:"type:varchar(100)"`
	LastName    string         `json:"last_name" gorm:"type:varchar(100)"`
	IsSuperuser bool           `json:"-" gorm:"default:false"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}
