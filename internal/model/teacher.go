package model

import (
	"time"

	"gorm.io/gorm"
)

// Record status values shared by teachers and students.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Teacher represents a teacher record, owning exactly one user account
type Teacher struct {
	ID                    uint           `json:"id" gorm:"primaryKey"`
	UserID                uint           `json:"-" gorm:"uniqueIndex;not null"`
	FirstName             string         `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName              string         `json:"last_name" gorm:"type:varchar(100);not null"`
	Email                 string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	PhoneNumber           string         `json:"phone_number" gorm:"type:varchar(15)"`
	SubjectSpecialization string         `json:"subject_specialization" gorm:"type:varchar(100)"`
	EmployeeID            string         `json:"employee_id" gorm:"type:varchar(20);uniqueIndex"`
	DateOfJoining         string         `json:"date_of_joining" gorm:"type:date"`
	Status                string         `json:"status" gorm:"type:varchar(10);default:'active'"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `json:"-" gorm:"index"`

	User User `json:"-" gorm:"foreignKey:UserID"`
}

// FullName returns the display name used in exports and cross listings
func (t *Teacher) FullName() string {
	return t.FirstName + " " + t.LastName
}
