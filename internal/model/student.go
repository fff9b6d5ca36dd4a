package model

import (
	"time"

	"gorm.io/gorm"
)

// Student represents a student record, owning exactly one user account.
// AssignedTeacherID is a weak reference: the student does not own the
// teacher's lifecycle, and the reference is cleared when the teacher is
// deleted.
type Student struct {
	ID                uint           `json:"id" gorm:"primaryKey"`
	UserID            uint           `json:"-" gorm:"uniqueIndex;not null"`
	FirstName         string         `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName          string         `json:"last_name" gorm:"type:varchar(100);not null"`
	Email             string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	PhoneNumber       string         `json:"phone_number" gorm:"type:varchar(15)"`
	RollNumber        string         `json:"roll_number" gorm:"type:varchar(20);uniqueIndex"`
	ClassGrade        string         `json:"class_grade" gorm:"type:varchar(10)"`
	DateOfBirth       string         `json:"date_of_birth" gorm:"type:date"`
	AdmissionDate     string         `json:"admission_date" gorm:"type:date"`
	Status            string         `json:"status" gorm:"type:varchar(10);default:'active'"`
	AssignedTeacherID *uint          `json:"assigned_teacher" gorm:"index"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`

	User            User     `json:"-" gorm:"foreignKey:UserID"`
	AssignedTeacher *Teacher `json:"-" gorm:"foreignKey:AssignedTeacherID"`
}

// FullName returns the display name used in exports
func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// AssignedTeacherName resolves the derived teacher name column, or nil when
// no teacher is assigned
func (s *Student) AssignedTeacherName() *string {
	if s.AssignedTeacher == nil {
		return nil
	}
	name := s.AssignedTeacher.FullName()
	return &name
}
