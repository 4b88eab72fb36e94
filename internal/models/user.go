// Package models contains the persisted records of the learner dashboard and
// the API error types.
package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a learner or staff account.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"size:150;unique;not null" json:"username"`
	Email     string         `gorm:"size:254;unique;not null" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	FullName  string         `gorm:"size:255" json:"full_name"`
	IsAdmin   bool           `gorm:"not null" json:"is_admin"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM.
func (User) TableName() string {
	return "users"
}
