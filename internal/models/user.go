package models

import "time"

// User represents a user of the shop.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;size:150;not null"`
	Email     string    `json:"email" gorm:"size:254"`
	Password  string    `json:"-" gorm:"size:128;not null"` // bcrypt hash, never serialized
	IsStaff   bool      `json:"is_staff" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
}
