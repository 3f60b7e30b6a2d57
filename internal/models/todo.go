// Package models contains data models for the todo service.
package models

import "time"

// Priority ranks a todo item.
type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

// Valid reports whether p is a known priority value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Todo represents a single task owned by a user.
type Todo struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Title       string    `json:"title" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"size:1000"`
	Done        bool      `json:"done" gorm:"not null;default:false"`
	Priority    Priority  `json:"priority" gorm:"size:10;not null;default:MEDIUM"`
	UserID      int64     `json:"user_id" gorm:"index;not null"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName returns the database table name for the Todo model.
func (Todo) TableName() string {
	return "todos"
}
