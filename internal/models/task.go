package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Completed   bool      `gorm:"default:false;not null" json:"completed"`
	CreditValue int64     `gorm:"not null" json:"credit_value"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

const DefaultTaskCreditValue int64 = 1

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreditValue < 0 {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Task) TableName() string {
	return "tasks"
}
