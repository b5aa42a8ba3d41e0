package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreditEntry is the audit trail written next to every balance change.
type CreditEntry struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Amount       int64     `gorm:"not null" json:"amount"`
	BalanceAfter int64     `gorm:"not null" json:"balance_after"`
	Reason       string    `gorm:"type:varchar(50);not null;index" json:"reason"`
	Reference    string    `gorm:"type:varchar(36)" json:"reference,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// Credit entry reasons
const (
	CreditReasonGoalCompletion = "goal_completion"
	CreditReasonStreakBonus    = "streak_bonus"
	CreditReasonTaskRedemption = "task_redemption"
	CreditReasonPurchase       = "purchase"
	CreditReasonAdjustment     = "admin_adjustment"
)

func (e *CreditEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

func (CreditEntry) TableName() string {
	return "credit_entries"
}
