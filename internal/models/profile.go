package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Profile is one per authenticated user. Credits only change through the
// credit ledger repository.
type Profile struct {
	ID                     string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email                  string    `gorm:"type:varchar(255)" json:"email"`
	Credits                int64     `gorm:"default:0;not null;check:credits >= 0" json:"credits"`
	IsAdmin                bool      `gorm:"default:false;not null" json:"is_admin"`
	Streak                 int       `gorm:"default:0;not null" json:"streak"`
	LastCompletedDate      *string   `gorm:"type:varchar(10)" json:"last_completed_date"`
	StreakBonusAwardedDate *string   `gorm:"type:varchar(10)" json:"streak_bonus_awarded_date"`
	CreatedAt              time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt              time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// BeforeCreate rejects rows that would break the balance invariants.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return gorm.ErrInvalidData
	}
	if p.Credits < 0 || p.Streak < 0 {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Profile) TableName() string {
	return "profiles"
}
