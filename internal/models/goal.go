package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Goal struct {
	ID            string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID        string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	Type          string    `gorm:"type:varchar(20);not null" json:"type"`
	Label         string    `gorm:"type:varchar(100)" json:"label"`
	Completed     bool      `gorm:"default:false;not null" json:"completed"`
	Skipped       bool      `gorm:"default:false;not null" json:"skipped"`
	SkipReason    string    `gorm:"type:text;default:''" json:"skip_reason"`
	Reflection    string    `gorm:"type:text;default:''" json:"reflection"`
	CompletedDate *string   `gorm:"type:varchar(10);index" json:"completed_date"`
	CreditedDate  *string   `gorm:"type:varchar(10)" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Goal type constants
const (
	GoalTypePersonal  = "personal"
	GoalTypeHabit     = "habit"
	GoalTypeFinancial = "financial"
)

func ValidGoalType(t string) bool {
	return t == GoalTypePersonal || t == GoalTypeHabit || t == GoalTypeFinancial
}

// NeedsReset reports whether the goal carries completion or skip state from
// a day other than today.
func (g *Goal) NeedsReset(today string) bool {
	if !g.Completed && !g.Skipped {
		return false
	}
	return g.CompletedDate == nil || *g.CompletedDate != today
}

// ClearDayState puts the goal back to neutral.
func (g *Goal) ClearDayState() {
	g.Completed = false
	g.Skipped = false
	g.SkipReason = ""
	g.CompletedDate = nil
}

// DefaultGoals is the starter set created the first time a user has none.
func DefaultGoals(userID string) []Goal {
	return []Goal{
		{UserID: userID, Type: GoalTypePersonal, Label: "Personal Goal", Title: "Read for 30 minutes"},
		{UserID: userID, Type: GoalTypeHabit, Label: "Habit", Title: "Morning workout routine"},
		{UserID: userID, Type: GoalTypeFinancial, Label: "Financial Action", Title: "Review budget and track expenses"},
	}
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if !ValidGoalType(g.Type) {
		return gorm.ErrInvalidData
	}
	if g.Completed && g.Skipped {
		return gorm.ErrInvalidData
	}
	return nil
}

func (Goal) TableName() string {
	return "goals"
}
