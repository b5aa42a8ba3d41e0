package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreItem is read-only to the app; rows are seeded or managed elsewhere.
type StoreItem struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Value       int64     `gorm:"not null" json:"value"`
	Stock       int       `gorm:"default:0;not null" json:"stock"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (i *StoreItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

func (StoreItem) TableName() string {
	return "store_items"
}

// CheckoutSession is one purchase attempt. Only the SHA-256 of the
// confirmation token is stored.
type CheckoutSession struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"type:varchar(36);not null;index" json:"user_id"`
	StoreItemID *string   `gorm:"type:varchar(36)" json:"store_item_id,omitempty"`
	Item        string    `gorm:"type:varchar(255);not null" json:"item"`
	Cost        int64     `gorm:"not null" json:"cost"`
	Status      string    `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	TokenHash   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Checkout status constants
const (
	CheckoutStatusPending   = "pending"
	CheckoutStatusCompleted = "completed"
	CheckoutStatusExpired   = "expired"
)

// IsTerminal reports whether no further transition is allowed.
func (s *CheckoutSession) IsTerminal() bool {
	return s.Status == CheckoutStatusCompleted || s.Status == CheckoutStatusExpired
}

func (s *CheckoutSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.Cost <= 0 || s.TokenHash == "" {
		return gorm.ErrInvalidData
	}
	if s.Status == "" {
		s.Status = CheckoutStatusPending
	}
	if s.Status != CheckoutStatusPending {
		return gorm.ErrInvalidData
	}
	return nil
}

func (CheckoutSession) TableName() string {
	return "checkout_sessions"
}

// Transaction is the receipt written when an admin confirms a session.
// At most one exists per session.
type Transaction struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SessionID string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"session_id"`
	AdminID   string    `gorm:"type:varchar(36);not null;index" json:"admin_id"`
	CreatedAt time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func (t *Transaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

func (Transaction) TableName() string {
	return "transactions"
}

// Receipt joins a transaction with the session it settled.
type Receipt struct {
	TransactionID string    `json:"transaction_id"`
	SessionID     string    `json:"session_id"`
	BuyerID       string    `json:"buyer_id"`
	AdminID       string    `json:"admin_id"`
	Item          string    `json:"item"`
	Cost          int64     `json:"cost"`
	CreatedAt     time.Time `json:"created_at"`
}
