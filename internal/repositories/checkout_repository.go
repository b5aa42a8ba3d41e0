package repositories

import (
	"context"
	"time"

	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/pkg/errors"
	"gorm.io/gorm"
)

type CheckoutRepository struct {
	db *gorm.DB
}

func NewCheckoutRepository(db *gorm.DB) *CheckoutRepository {
	return &CheckoutRepository{db: db}
}

func (r *CheckoutRepository) CreateSession(ctx context.Context, session *models.CheckoutSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		if err == gorm.ErrInvalidData {
			return errors.New(errors.ErrCodeValidation, "invalid checkout session")
		}
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create checkout session")
	}
	return nil
}

func (r *CheckoutRepository) GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	result := r.db.WithContext(ctx).Where("id = ?", sessionID).Limit(1).Find(&session)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get checkout session")
	}
	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "session not found")
	}
	return &session, nil
}

// FindPendingByTokenHash returns the pending session for a token hash. A
// used, expired or unknown token all yield the same INVALID_OR_EXPIRED_TOKEN.
func (r *CheckoutRepository) FindPendingByTokenHash(ctx context.Context, tokenHash string) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	result := r.db.WithContext(ctx).
		Where("token_hash = ? AND status = ?", tokenHash, models.CheckoutStatusPending).
		Limit(1).Find(&session)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to look up checkout session")
	}
	if result.RowsAffected == 0 {
		return nil, errors.ErrInvalidToken
	}
	return &session, nil
}

// TransitionStatus moves a session from one status to another with a
// conditional update. false means another caller changed it first.
func (r *CheckoutRepository) TransitionStatus(ctx context.Context, sessionID, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("id = ? AND status = ?", sessionID, from).
		Update("status", to)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to update checkout session")
	}
	return result.RowsAffected == 1, nil
}

// ExpireOwnedSession moves the buyer's own pending session to expired.
func (r *CheckoutRepository) ExpireOwnedSession(ctx context.Context, sessionID, userID string) (bool, error) {
	result := r.db.WithContext(ctx).Model(&models.CheckoutSession{}).
		Where("id = ? AND user_id = ? AND status = ?", sessionID, userID, models.CheckoutStatusPending).
		Update("status", models.CheckoutStatusExpired)
	if result.Error != nil {
		return false, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to expire checkout session")
	}
	return result.RowsAffected == 1, nil
}

func (r *CheckoutRepository) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to create transaction")
	}
	return nil
}

func (r *CheckoutRepository) DeleteTransaction(ctx context.Context, transactionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", transactionID).Delete(&models.Transaction{}).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to delete transaction")
	}
	return nil
}

// CountTransactions returns how many receipts exist for a session.
func (r *CheckoutRepository) CountTransactions(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Transaction{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to count transactions")
	}
	return count, nil
}

// ListReceipts joins transactions with their sessions. An empty buyerID
// lists every buyer; a zero since lists from the beginning.
func (r *CheckoutRepository) ListReceipts(ctx context.Context, buyerID string, since time.Time) ([]models.Receipt, error) {
	var receipts []models.Receipt
	query := r.db.WithContext(ctx).Table("transactions").
		Select(`transactions.id AS transaction_id, transactions.session_id AS session_id,
			checkout_sessions.user_id AS buyer_id, transactions.admin_id AS admin_id,
			checkout_sessions.item AS item, checkout_sessions.cost AS cost,
			transactions.created_at AS created_at`).
		Joins("JOIN checkout_sessions ON checkout_sessions.id = transactions.session_id")
	if buyerID != "" {
		query = query.Where("checkout_sessions.user_id = ?", buyerID)
	}
	if !since.IsZero() {
		query = query.Where("transactions.created_at >= ?", since.UTC())
	}

	if err := query.Order("transactions.created_at DESC").Scan(&receipts).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to list receipts")
	}
	return receipts, nil
}

// ListItems returns the store catalogue cheapest first.
func (r *CheckoutRepository) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	var items []models.StoreItem
	if err := r.db.WithContext(ctx).Order("value ASC").Order("name ASC").Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStoreUnavailable, "failed to list store items")
	}
	return items, nil
}

func (r *CheckoutRepository) GetItem(ctx context.Context, itemID string) (*models.StoreItem, error) {
	var item models.StoreItem
	result := r.db.WithContext(ctx).Where("id = ?", itemID).Limit(1).Find(&item)
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeStoreUnavailable, "failed to get store item")
	}
	if result.RowsAffected == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "store item not found")
	}
	return &item, nil
}
