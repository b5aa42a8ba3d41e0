package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mroshb/engage_app/internal/metrics"
	"github.com/mroshb/engage_app/internal/models"
	"github.com/mroshb/engage_app/internal/notify"
	"github.com/mroshb/engage_app/internal/repositories"
	"github.com/mroshb/engage_app/internal/security"
	"github.com/mroshb/engage_app/pkg/errors"
	"github.com/mroshb/engage_app/pkg/logger"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	confirmPath = "/checkout/confirm"
	qrSize      = 256
)

// CheckoutRequest names either a store item or a free-form item and cost.
type CheckoutRequest struct {
	ItemID string `json:"item_id"`
	Item   string `json:"item"`
	Cost   int64  `json:"cost"`
}

// CheckoutCreated is returned to the buyer exactly once. Token is the only
// copy of the raw secret; it is never stored or logged.
type CheckoutCreated struct {
	Session           *models.CheckoutSession `json:"session"`
	Token             string                  `json:"token"`
	CheckoutURL       string                  `json:"checkout_url"`
	QRCode            string                  `json:"qr_code"`
	SufficientCredits bool                    `json:"sufficient_credits"`
}

// CheckoutReceipt is the result of a confirmed purchase.
type CheckoutReceipt struct {
	SessionID     string `json:"session_id"`
	TransactionID string `json:"transaction_id"`
	Item          string `json:"item"`
	Cost          int64  `json:"cost"`
	BuyerBalance  int64  `json:"buyer_balance"`
}

// CheckoutService runs the two-party purchase flow: a buyer opens a session
// and shows its QR code, an admin scans it and confirms.
type CheckoutService struct {
	checkouts *repositories.CheckoutRepository
	profiles  *ProfileService
	ledger    CreditLedger
	notifier  notify.Notifier
	baseURL   string
}

func NewCheckoutService(
	checkouts *repositories.CheckoutRepository,
	profiles *ProfileService,
	ledger CreditLedger,
	notifier notify.Notifier,
	baseURL string,
) *CheckoutService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &CheckoutService{
		checkouts: checkouts,
		profiles:  profiles,
		ledger:    ledger,
		notifier:  notifier,
		baseURL:   strings.TrimRight(baseURL, "/"),
	}
}

func (s *CheckoutService) ListItems(ctx context.Context) ([]models.StoreItem, error) {
	return s.checkouts.ListItems(ctx)
}

// ConfirmationURL is the link encoded in the buyer's QR code.
func (s *CheckoutService) ConfirmationURL(token string) string {
	return s.baseURL + confirmPath + "?token=" + url.QueryEscape(token)
}

// CreateCheckoutSession opens a pending session. The balance check here is
// advisory only: nothing is reserved and a short balance does not block
// creation. Completion checks again.
func (s *CheckoutService) CreateCheckoutSession(ctx context.Context, buyerID, email string, req CheckoutRequest) (*CheckoutCreated, error) {
	if buyerID == "" {
		return nil, errors.ErrUnauthenticated
	}
	if _, err := s.profiles.EnsureProfile(ctx, buyerID, email); err != nil {
		return nil, err
	}

	item, cost, itemID, err := s.resolveItem(ctx, req)
	if err != nil {
		return nil, err
	}

	balance, err := s.ledger.GetBalance(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	token, err := security.GenerateCheckoutToken()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to generate token")
	}
	checkoutURL := s.ConfirmationURL(token)

	png, err := qrcode.Encode(checkoutURL, qrcode.Medium, qrSize)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to render QR code")
	}

	session := &models.CheckoutSession{
		UserID:      buyerID,
		StoreItemID: itemID,
		Item:        item,
		Cost:        cost,
		Status:      models.CheckoutStatusPending,
		TokenHash:   security.HashToken(token),
	}
	if err := s.checkouts.CreateSession(ctx, session); err != nil {
		return nil, err
	}

	metrics.CheckoutSessionsCreated.Inc()
	logger.Info("Checkout session created",
		"session_id", session.ID,
		"user_id", buyerID,
		"item", item,
		"cost", cost,
		"advisory_balance", balance,
	)
	s.notifier.CheckoutCreated(session)

	return &CheckoutCreated{
		Session:           session,
		Token:             token,
		CheckoutURL:       checkoutURL,
		QRCode:            "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		SufficientCredits: balance >= cost,
	}, nil
}

func (s *CheckoutService) resolveItem(ctx context.Context, req CheckoutRequest) (string, int64, *string, error) {
	if req.ItemID != "" {
		item, err := s.checkouts.GetItem(ctx, req.ItemID)
		if err != nil {
			return "", 0, nil, err
		}
		if item.Stock <= 0 {
			return "", 0, nil, errors.New(errors.ErrCodeValidation, "item is out of stock")
		}
		if item.Value <= 0 {
			return "", 0, nil, errors.New(errors.ErrCodeValidation, "item has no price")
		}
		id := item.ID
		return item.Name, item.Value, &id, nil
	}

	name := security.CleanText(req.Item, security.MaxTitleLength)
	if name == "" {
		return "", 0, nil, errors.New(errors.ErrCodeValidation, "item is required")
	}
	if req.Cost <= 0 {
		return "", 0, nil, errors.New(errors.ErrCodeValidation, "cost must be positive")
	}
	return name, req.Cost, nil, nil
}

// GetCheckoutSessionStatus lets the buyer poll their own session.
func (s *CheckoutService) GetCheckoutSessionStatus(ctx context.Context, buyerID, sessionID string) (*models.CheckoutSession, error) {
	return s.ownedSession(ctx, buyerID, sessionID)
}

// ExpireCheckoutSession abandons the buyer's pending session. Losing the
// race against a concurrent completion is reported as SESSION_NOT_PENDING.
func (s *CheckoutService) ExpireCheckoutSession(ctx context.Context, buyerID, sessionID string) (*models.CheckoutSession, error) {
	session, err := s.ownedSession(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.IsTerminal() {
		return nil, notPending(session.Status)
	}

	expired, err := s.checkouts.ExpireOwnedSession(ctx, sessionID, buyerID)
	if err != nil {
		return nil, err
	}
	if !expired {
		current, err := s.checkouts.GetSession(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		return nil, notPending(current.Status)
	}

	session.Status = models.CheckoutStatusExpired
	metrics.CheckoutOutcomes.WithLabelValues(metrics.OutcomeExpired).Inc()
	logger.Info("Checkout session expired", "session_id", sessionID, "user_id", buyerID)
	return session, nil
}

func notPending(status string) error {
	return errors.New(errors.ErrCodeSessionNotPending, fmt.Sprintf("session is already %s", status))
}

// CompleteCheckoutSession is the admin side of a purchase. The session is
// moved to completed, a transaction is written and the buyer is charged, in
// that order. If a later step fails, earlier ones are undone so a session is
// never completed without both a transaction and a charge.
func (s *CheckoutService) CompleteCheckoutSession(ctx context.Context, adminID, adminEmail, token string) (*CheckoutReceipt, error) {
	receipt, err := s.completeCheckout(ctx, adminID, adminEmail, token)
	if err != nil {
		metrics.CheckoutOutcomes.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}
	metrics.CheckoutOutcomes.WithLabelValues(metrics.OutcomeCompleted).Inc()
	return receipt, nil
}

func (s *CheckoutService) completeCheckout(ctx context.Context, adminID, adminEmail, token string) (*CheckoutReceipt, error) {
	if adminID == "" {
		return nil, errors.ErrUnauthenticated
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New(errors.ErrCodeValidation, "token is required")
	}

	admin, err := s.profiles.EnsureProfile(ctx, adminID, adminEmail)
	if err != nil {
		return nil, err
	}
	if !admin.IsAdmin {
		return nil, errors.ErrAdminRequired
	}

	session, err := s.checkouts.FindPendingByTokenHash(ctx, security.HashToken(token))
	if err != nil {
		return nil, err
	}

	if _, err := s.profiles.EnsureProfile(ctx, session.UserID, ""); err != nil {
		return nil, err
	}
	balance, err := s.ledger.GetBalance(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if balance < session.Cost {
		return nil, errors.New(errors.ErrCodeInsufficientFunds,
			fmt.Sprintf("buyer has insufficient credits: have %d, need %d", balance, session.Cost))
	}

	txn := &models.Transaction{SessionID: session.ID, AdminID: adminID}
	var buyerBalance int64

	err = newSaga("checkout_completion").
		step("complete_session",
			func(ctx context.Context) error {
				won, err := s.checkouts.TransitionStatus(ctx, session.ID, models.CheckoutStatusPending, models.CheckoutStatusCompleted)
				if err != nil {
					return err
				}
				if !won {
					return errors.ErrSessionNotPending
				}
				return nil
			},
			func(ctx context.Context) error {
				_, err := s.checkouts.TransitionStatus(ctx, session.ID, models.CheckoutStatusCompleted, models.CheckoutStatusPending)
				return err
			},
		).
		step("record_transaction",
			func(ctx context.Context) error {
				return s.checkouts.CreateTransaction(ctx, txn)
			},
			func(ctx context.Context) error {
				return s.checkouts.DeleteTransaction(ctx, txn.ID)
			},
		).
		step("deduct_credits",
			func(ctx context.Context) error {
				var err error
				buyerBalance, err = s.ledger.DeductCredits(ctx, session.UserID, session.Cost, models.CreditReasonPurchase, session.ID)
				return err
			},
			nil,
		).
		run(ctx)
	if err != nil {
		return nil, err
	}

	session.Status = models.CheckoutStatusCompleted
	logger.Info("Checkout completed",
		"session_id", session.ID,
		"transaction_id", txn.ID,
		"buyer_id", session.UserID,
		"admin_id", adminID,
		"cost", session.Cost,
	)
	s.notifier.CheckoutCompleted(session, txn.ID)

	return &CheckoutReceipt{
		SessionID:     session.ID,
		TransactionID: txn.ID,
		Item:          session.Item,
		Cost:          session.Cost,
		BuyerBalance:  buyerBalance,
	}, nil
}

// ListReceipts returns the buyer's completed purchases.
func (s *CheckoutService) ListReceipts(ctx context.Context, buyerID string) ([]models.Receipt, error) {
	if buyerID == "" {
		return nil, errors.ErrUnauthenticated
	}
	return s.checkouts.ListReceipts(ctx, buyerID, time.Time{})
}

// ExportReceipts returns every buyer's receipts since the given time.
func (s *CheckoutService) ExportReceipts(ctx context.Context, since time.Time) ([]models.Receipt, error) {
	return s.checkouts.ListReceipts(ctx, "", since)
}

func (s *CheckoutService) ownedSession(ctx context.Context, buyerID, sessionID string) (*models.CheckoutSession, error) {
	if buyerID == "" {
		return nil, errors.ErrUnauthenticated
	}
	session, err := s.checkouts.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.UserID != buyerID {
		return nil, errors.New(errors.ErrCodeForbidden, "session does not belong to you")
	}
	return session, nil
}

func outcomeOf(err error) string {
	switch errors.CodeOf(err) {
	case errors.ErrCodeInsufficientFunds:
		return metrics.OutcomeInsufficient
	case errors.ErrCodeInvalidToken:
		return metrics.OutcomeInvalidToken
	case errors.ErrCodeSessionNotPending:
		return metrics.OutcomeNotPending
	default:
		return metrics.OutcomeFailed
	}
}
