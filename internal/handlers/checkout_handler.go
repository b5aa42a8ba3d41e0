package handlers

import (
	"net/http"

	"github.com/mroshb/engage_app/internal/services"
)

type confirmCheckoutRequest struct {
	Token string `json:"token"`
}

// ListStoreItems handles GET /api/store/items
func (h *Handler) ListStoreItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.checkouts.ListItems(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, items)
}

// CreateCheckoutSession handles POST /api/checkout/sessions
func (h *Handler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req services.CheckoutRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	identity := caller(r)
	created, err := h.checkouts.CreateCheckoutSession(r.Context(), identity.UserID, identity.Email, req)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}

// GetCheckoutSession handles GET /api/checkout/sessions/{id}
func (h *Handler) GetCheckoutSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkouts.GetCheckoutSessionStatus(r.Context(), caller(r).UserID, idParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// ExpireCheckoutSession handles POST /api/checkout/sessions/{id}/expire
func (h *Handler) ExpireCheckoutSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkouts.ExpireCheckoutSession(r.Context(), caller(r).UserID, idParam(r))
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// CompleteCheckoutSession handles POST /api/checkout/confirm. The caller
// must be an admin; the token comes from the buyer's QR code.
func (h *Handler) CompleteCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var req confirmCheckoutRequest
	if err := h.decode(w, r, &req); err != nil {
		respondError(w, err)
		return
	}

	identity := caller(r)
	receipt, err := h.checkouts.CompleteCheckoutSession(r.Context(), identity.UserID, identity.Email, req.Token)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipt)
}

// ListTransactions handles GET /api/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.checkouts.ListReceipts(r.Context(), caller(r).UserID)
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, receipts)
}
