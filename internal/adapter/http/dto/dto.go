package dto

import (
	"time"

	"wallet-policy-gateway/internal/core/domain"

	"github.com/shopspring/decimal"
)

// CreateWalletRequest is the request body for wallet creation.
type CreateWalletRequest struct {
	OwnerName string `json:"owner_name" binding:"required,min=1,max=100"`
}

// WalletResponse is the response body for a wallet.
type WalletResponse struct {
	ID        string   `json:"id"`
	OwnerName string   `json:"owner_name"`
	PolicyIDs []string `json:"policy_ids"`
	CreatedAt string   `json:"created_at"`
}

// CreatePolicyRequest is the request body for policy creation. Which limit
// fields are required depends on category; the service enforces that.
type CreatePolicyRequest struct {
	Name                string           `json:"name" binding:"required,min=1,max=100"`
	Category            string           `json:"category" binding:"required"`
	MaxPerPayment       *decimal.Decimal `json:"max_per_payment,omitempty"`
	DaytimeDailyLimit   *decimal.Decimal `json:"daytime_daily_limit,omitempty"`
	NighttimeDailyLimit *decimal.Decimal `json:"nighttime_daily_limit,omitempty"`
	WeekendDailyLimit   *decimal.Decimal `json:"weekend_daily_limit,omitempty"`
	MaxTxPerDay         *int32           `json:"max_tx_per_day,omitempty"`
}

// AttachPolicyRequest is the request body for attaching a policy to a wallet.
type AttachPolicyRequest struct {
	PolicyID string `json:"policy_id" binding:"required,uuid"`
}

// PolicyResponse is the response body for a policy definition.
type PolicyResponse struct {
	ID                  string           `json:"id"`
	Name                string           `json:"name"`
	Category            string           `json:"category"`
	MaxPerPayment       *decimal.Decimal `json:"max_per_payment,omitempty"`
	DaytimeDailyLimit   *decimal.Decimal `json:"daytime_daily_limit,omitempty"`
	NighttimeDailyLimit *decimal.Decimal `json:"nighttime_daily_limit,omitempty"`
	WeekendDailyLimit   *decimal.Decimal `json:"weekend_daily_limit,omitempty"`
	MaxTxPerDay         *int32           `json:"max_tx_per_day,omitempty"`
	CreatedAt           string           `json:"created_at"`
}

// CreatePaymentRequest is the request body for payment acceptance. Both
// fields are pointers so that absent and zero-valued fields can be told
// apart.
type CreatePaymentRequest struct {
	Amount     *decimal.Decimal `json:"amount" binding:"required"`
	OccurredAt *time.Time       `json:"occurred_at" binding:"required"`
}

// PaymentResponse is the response body for an accepted payment.
type PaymentResponse struct {
	ID         string          `json:"id"`
	WalletID   string          `json:"wallet_id"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt string          `json:"occurred_at"`
	Status     string          `json:"status"`
	CreatedAt  string          `json:"created_at"`
}

// PolicyViolationResponse is the 422 body for a policy rejection.
type PolicyViolationResponse struct {
	PolicyType string  `json:"policy_type"`
	Period     *string `json:"period,omitempty"`
	Message    string  `json:"message"`
}

// PaymentListResponse wraps a cursor-paginated payment page.
type PaymentListResponse struct {
	Items      []PaymentResponse `json:"items"`
	NextCursor *string           `json:"next_cursor,omitempty"`
	Total      int64             `json:"total"`
}

// PolicyListResponse wraps a cursor-paginated policy page.
type PolicyListResponse struct {
	Items      []PolicyResponse `json:"items"`
	NextCursor *string          `json:"next_cursor,omitempty"`
	Total      int64            `json:"total"`
}

// ListPaymentsQuery holds the query parameters of the payment history
// endpoint.
type ListPaymentsQuery struct {
	Limit     int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Cursor    string `form:"cursor" binding:"omitempty,uuid"`
	StartDate string `form:"start_date" binding:"omitempty"`
	EndDate   string `form:"end_date" binding:"omitempty"`
}

// ListPoliciesQuery holds the query parameters of the policy list endpoint.
type ListPoliciesQuery struct {
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=100"`
	Cursor string `form:"cursor" binding:"omitempty,uuid"`
}

// FromWallet converts a domain wallet to its response shape.
func FromWallet(w *domain.Wallet) WalletResponse {
	ids := make([]string, 0, len(w.PolicyIDs))
	for _, id := range w.PolicyIDs {
		ids = append(ids, id.String())
	}
	return WalletResponse{
		ID:        w.ID.String(),
		OwnerName: w.OwnerName,
		PolicyIDs: ids,
		CreatedAt: w.CreatedAt.Format(time.RFC3339),
	}
}

// FromPolicy converts a domain policy to its response shape.
func FromPolicy(p *domain.Policy) PolicyResponse {
	return PolicyResponse{
		ID:                  p.ID.String(),
		Name:                p.Name,
		Category:            string(p.Category),
		MaxPerPayment:       p.MaxPerPayment,
		DaytimeDailyLimit:   p.DaytimeDailyLimit,
		NighttimeDailyLimit: p.NighttimeDailyLimit,
		WeekendDailyLimit:   p.WeekendDailyLimit,
		MaxTxPerDay:         p.MaxTxPerDay,
		CreatedAt:           p.CreatedAt.Format(time.RFC3339),
	}
}

// FromPayment converts a domain payment to its response shape.
func FromPayment(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID:         p.ID.String(),
		WalletID:   p.WalletID.String(),
		Amount:     p.Amount,
		OccurredAt: p.OccurredAt.Format(time.RFC3339),
		Status:     string(p.Status),
		CreatedAt:  p.CreatedAt.Format(time.RFC3339),
	}
}

// FromViolation converts a policy violation to its response shape.
func FromViolation(v *domain.PolicyViolation) PolicyViolationResponse {
	resp := PolicyViolationResponse{
		PolicyType: string(v.Category),
		Message:    v.Message,
	}
	if v.Period != nil {
		s := string(*v.Period)
		resp.Period = &s
	}
	return resp
}
