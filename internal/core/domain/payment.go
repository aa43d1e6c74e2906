package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus is the persisted lifecycle state of a payment. Rejected
// attempts never reach storage, so APPROVED is the only value written.
type PaymentStatus string

const PaymentStatusApproved PaymentStatus = "APPROVED"

// Payment is an immutable accepted payment. OccurredAt is the caller-supplied
// business-event time and drives period classification; CreatedAt/UpdatedAt
// are system timestamps. IdempotencyKey is unique system-wide.
type Payment struct {
	ID             uuid.UUID       `json:"id"`
	WalletID       uuid.UUID       `json:"wallet_id"`
	Amount         decimal.Decimal `json:"amount"`
	OccurredAt     time.Time       `json:"occurred_at"`
	IdempotencyKey string          `json:"idempotency_key"`
	Status         PaymentStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Matches reports whether an incoming request describes the same logical
// payment as this row. Amount is compared by value, not representation, so
// "100" and "100.00" match; timestamps are compared as instants.
func (p *Payment) Matches(walletID uuid.UUID, amount decimal.Decimal, occurredAt time.Time) bool {
	return p.WalletID == walletID &&
		p.Amount.Equal(amount) &&
		p.OccurredAt.Equal(occurredAt)
}
