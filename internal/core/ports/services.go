package ports

import (
	"context"
	"time"

	"wallet-policy-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IdempotencyCache is a best-effort fast path in front of the transactional
// duplicate check. It stores committed payments only, so a hit can never
// expose uncommitted state.
type IdempotencyCache interface {
	// Get returns the cached payment JSON or nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// --- Service Ports (Business Logic) ---

// CreateOutcome enumerates the terminal states of a payment-acceptance
// attempt. Each is a business result, not a fault.
type CreateOutcome string

const (
	OutcomeApproved       CreateOutcome = "APPROVED"
	OutcomeConflict       CreateOutcome = "CONFLICT"
	OutcomePolicyRejected CreateOutcome = "POLICY_REJECTED"
	OutcomeWalletMissing  CreateOutcome = "WALLET_MISSING"
)

// CreatePaymentRequest holds validated input for payment acceptance.
type CreatePaymentRequest struct {
	WalletID       uuid.UUID
	Amount         decimal.Decimal
	OccurredAt     time.Time
	IdempotencyKey string
}

// CreatePaymentResult is the discriminated outcome of CreatePayment.
// Payment and IsNew are set for OutcomeApproved (IsNew false means an
// identical request was replayed); Violation is set for OutcomePolicyRejected.
type CreatePaymentResult struct {
	Outcome   CreateOutcome
	Payment   *domain.Payment
	IsNew     bool
	Violation *domain.PolicyViolation
}

// PaymentListPage is one page of a wallet's payment history.
type PaymentListPage struct {
	Payments   []domain.Payment
	NextCursor *uuid.UUID
	Total      int64
}

// PaymentService is the payment-acceptance core plus its read side.
type PaymentService interface {
	// CreatePayment runs the acceptance sequence inside one database
	// transaction. The returned error is reserved for system faults; every
	// business outcome arrives through the result.
	CreatePayment(ctx context.Context, req CreatePaymentRequest) (*CreatePaymentResult, error)
	ListPayments(ctx context.Context, walletID uuid.UUID, startDate, endDate *time.Time, cursor *uuid.UUID, limit int) (*PaymentListPage, error)
}

// WalletService defines wallet CRUD that carries no acceptance logic.
type WalletService interface {
	CreateWallet(ctx context.Context, ownerName string) (*domain.Wallet, error)
	GetWalletPolicies(ctx context.Context, walletID uuid.UUID) ([]domain.Policy, error)
}

// CreatePolicyRequest holds validated input for policy creation. Category
// decides which limit fields are required.
type CreatePolicyRequest struct {
	Name                string
	Category            domain.PolicyCategory
	MaxPerPayment       *decimal.Decimal
	DaytimeDailyLimit   *decimal.Decimal
	NighttimeDailyLimit *decimal.Decimal
	WeekendDailyLimit   *decimal.Decimal
	MaxTxPerDay         *int32
}

// PolicyListPage is one page of policy definitions.
type PolicyListPage struct {
	Policies   []domain.Policy
	NextCursor *uuid.UUID
	Total      int64
}

// PolicyService defines policy CRUD and wallet attachment.
type PolicyService interface {
	CreatePolicy(ctx context.Context, req CreatePolicyRequest) (*domain.Policy, error)
	ListPolicies(ctx context.Context, cursor *uuid.UUID, limit int) (*PolicyListPage, error)
	// AttachPolicy replaces the wallet's attached policies with the given one.
	AttachPolicy(ctx context.Context, walletID, policyID uuid.UUID) error
}
