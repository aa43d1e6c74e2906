package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"
	"wallet-policy-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

const (
	idempotencyCacheTTL = 24 * time.Hour
	uniqueViolationCode = "23505"
)

// PaymentServiceImpl accepts payments under the wallet's spending policies.
// All decisions for one wallet are serialized on the wallet row lock, so
// validators see a frozen view of the wallet's payment history.
type PaymentServiceImpl struct {
	walletRepo  ports.WalletRepository
	policyRepo  ports.PolicyRepository
	paymentRepo ports.PaymentRepository
	transactor  ports.DBTransactor
	idempCache  ports.IdempotencyCache
	registry    *validatorRegistry
	log         zerolog.Logger
}

func NewPaymentService(
	walletRepo ports.WalletRepository,
	policyRepo ports.PolicyRepository,
	paymentRepo ports.PaymentRepository,
	transactor ports.DBTransactor,
	idempCache ports.IdempotencyCache,
	log zerolog.Logger,
	validators ...PolicyValidator,
) *PaymentServiceImpl {
	return &PaymentServiceImpl{
		walletRepo:  walletRepo,
		policyRepo:  policyRepo,
		paymentRepo: paymentRepo,
		transactor:  transactor,
		idempCache:  idempCache,
		registry:    newValidatorRegistry(validators...),
		log:         log,
	}
}

func (s *PaymentServiceImpl) CreatePayment(ctx context.Context, req ports.CreatePaymentRequest) (*ports.CreatePaymentResult, error) {
	// Committed payments are immutable, so a cache hit can resolve a retry
	// without touching the wallet lock. Strictly best effort: any cache
	// problem falls through to the transactional path.
	if res := s.resultFromCache(ctx, req); res != nil {
		return res, nil
	}

	tx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("begin payment tx: %w", err))
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	wallet, err := s.walletRepo.LockByID(ctx, tx, req.WalletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("lock wallet %s: %w", req.WalletID, err))
	}
	if wallet == nil {
		return &ports.CreatePaymentResult{Outcome: ports.OutcomeWalletMissing}, nil
	}

	existing, err := s.paymentRepo.FindByIdempotencyKeyInTx(ctx, tx, req.IdempotencyKey)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("find by idempotency key: %w", err))
	}
	if existing != nil {
		return resolveDuplicate(existing, req), nil
	}

	active, err := resolveActiveCategories(ctx, s.policyRepo, wallet.PolicyIDs)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("resolve policy categories: %w", err))
	}
	for _, v := range s.registry.active(active) {
		violation, err := v.Validate(ctx, tx, wallet, req.Amount, req.OccurredAt)
		if err != nil {
			return nil, apperror.ErrDatabaseError(err)
		}
		if violation != nil {
			s.log.Info().
				Str("wallet_id", req.WalletID.String()).
				Str("policy_type", string(violation.Category)).
				Str("reason", violation.Message).
				Msg("payment rejected by policy")
			return &ports.CreatePaymentResult{Outcome: ports.OutcomePolicyRejected, Violation: violation}, nil
		}
	}

	now := time.Now().UTC()
	payment := &domain.Payment{
		ID:             uuid.New(),
		WalletID:       req.WalletID,
		Amount:         req.Amount,
		OccurredAt:     req.OccurredAt.UTC(),
		IdempotencyKey: req.IdempotencyKey,
		Status:         domain.PaymentStatusApproved,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.paymentRepo.Insert(ctx, tx, payment); err != nil {
		if isIdempotencyRace(err) {
			// The failed insert aborted this transaction; the winner has to
			// be re-read outside it.
			_ = tx.Rollback(ctx)
			return s.recoverIdempotencyRace(ctx, req)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("insert payment: %w", err))
	}
	if err := tx.Commit(ctx); err != nil {
		if isIdempotencyRace(err) {
			return s.recoverIdempotencyRace(ctx, req)
		}
		return nil, apperror.ErrDatabaseError(fmt.Errorf("commit payment tx: %w", err))
	}

	s.cachePayment(ctx, payment)
	s.log.Info().
		Str("payment_id", payment.ID.String()).
		Str("wallet_id", payment.WalletID.String()).
		Str("amount", payment.Amount.String()).
		Msg("payment approved")

	return &ports.CreatePaymentResult{Outcome: ports.OutcomeApproved, Payment: payment, IsNew: true}, nil
}

func (s *PaymentServiceImpl) ListPayments(ctx context.Context, walletID uuid.UUID, startDate, endDate *time.Time, cursor *uuid.UUID, limit int) (*ports.PaymentListPage, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet %s: %w", walletID, err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	payments, next, err := s.paymentRepo.List(ctx, ports.PaymentListParams{
		WalletID:  walletID,
		StartDate: startDate,
		EndDate:   endDate,
		Cursor:    cursor,
		Limit:     limit,
	})
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list payments: %w", err))
	}
	total, err := s.paymentRepo.Count(ctx, walletID, startDate, endDate)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("count payments: %w", err))
	}

	return &ports.PaymentListPage{Payments: payments, NextCursor: next, Total: total}, nil
}

// recoverIdempotencyRace handles the window where two requests with the same
// key both passed the duplicate check before either committed. The loser
// re-reads the committed row: a matching payload is a successful replay, a
// different or still-absent one is a conflict.
func (s *PaymentServiceImpl) recoverIdempotencyRace(ctx context.Context, req ports.CreatePaymentRequest) (*ports.CreatePaymentResult, error) {
	existing, err := s.paymentRepo.FindByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("resolve idempotency race: %w", err))
	}
	if existing == nil {
		return &ports.CreatePaymentResult{Outcome: ports.OutcomeConflict}, nil
	}
	return resolveDuplicate(existing, req), nil
}

func (s *PaymentServiceImpl) resultFromCache(ctx context.Context, req ports.CreatePaymentRequest) *ports.CreatePaymentResult {
	if s.idempCache == nil {
		return nil
	}
	raw, err := s.idempCache.Get(ctx, req.IdempotencyKey)
	if err != nil {
		s.log.Warn().Err(err).Msg("idempotency cache read failed")
		return nil
	}
	if raw == nil {
		return nil
	}
	var payment domain.Payment
	if err := json.Unmarshal(raw, &payment); err != nil {
		s.log.Warn().Err(err).Msg("idempotency cache entry malformed")
		return nil
	}
	return resolveDuplicate(&payment, req)
}

func (s *PaymentServiceImpl) cachePayment(ctx context.Context, payment *domain.Payment) {
	if s.idempCache == nil {
		return
	}
	raw, err := json.Marshal(payment)
	if err != nil {
		return
	}
	if err := s.idempCache.Set(ctx, payment.IdempotencyKey, raw, idempotencyCacheTTL); err != nil {
		s.log.Warn().Err(err).Msg("idempotency cache write failed")
	}
}

func resolveDuplicate(existing *domain.Payment, req ports.CreatePaymentRequest) *ports.CreatePaymentResult {
	if existing.Matches(req.WalletID, req.Amount, req.OccurredAt) {
		return &ports.CreatePaymentResult{Outcome: ports.OutcomeApproved, Payment: existing, IsNew: false}
	}
	return &ports.CreatePaymentResult{Outcome: ports.OutcomeConflict}
}

func isIdempotencyRace(err error) bool {
	if errors.Is(err, ports.ErrIdempotencyKeyTaken) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
