package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports"
	"wallet-policy-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type PolicyServiceImpl struct {
	policyRepo ports.PolicyRepository
	walletRepo ports.WalletRepository
	log        zerolog.Logger
}

func NewPolicyService(policyRepo ports.PolicyRepository, walletRepo ports.WalletRepository, log zerolog.Logger) *PolicyServiceImpl {
	return &PolicyServiceImpl{policyRepo: policyRepo, walletRepo: walletRepo, log: log}
}

func (s *PolicyServiceImpl) CreatePolicy(ctx context.Context, req ports.CreatePolicyRequest) (*domain.Policy, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperror.Validation("name must not be empty")
	}

	switch req.Category {
	case domain.PolicyCategoryValueLimit:
		if req.MaxPerPayment == nil || req.DaytimeDailyLimit == nil ||
			req.NighttimeDailyLimit == nil || req.WeekendDailyLimit == nil {
			return nil, apperror.Validation("VALUE_LIMIT requires maxPerPayment, daytimeDailyLimit, nighttimeDailyLimit and weekendDailyLimit")
		}
	case domain.PolicyCategoryTxCountLimit:
		if req.MaxTxPerDay == nil {
			return nil, apperror.Validation("TX_COUNT_LIMIT requires maxTxPerDay")
		}
	default:
		return nil, apperror.Validation("category must be VALUE_LIMIT or TX_COUNT_LIMIT")
	}

	now := time.Now().UTC()
	policy := &domain.Policy{
		ID:                  uuid.New(),
		Name:                name,
		Category:            req.Category,
		MaxPerPayment:       req.MaxPerPayment,
		DaytimeDailyLimit:   req.DaytimeDailyLimit,
		NighttimeDailyLimit: req.NighttimeDailyLimit,
		WeekendDailyLimit:   req.WeekendDailyLimit,
		MaxTxPerDay:         req.MaxTxPerDay,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.policyRepo.Create(ctx, policy); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create policy: %w", err))
	}

	s.log.Info().
		Str("policy_id", policy.ID.String()).
		Str("category", string(policy.Category)).
		Msg("policy created")
	return policy, nil
}

func (s *PolicyServiceImpl) ListPolicies(ctx context.Context, cursor *uuid.UUID, limit int) (*ports.PolicyListPage, error) {
	policies, next, err := s.policyRepo.List(ctx, cursor, limit)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("list policies: %w", err))
	}
	total, err := s.policyRepo.Count(ctx)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("count policies: %w", err))
	}
	return &ports.PolicyListPage{Policies: policies, NextCursor: next, Total: total}, nil
}

// AttachPolicy replaces whatever the wallet had attached with the given
// policy.
func (s *PolicyServiceImpl) AttachPolicy(ctx context.Context, walletID, policyID uuid.UUID) error {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get wallet %s: %w", walletID, err))
	}
	if wallet == nil {
		return apperror.ErrNotFound("wallet")
	}

	policy, err := s.policyRepo.GetByID(ctx, policyID)
	if err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("get policy %s: %w", policyID, err))
	}
	if policy == nil {
		return apperror.ErrNotFound("policy")
	}

	if err := s.walletRepo.UpdatePolicyIDs(ctx, walletID, []uuid.UUID{policyID}); err != nil {
		return apperror.ErrDatabaseError(fmt.Errorf("attach policy: %w", err))
	}

	s.log.Info().
		Str("wallet_id", walletID.String()).
		Str("policy_id", policyID.String()).
		Msg("policy attached to wallet")
	return nil
}
