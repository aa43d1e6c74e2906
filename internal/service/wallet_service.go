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

type WalletServiceImpl struct {
	walletRepo ports.WalletRepository
	policyRepo ports.PolicyRepository
	log        zerolog.Logger
}

func NewWalletService(walletRepo ports.WalletRepository, policyRepo ports.PolicyRepository, log zerolog.Logger) *WalletServiceImpl {
	return &WalletServiceImpl{walletRepo: walletRepo, policyRepo: policyRepo, log: log}
}

func (s *WalletServiceImpl) CreateWallet(ctx context.Context, ownerName string) (*domain.Wallet, error) {
	ownerName = strings.TrimSpace(ownerName)
	if ownerName == "" {
		return nil, apperror.Validation("ownerName must not be empty")
	}

	wallet := &domain.Wallet{
		ID:        uuid.New(),
		OwnerName: ownerName,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.walletRepo.Create(ctx, wallet); err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("create wallet: %w", err))
	}

	s.log.Info().Str("wallet_id", wallet.ID.String()).Msg("wallet created")
	return wallet, nil
}

// GetWalletPolicies resolves the wallet's attached policies. Attached ids
// that no longer resolve to a stored policy are skipped.
func (s *WalletServiceImpl) GetWalletPolicies(ctx context.Context, walletID uuid.UUID) ([]domain.Policy, error) {
	wallet, err := s.walletRepo.GetByID(ctx, walletID)
	if err != nil {
		return nil, apperror.ErrDatabaseError(fmt.Errorf("get wallet %s: %w", walletID, err))
	}
	if wallet == nil {
		return nil, apperror.ErrNotFound("wallet")
	}

	policies := make([]domain.Policy, 0, len(wallet.PolicyIDs))
	for _, id := range wallet.PolicyIDs {
		policy, err := s.policyRepo.GetByID(ctx, id)
		if err != nil {
			return nil, apperror.ErrDatabaseError(fmt.Errorf("get policy %s: %w", id, err))
		}
		if policy == nil {
			continue
		}
		policies = append(policies, *policy)
	}
	return policies, nil
}
