package service

import (
	"context"
	"testing"

	"wallet-policy-gateway/internal/core/domain"
	"wallet-policy-gateway/internal/core/ports/mocks"
	"wallet-policy-gateway/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func newWalletService(t *testing.T) (*WalletServiceImpl, *mocks.MockWalletRepository, *mocks.MockPolicyRepository) {
	ctrl := gomock.NewController(t)
	walletRepo := mocks.NewMockWalletRepository(ctrl)
	policyRepo := mocks.NewMockPolicyRepository(ctrl)
	return NewWalletService(walletRepo, policyRepo, zerolog.Nop()), walletRepo, policyRepo
}

func TestCreateWallet(t *testing.T) {
	svc, walletRepo, _ := newWalletService(t)

	walletRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	wallet, err := svc.CreateWallet(context.Background(), "  alice  ")
	require.NoError(t, err)
	assert.Equal(t, "alice", wallet.OwnerName)
	assert.NotEqual(t, uuid.Nil, wallet.ID)
}

func TestCreateWallet_BlankOwnerName(t *testing.T) {
	svc, _, _ := newWalletService(t)

	_, err := svc.CreateWallet(context.Background(), "   ")
	require.Error(t, err)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "VALIDATION_ERROR", appErr.Code)
}

func TestGetWalletPolicies(t *testing.T) {
	svc, walletRepo, policyRepo := newWalletService(t)
	walletID := uuid.New()
	attachedID := uuid.New()
	danglingID := uuid.New()

	walletRepo.EXPECT().GetByID(gomock.Any(), walletID).Return(&domain.Wallet{
		ID:        walletID,
		PolicyIDs: []uuid.UUID{attachedID, danglingID},
	}, nil)
	policyRepo.EXPECT().GetByID(gomock.Any(), attachedID).Return(&domain.Policy{
		ID:       attachedID,
		Category: domain.PolicyCategoryValueLimit,
	}, nil)
	policyRepo.EXPECT().GetByID(gomock.Any(), danglingID).Return(nil, nil)

	policies, err := svc.GetWalletPolicies(context.Background(), walletID)
	require.NoError(t, err)
	require.Len(t, policies, 1)
	assert.Equal(t, attachedID, policies[0].ID)
}

func TestGetWalletPolicies_WalletMissing(t *testing.T) {
	svc, walletRepo, _ := newWalletService(t)
	walletID := uuid.New()

	walletRepo.EXPECT().GetByID(gomock.Any(), walletID).Return(nil, nil)

	_, err := svc.GetWalletPolicies(context.Background(), walletID)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
