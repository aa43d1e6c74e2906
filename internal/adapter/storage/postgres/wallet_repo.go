package postgres

import (
	"context"
	"errors"
	"fmt"

	"wallet-policy-gateway/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WalletRepo implements ports.WalletRepository. The current schema stores at
// most one attached policy in a nullable policy_id column; the repository
// maps it to the PolicyIDs slice the domain contract requires.
type WalletRepo struct {
	pool Pool
}

// NewWalletRepo creates a new WalletRepo.
func NewWalletRepo(pool Pool) *WalletRepo {
	return &WalletRepo{pool: pool}
}

// Create inserts a new wallet into the database.
func (r *WalletRepo) Create(ctx context.Context, w *domain.Wallet) error {
	query := `INSERT INTO wallets (id, owner_name, policy_id, created_at)
		VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query, w.ID, w.OwnerName, firstPolicyID(w.PolicyIDs), w.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// GetByID fetches a wallet by its UUID (without locking).
func (r *WalletRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_name, policy_id, created_at FROM wallets WHERE id = $1`

	return scanWallet(r.pool.QueryRow(ctx, query, id), "get wallet by id")
}

// LockByID fetches a wallet by ID with an exclusive row lock. The lock is
// held until the surrounding transaction commits or rolls back.
func (r *WalletRepo) LockByID(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Wallet, error) {
	query := `SELECT id, owner_name, policy_id, created_at FROM wallets WHERE id = $1 FOR UPDATE`

	return scanWallet(tx.QueryRow(ctx, query, id), "lock wallet by id")
}

// UpdatePolicyIDs replaces the wallet's attached policies.
func (r *WalletRepo) UpdatePolicyIDs(ctx context.Context, walletID uuid.UUID, policyIDs []uuid.UUID) error {
	query := `UPDATE wallets SET policy_id = $1 WHERE id = $2`

	tag, err := r.pool.Exec(ctx, query, firstPolicyID(policyIDs), walletID)
	if err != nil {
		return fmt.Errorf("update wallet policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("wallet not found: %s", walletID)
	}
	return nil
}

func firstPolicyID(ids []uuid.UUID) *uuid.UUID {
	if len(ids) == 0 {
		return nil
	}
	return &ids[0]
}

func scanWallet(row pgx.Row, op string) (*domain.Wallet, error) {
	w := &domain.Wallet{}
	var policyID *uuid.UUID
	err := row.Scan(&w.ID, &w.OwnerName, &policyID, &w.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if policyID != nil {
		w.PolicyIDs = []uuid.UUID{*policyID}
	}
	return w, nil
}
