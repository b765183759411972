// Package coins tracks per-user coin balances. One coin is consumed per
// premium upload; purchases credit the balance.
package coins

import (
	"context"
	"fmt"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/users"
)

// Ledger mutates balances through the users repository's single Update
// path, which keeps the per-id record and the cached session copy in sync.
type Ledger struct {
	users *users.Repository
	log   logging.Logger
}

func NewLedger(users *users.Repository, log logging.Logger) *Ledger {
	return &Ledger{users: users, log: log}
}

// Balance returns the current coin balance for userID.
func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	u, err := l.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, common.ErrUserNotFound
	}
	return u.Coins, nil
}

// Debit removes one coin from userID and returns the updated balance.
// When the balance is below one it fails with common.ErrInsufficientBalance
// and leaves the balance unchanged.
func (l *Ledger) Debit(ctx context.Context, userID string) (int, error) {
	u, err := l.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, common.ErrUserNotFound
	}
	if u.Coins < 1 {
		return u.Coins, common.ErrInsufficientBalance
	}

	u.Coins--
	if err := l.users.Update(ctx, u); err != nil {
		return 0, fmt.Errorf("debit user[%s]: %w", userID, err)
	}

	l.log.Info(ctx, "coin debited", "user", userID, "balance", u.Coins)
	return u.Coins, nil
}

// Credit adds amount coins to userID and returns the updated balance.
// amount must be a positive integer.
func (l *Ledger) Credit(ctx context.Context, userID string, amount int) (int, error) {
	if amount <= 0 {
		return 0, fmt.Errorf("%w: %d", common.ErrInvalidAmount, amount)
	}

	u, err := l.users.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if u == nil {
		return 0, common.ErrUserNotFound
	}

	u.Coins += amount
	if err := l.users.Update(ctx, u); err != nil {
		return 0, fmt.Errorf("credit user[%s]: %w", userID, err)
	}

	l.log.Info(ctx, "coins credited", "user", userID, "amount", amount, "balance", u.Coins)
	return u.Coins, nil
}
