package coins

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/models"
	"github.com/vmelnikov/filedrop/internal/users"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func setupLedger(t *testing.T, coins int) (*Ledger, *users.Repository) {
	t.Helper()
	repo := users.NewRepository(kvstore.NewMemoryStore(0))
	u := &models.User{
		ID:        "u1",
		Email:     "a@example.com",
		CreatedAt: time.Now().UTC(),
		Coins:     coins,
	}
	require.NoError(t, repo.Update(context.Background(), u))
	require.NoError(t, repo.SetSession(context.Background(), u))
	return NewLedger(repo, testLogger()), repo
}

func TestDebit_DecrementsBalance(t *testing.T) {
	l, _ := setupLedger(t, 2)

	balance, err := l.Debit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)
}

func TestDebit_InsufficientBalance_Unchanged(t *testing.T) {
	l, repo := setupLedger(t, 0)
	ctx := context.Background()

	_, err := l.Debit(ctx, "u1")
	require.ErrorIs(t, err, common.ErrInsufficientBalance)

	u, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Coins, "failed debit must not change the balance")
}

func TestDebit_UnknownUser(t *testing.T) {
	l, _ := setupLedger(t, 1)

	_, err := l.Debit(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestCredit_AddsCoins(t *testing.T) {
	l, _ := setupLedger(t, 1)

	balance, err := l.Credit(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.Equal(t, 11, balance)
}

func TestCredit_RejectsNonPositiveAmounts(t *testing.T) {
	l, _ := setupLedger(t, 1)
	ctx := context.Background()

	_, err := l.Credit(ctx, "u1", 0)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
	_, err = l.Credit(ctx, "u1", -5)
	require.ErrorIs(t, err, common.ErrInvalidAmount)
}

func TestCredit_UnknownUser(t *testing.T) {
	l, _ := setupLedger(t, 1)

	_, err := l.Credit(context.Background(), "ghost", 5)
	require.ErrorIs(t, err, common.ErrUserNotFound)
}

func TestMutations_KeepSessionCopyInSync(t *testing.T) {
	l, repo := setupLedger(t, 2)
	ctx := context.Background()

	_, err := l.Debit(ctx, "u1")
	require.NoError(t, err)
	_, err = l.Credit(ctx, "u1", 5)
	require.NoError(t, err)

	stored, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	session, err := repo.CurrentSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, stored.Coins, session.Coins, "the two copies of the balance must stay identical")
	assert.Equal(t, 6, session.Coins)
}

func TestBalance(t *testing.T) {
	l, _ := setupLedger(t, 7)

	balance, err := l.Balance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, balance)

	_, err = l.Balance(context.Background(), "ghost")
	require.ErrorIs(t, err, common.ErrUserNotFound)
}
