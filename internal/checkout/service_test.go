package checkout

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vmelnikov/filedrop/internal/coins"
	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/models"
	"github.com/vmelnikov/filedrop/internal/users"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

type fakeCreator struct {
	Resp *CreateSessionResponse
	Err  error

	LastReq CreateSessionRequest
}

func (f *fakeCreator) CreateSession(_ context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	f.LastReq = req
	return f.Resp, f.Err
}

func setupCheckout(t *testing.T, creator SessionCreator) (*Service, *users.Repository, kvstore.Store) {
	t.Helper()
	store := kvstore.NewMemoryStore(0)
	repo := users.NewRepository(store)
	require.NoError(t, repo.Update(context.Background(), &models.User{
		ID:        "u1",
		Email:     "a@example.com",
		CreatedAt: time.Now().UTC(),
		Coins:     0,
	}))
	ledger := coins.NewLedger(repo, testLogger())
	return NewService(store, ledger, creator, testLogger()), repo, store
}

func TestInitiate_RecordsPendingSession(t *testing.T) {
	creator := &fakeCreator{Resp: &CreateSessionResponse{
		URL: "https://pay.example/c?session_id=cs_123",
	}}
	svc, _, _ := setupCheckout(t, creator)
	ctx := context.Background()

	redirectURL, err := svc.Initiate(ctx, "u1", "a@example.com", "regular")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/c?session_id=cs_123", redirectURL)
	assert.Equal(t, "regular", creator.LastReq.PackageID)
	assert.Equal(t, "u1", creator.LastReq.UserID)

	session, err := svc.Session(ctx, "cs_123")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, models.CheckoutStatusPending, session.Status)
	assert.Equal(t, 10, session.CoinAmount)
	assert.Equal(t, 990, session.CostCents)
	assert.Equal(t, "u1", session.UserID)
}

func TestInitiate_UnknownPackage(t *testing.T) {
	svc, _, _ := setupCheckout(t, &fakeCreator{})

	_, err := svc.Initiate(context.Background(), "u1", "a@example.com", "mega")
	require.ErrorIs(t, err, common.ErrCheckoutInitiation)
}

func TestInitiate_ProviderFailurePropagates(t *testing.T) {
	creator := &fakeCreator{Err: common.ErrCheckoutInitiation}
	svc, _, store := setupCheckout(t, creator)

	_, err := svc.Initiate(context.Background(), "u1", "a@example.com", "starter")
	require.ErrorIs(t, err, common.ErrCheckoutInitiation)

	keys, err := store.Keys(context.Background(), sessionKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys, "no session is recorded when initiation fails")
}

func TestReconcile_CreditsExactlyOncePerSession(t *testing.T) {
	svc, repo, _ := setupCheckout(t, &fakeCreator{})
	ctx := context.Background()

	r := &Redirect{Coins: 10, UserID: "u1", SessionID: "cs_abc"}

	res, err := svc.Reconcile(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, OutcomeCredited, res.Outcome)
	assert.Equal(t, 10, res.Balance)

	// Back-button replay of the same redirect.
	res, err = svc.Reconcile(ctx, r)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyProcessed, res.Outcome)

	u, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 10, u.Coins, "balance must increase by exactly 10, not 20")
}

func TestReconcile_Canceled_TouchesNothing(t *testing.T) {
	svc, repo, store := setupCheckout(t, &fakeCreator{})
	ctx := context.Background()

	res, err := svc.Reconcile(ctx, &Redirect{Canceled: true})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCanceled, res.Outcome)

	u, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, u.Coins)

	keys, err := store.Keys(ctx, markerKeyPrefix)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestReconcile_CompletesPendingSession(t *testing.T) {
	creator := &fakeCreator{Resp: &CreateSessionResponse{
		URL: "https://pay.example/c?session_id=cs_9",
	}}
	svc, _, _ := setupCheckout(t, creator)
	ctx := context.Background()

	_, err := svc.Initiate(ctx, "u1", "a@example.com", "starter")
	require.NoError(t, err)

	_, err = svc.Reconcile(ctx, &Redirect{Coins: 5, UserID: "u1", SessionID: "cs_9"})
	require.NoError(t, err)

	session, err := svc.Session(ctx, "cs_9")
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, models.CheckoutStatusCompleted, session.Status)

	// A replay must not flip it back or error.
	_, err = svc.Reconcile(ctx, &Redirect{Coins: 5, UserID: "u1", SessionID: "cs_9"})
	require.NoError(t, err)
	session, err = svc.Session(ctx, "cs_9")
	require.NoError(t, err)
	assert.Equal(t, models.CheckoutStatusCompleted, session.Status)
}

func TestReconcile_MissingSessionIsNonFatal(t *testing.T) {
	svc, repo, _ := setupCheckout(t, &fakeCreator{})
	ctx := context.Background()

	res, err := svc.Reconcile(ctx, &Redirect{Coins: 5, UserID: "u1", SessionID: "cs_unseen"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCredited, res.Outcome)

	u, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 5, u.Coins)
}

func TestReconcile_MarksBeforeCrediting(t *testing.T) {
	svc, _, store := setupCheckout(t, &fakeCreator{})
	ctx := context.Background()

	// Credit fails because the user does not exist; the marker must
	// already be in place (mark-then-credit ordering).
	_, err := svc.Reconcile(ctx, &Redirect{Coins: 5, UserID: "ghost", SessionID: "cs_gone"})
	require.ErrorIs(t, err, common.ErrPaymentProcessing)

	marked, err := store.Get(ctx, markerKeyPrefix+"cs_gone")
	require.NoError(t, err)
	assert.NotNil(t, marked)
}

func TestClient_CreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"url":"https://pay.example/c/cs_1"}`))
	}))
	defer srv.Close()

	resp, err := NewClient(srv.URL).CreateSession(context.Background(), CreateSessionRequest{
		PackageID: "starter", UserID: "u1", UserEmail: "a@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/c/cs_1", resp.URL)
}

func TestClient_CreateSession_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"Invalid package selected"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateSession(context.Background(), CreateSessionRequest{PackageID: "bogus"})
	require.ErrorIs(t, err, common.ErrCheckoutInitiation)
}

func TestClient_CreateSession_MissingURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateSession(context.Background(), CreateSessionRequest{PackageID: "starter"})
	require.ErrorIs(t, err, common.ErrCheckoutInitiation)
}
