package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/vmelnikov/filedrop/internal/coins"
	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/models"
)

const (
	sessionKeyPrefix = "checkout_"

	// markerKeyPrefix records that a session id was already reconciled.
	// The marker is the sole idempotence guarantee in the system.
	markerKeyPrefix = "payment_done_"
)

// Reconciliation outcomes.
const (
	OutcomeCredited         = "credited"
	OutcomeAlreadyProcessed = "already_processed"
	OutcomeCanceled         = "canceled"
)

// Result describes one reconciliation pass for the UI.
type Result struct {
	Outcome string `json:"outcome"`
	UserID  string `json:"userId,omitempty"`
	Coins   int    `json:"coins,omitempty"`
	Balance int    `json:"balance,omitempty"`
}

// Service drives purchases: it creates provider sessions and applies
// redirect outcomes to the coin ledger exactly once per session id.
type Service struct {
	store   kvstore.Store
	ledger  *coins.Ledger
	creator SessionCreator
	log     logging.Logger
}

func NewService(store kvstore.Store, ledger *coins.Ledger, creator SessionCreator, log logging.Logger) *Service {
	return &Service{store: store, ledger: ledger, creator: creator, log: log}
}

// Initiate requests a hosted checkout for the given coin package and
// records the pending session. It returns the provider redirect url.
func (s *Service) Initiate(ctx context.Context, userID, userEmail, packageID string) (string, error) {
	pkg := models.PackageByID(packageID)
	if pkg == nil {
		return "", fmt.Errorf("%w: unknown package %q", common.ErrCheckoutInitiation, packageID)
	}

	resp, err := s.creator.CreateSession(ctx, CreateSessionRequest{
		PackageID: packageID,
		UserID:    userID,
		UserEmail: userEmail,
	})
	if err != nil {
		return "", err
	}

	session := &models.CheckoutSession{
		ID:         sessionIDFromURL(resp.URL),
		UserID:     userID,
		CoinAmount: pkg.Coins,
		CostCents:  pkg.CostCents,
		Status:     models.CheckoutStatusPending,
		CreatedAt:  timeNow().UTC(),
	}
	if err := s.writeSession(ctx, session); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrCheckoutInitiation, err)
	}

	s.log.Info(ctx, "checkout initiated",
		"session", session.ID, "user", userID, "package", packageID)
	return resp.URL, nil
}

// Reconcile applies a parsed redirect to the ledger.
//
// A canceled redirect never touches state. A success redirect credits the
// user exactly once per session id: the processed marker is written before
// the credit, so a retried callback can never double-credit. The price of
// that ordering is a theoretical missed credit if the process dies between
// marking and crediting; that gap is accepted, since reordering would
// reintroduce the double-credit risk.
func (s *Service) Reconcile(ctx context.Context, r *Redirect) (*Result, error) {
	if r == nil {
		return nil, nil
	}
	if r.Canceled {
		return &Result{Outcome: OutcomeCanceled}, nil
	}

	markerKey := markerKeyPrefix + r.SessionID
	marked, err := s.store.Get(ctx, markerKey)
	if err != nil {
		return nil, fmt.Errorf("%w: read marker: %v", common.ErrPaymentProcessing, err)
	}
	if marked != nil {
		s.log.Info(ctx, "payment already processed", "session", r.SessionID)
		return &Result{Outcome: OutcomeAlreadyProcessed, UserID: r.UserID}, nil
	}

	if err := s.store.Set(ctx, markerKey, []byte(timeNow().UTC().Format(timeLayout))); err != nil {
		return nil, fmt.Errorf("%w: write marker: %v", common.ErrPaymentProcessing, err)
	}

	balance, err := s.ledger.Credit(ctx, r.UserID, r.Coins)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrPaymentProcessing, err)
	}

	s.completeSession(ctx, r.SessionID)

	s.log.Info(ctx, "payment reconciled",
		"session", r.SessionID, "user", r.UserID, "coins", r.Coins, "balance", balance)
	return &Result{Outcome: OutcomeCredited, UserID: r.UserID, Coins: r.Coins, Balance: balance}, nil
}

// Session returns the recorded checkout session, or (nil, nil) when absent
// or unparseable.
func (s *Service) Session(ctx context.Context, id string) (*models.CheckoutSession, error) {
	data, err := s.store.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var session models.CheckoutSession
	if err := json.Unmarshal(data, &session); err != nil || session.ID == "" {
		return nil, nil
	}
	return &session, nil
}

// completeSession flips the local session record pending -> completed.
// A missing record is a non-fatal no-op: the provider may not echo its
// session id into the checkout url, in which case the local record cannot
// be correlated and the marker alone carries the idempotence guarantee.
func (s *Service) completeSession(ctx context.Context, id string) {
	session, err := s.Session(ctx, id)
	if err != nil || session == nil {
		return
	}
	if session.Status != models.CheckoutStatusPending {
		return
	}
	session.Status = models.CheckoutStatusCompleted
	if err := s.writeSession(ctx, session); err != nil {
		s.log.Warn(ctx, "failed to complete checkout session", "session", id, "err", err)
	}
}

func (s *Service) writeSession(ctx context.Context, session *models.CheckoutSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, sessionKeyPrefix+session.ID, data)
}

// sessionIDFromURL extracts the provider session id echoed in the checkout
// url's session_id parameter, generating an id when it is absent.
func sessionIDFromURL(raw string) string {
	if parsed, err := url.Parse(raw); err == nil {
		if id := parsed.Query().Get("session_id"); id != "" {
			return id
		}
	}
	return uuid.NewString()
}
