// Package accounts implements registration, login and the current-session
// user over the injected store. Credentials are bcrypt-hashed; plaintext
// passwords are never persisted.
package accounts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vmelnikov/filedrop/internal/common"
	"github.com/vmelnikov/filedrop/internal/logging"
	"github.com/vmelnikov/filedrop/internal/models"
	"github.com/vmelnikov/filedrop/internal/users"
)

// MaxAccountsPerAddress caps registrations per origin address.
const MaxAccountsPerAddress = 2

// timeNow is a test seam.
var timeNow = time.Now

type Service struct {
	users    *users.Repository
	resolver AddressResolver
	log      logging.Logger

	// SignupBonus is the coin balance granted to new accounts.
	SignupBonus int
}

func NewService(users *users.Repository, resolver AddressResolver, log logging.Logger) *Service {
	return &Service{users: users, resolver: resolver, log: log, SignupBonus: 1}
}

// Register creates an account for email and logs it in.
//
// Fails with common.ErrEmailTaken when the email is already registered and
// with common.ErrAccountLimit when MaxAccountsPerAddress accounts already
// exist for the caller's origin address.
func (s *Service) Register(ctx context.Context, email string, password []byte) (*models.User, error) {
	if email == "" || len(password) == 0 {
		return nil, common.ErrInvalidCredentials
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, common.ErrEmailTaken
	}

	addr := s.originAddress(ctx)
	if err := s.checkAddressLimit(ctx, addr); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:            uuid.NewString(),
		Email:         email,
		CreatedAt:     timeNow().UTC(),
		OriginAddress: addr,
		Coins:         s.SignupBonus,
	}

	if err := s.users.SetCredentials(ctx, &models.Credentials{Email: email, PasswordHash: string(hash)}); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	if err := s.users.SetSession(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account registered", "user", u.ID, "address", addr)
	return u, nil
}

// Login authenticates email/password and marks the user as the current
// session. Unknown emails and wrong passwords both fail with
// common.ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email string, password []byte) (*models.User, error) {
	creds, err := s.users.Credentials(ctx, email)
	if err != nil {
		return nil, err
	}
	if creds == nil {
		return nil, common.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(creds.PasswordHash), password); err != nil {
		return nil, common.ErrInvalidCredentials
	}

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, common.ErrInvalidCredentials
	}

	if err := s.users.SetSession(ctx, u); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "login", "user", u.ID)
	return u, nil
}

// CurrentUser returns the session user, or (nil, nil) when logged out.
func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	return s.users.CurrentSession(ctx)
}

// Logout clears the session slot.
func (s *Service) Logout(ctx context.Context) error {
	return s.users.ClearSession(ctx)
}

func (s *Service) checkAddressLimit(ctx context.Context, addr string) error {
	all, err := s.users.List(ctx)
	if err != nil {
		return err
	}

	count := 0
	for _, u := range all {
		if u.OriginAddress == addr {
			count++
		}
	}
	if count >= MaxAccountsPerAddress {
		return common.ErrAccountLimit
	}
	return nil
}

func (s *Service) originAddress(ctx context.Context) string {
	addr, err := s.resolver.Resolve(ctx)
	if err != nil || addr == "" {
		// Registration still works when the lookup is unreachable; those
		// accounts share one "unknown" bucket for the limit.
		s.log.Warn(ctx, "origin address lookup failed", "err", err)
		return "unknown"
	}
	return addr
}
