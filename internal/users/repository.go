// Package users is the keyed persistence layer for account records. It owns
// the store keys for users, stored credentials and the current-session slot,
// and funnels every user mutation through one Update path so the per-id
// record and the cached session copy cannot drift.
package users

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/vmelnikov/filedrop/internal/kvstore"
	"github.com/vmelnikov/filedrop/internal/models"
)

const (
	userKeyPrefix        = "user_"
	credentialsKeyPrefix = "credentials_"

	// sessionKey is the separately cached "current session" copy of the
	// logged-in user. The UI reads this slot for display; Update keeps it
	// identical to the per-id record.
	sessionKey = "user"
)

type Repository struct {
	store kvstore.Store
}

func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// Get returns the user stored under id, or (nil, nil) when absent or
// unparseable.
func (r *Repository) Get(ctx context.Context, id string) (*models.User, error) {
	return r.getUserKey(ctx, userKeyPrefix+id)
}

// FindByEmail scans stored users for a matching email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, u := range all {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

// List returns every readable user record. Corrupted entries are skipped.
func (r *Repository) List(ctx context.Context) ([]*models.User, error) {
	keys, err := r.store.Keys(ctx, userKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list user keys: %w", err)
	}

	var out []*models.User
	for _, key := range keys {
		u, err := r.getUserKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if u == nil {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// Update is the only mutation path for user records. It re-serializes the
// full record under user_<id> and, when the current session belongs to the
// same id, rewrites the session slot with the identical bytes.
func (r *Repository) Update(ctx context.Context, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := r.store.Set(ctx, userKeyPrefix+u.ID, data); err != nil {
		return fmt.Errorf("write user[%s]: %w", u.ID, err)
	}

	session, err := r.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if session != nil && session.ID == u.ID {
		if err := r.store.Set(ctx, sessionKey, data); err != nil {
			return fmt.Errorf("write session user: %w", err)
		}
	}
	return nil
}

// SetSession marks u as the current session user.
func (r *Repository) SetSession(ctx context.Context, u *models.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal session user: %w", err)
	}
	if err := r.store.Set(ctx, sessionKey, data); err != nil {
		return fmt.Errorf("write session user: %w", err)
	}
	return nil
}

// CurrentSession returns the cached session user, or (nil, nil) when nobody
// is logged in or the slot is unparseable.
func (r *Repository) CurrentSession(ctx context.Context) (*models.User, error) {
	return r.getUserKey(ctx, sessionKey)
}

// ClearSession logs the current user out.
func (r *Repository) ClearSession(ctx context.Context) error {
	return r.store.Delete(ctx, sessionKey)
}

// Credentials returns the stored login record for email, or (nil, nil).
func (r *Repository) Credentials(ctx context.Context, email string) (*models.Credentials, error) {
	data, err := r.store.Get(ctx, credentialsKeyPrefix+email)
	if err != nil {
		return nil, fmt.Errorf("get credentials: %w", err)
	}
	if data == nil {
		return nil, nil
	}

	var creds models.Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, nil
	}
	return &creds, nil
}

// SetCredentials stores the login record for email.
func (r *Repository) SetCredentials(ctx context.Context, creds *models.Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := r.store.Set(ctx, credentialsKeyPrefix+creds.Email, data); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

func (r *Repository) getUserKey(ctx context.Context, key string) (*models.User, error) {
	data, err := r.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	if data == nil {
		return nil, nil
	}

	var u models.User
	if err := json.Unmarshal(data, &u); err != nil || u.ID == "" {
		// Parse failures are treated as absent, never propagated.
		return nil, nil
	}
	return &u, nil
}
