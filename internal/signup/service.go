package signup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"auth-gateway/internal/logger"
	"auth-gateway/internal/users"
)

// BackendRegistrar mirrors locally created users into the backend
// identity system.
type BackendRegistrar interface {
	RegisterWebUser(ctx context.Context, email string, displayName *string, webUserID string) (string, error)
}

// Result is the caller-visible outcome of a signup. Its shape is
// identical whether the row was just created or already existed, so the
// response leaks nothing about prior registrations.
type Result struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Service implements the dual-write signup flow: the local row is
// committed synchronously and is authoritative for the response; the
// backend mirror runs afterwards on its own error channel.
type Service struct {
	users   users.Store
	backend BackendRegistrar

	mirrorTimeout time.Duration
}

func NewService(userStore users.Store, registrar BackendRegistrar) *Service {
	return &Service{
		users:         userStore,
		backend:       registrar,
		mirrorTimeout: 15 * time.Second,
	}
}

// Signup registers the given address. An already-registered address
// returns the existing row unchanged; in particular the stored password
// hash is not updated.
func (s *Service) Signup(ctx context.Context, address, password string, name *string) (*Result, error) {

	existing, err := s.users.FindByEmail(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("signup: user lookup failed: %w", err)
	}
	if existing != nil {
		return &Result{ID: existing.ID, Email: existing.Email}, nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("signup: password hashing failed: %w", err)
	}

	// Local signup implies immediate trust in the address.
	now := time.Now()

	user, err := s.users.Create(ctx, users.NewUser{
		Email:         address,
		PasswordHash:  &hash,
		Name:          name,
		EmailVerified: &now,
	})

	if errors.Is(err, users.ErrEmailTaken) {
		// Concurrent signup won the insert; treat as already exists.
		existing, err = s.users.FindByEmail(ctx, address)
		if err != nil {
			return nil, fmt.Errorf("signup: conflict re-read failed: %w", err)
		}
		if existing == nil {
			return nil, errors.New("signup: conflicting user no longer exists")
		}
		return &Result{ID: existing.ID, Email: existing.Email}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("signup: user creation failed: %w", err)
	}

	// Phase 2: mirror into the backend. The response does not wait for
	// this, and its failure never rolls back the local row.
	go s.Mirror(context.Background(), user)

	return &Result{ID: user.ID, Email: user.Email}, nil
}

// Mirror registers the user with the backend identity system and, on
// success, persists the returned backend id. All failures are logged
// and dropped: a user existing locally with no backend counterpart is a
// tolerated state, reconciled out of band.
func (s *Service) Mirror(ctx context.Context, user *users.User) {
	ctx, cancel := context.WithTimeout(ctx, s.mirrorTimeout)
	defer cancel()

	backendID, err := s.backend.RegisterWebUser(ctx, user.Email, user.Name, user.ID)
	if err != nil {
		logger.Error("backend registration failed", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return
	}

	if err := s.users.SetBackendUserID(ctx, user.ID, backendID); err != nil {
		logger.Error("failed to persist backend user id", map[string]any{
			"user_id": user.ID,
			"error":   err.Error(),
		})
		return
	}

	logger.Info("user mirrored to backend", map[string]any{
		"user_id":         user.ID,
		"backend_user_id": backendID,
	})
}
