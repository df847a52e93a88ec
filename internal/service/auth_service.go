// Package service contains the application's business logic.
package service

import (
	"context"
	"strings"

	"inkwell/internal/identity"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
)

// AuthSession is the result of a successful login or signup: the profile,
// the identity token for API calls, and a session token for the client.
type AuthSession struct {
	User        *models.UserProfile `json:"user"`
	IDToken     string              `json:"idToken"`
	CustomToken string              `json:"customToken"`
}

// AuthService exchanges credentials for tokens and keeps the local profile
// mirror in sync with the identity provider.
type AuthService struct {
	provider identity.Provider
	users    repository.UserRepository
}

// NewAuthService creates an AuthService with the given provider and user
// repository.
func NewAuthService(provider identity.Provider, users repository.UserRepository) *AuthService {
	return &AuthService{provider: provider, users: users}
}

// Login authenticates credentials, lazily creating the profile mirror on
// first login and refreshing LastLoginAt on every subsequent one.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthSession, error) {
	idToken, err := s.provider.SignIn(ctx, email, password)
	if err != nil {
		middleware.AuthFailures.WithLabelValues("login").Inc()
		return nil, err
	}

	tok, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByUID(ctx, tok.UID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = profileFromToken(tok)
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	} else {
		if err := s.users.UpdateLastLogin(ctx, tok.UID); err != nil {
			return nil, err
		}
	}

	customToken, err := s.provider.CustomToken(ctx, tok.UID)
	if err != nil {
		return nil, err
	}

	return &AuthSession{User: user, IDToken: idToken, CustomToken: customToken}, nil
}

// Signup registers a new account and creates its profile unconditionally;
// duplicate emails already failed at the provider.
func (s *AuthService) Signup(ctx context.Context, email, password, displayName string) (*AuthSession, error) {
	idToken, err := s.provider.CreateUser(ctx, email, password, displayName)
	if err != nil {
		return nil, err
	}

	tok, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	user := profileFromToken(tok)
	if user.DisplayName == "" {
		user.DisplayName = displayName
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	customToken, err := s.provider.CustomToken(ctx, tok.UID)
	if err != nil {
		return nil, err
	}

	return &AuthSession{User: user, IDToken: idToken, CustomToken: customToken}, nil
}

// Logout revokes every session for the uid, not just the caller's.
func (s *AuthService) Logout(ctx context.Context, uid string) error {
	return s.provider.RevokeSessions(ctx, uid)
}

// VerifyToken validates an identity token and requires a matching profile
// to exist. A cryptographically valid token without a profile is treated
// as unauthorized: authorization is tied to profile presence.
func (s *AuthService) VerifyToken(ctx context.Context, idToken string) (*models.UserProfile, error) {
	tok, err := s.provider.VerifyIDToken(ctx, idToken)
	if err != nil {
		middleware.AuthFailures.WithLabelValues("token").Inc()
		return nil, err
	}

	user, err := s.users.GetByUID(ctx, tok.UID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		middleware.AuthFailures.WithLabelValues("profile_missing").Inc()
		return nil, models.NewUnauthenticatedError("User profile not found")
	}

	return user, nil
}

func profileFromToken(tok *identity.IdentityToken) *models.UserProfile {
	displayName := tok.Name
	if displayName == "" {
		// fall back to the mailbox name
		if at := strings.IndexByte(tok.Email, '@'); at > 0 {
			displayName = tok.Email[:at]
		}
	}
	return &models.UserProfile{
		UID:           tok.UID,
		Email:         tok.Email,
		DisplayName:   displayName,
		EmailVerified: tok.EmailVerified,
	}
}
