// Package identity implements account credentials and token issuance. It
// plays the role of the external identity provider: the auth service only
// talks to the Provider interface, so the backing implementation can be
// swapped without touching the rest of the application.
package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"inkwell/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	issuer          = "inkwell-identity"
	idTokenAudience = "inkwell-api"
	sessionAudience = "inkwell-client"

	idTokenTTL      = time.Hour
	sessionTokenTTL = 7 * 24 * time.Hour

	minPasswordLen = 6
)

// Credential is the account record backing the provider. Passwords are
// stored as bcrypt hashes; TokensValidAfter is the session revocation
// watermark (tokens issued before it fail verification).
type Credential struct {
	UID              string     `gorm:"primaryKey;size:36"`
	Email            string     `gorm:"uniqueIndex;not null"`
	PasswordHash     string     `gorm:"not null"`
	DisplayName      string
	EmailVerified    bool
	TokensValidAfter *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IdentityToken is a decoded, verified identity token.
type IdentityToken struct {
	UID           string
	Email         string
	Name          string
	EmailVerified bool
	IssuedAt      time.Time
}

// Provider issues and verifies tokens for user accounts.
type Provider interface {
	// SignIn authenticates email/password credentials and returns a fresh
	// identity token.
	SignIn(ctx context.Context, email, password string) (string, error)
	// CreateUser registers a new account and returns an identity token for
	// it. Duplicate emails fail here, before any profile is written.
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	// VerifyIDToken validates an identity token and returns its claims.
	VerifyIDToken(ctx context.Context, idToken string) (*IdentityToken, error)
	// CustomToken issues a session token for client-side use.
	CustomToken(ctx context.Context, uid string) (string, error)
	// RevokeSessions invalidates every token previously issued for the uid.
	RevokeSessions(ctx context.Context, uid string) error
}

type identityClaims struct {
	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	// IssuedAtNano is a private claim carrying the issue time at nanosecond
	// precision. The registered iat claim only has second granularity, which
	// is too coarse to order token issuance against a revocation watermark.
	IssuedAtNano int64 `json:"iatn,omitempty"`
	jwt.RegisteredClaims
}

// LocalProvider is a Provider backed by the application database and HS256
// tokens.
type LocalProvider struct {
	db     *gorm.DB
	secret []byte
}

// NewLocalProvider creates a provider using the given database handle and
// signing secret.
func NewLocalProvider(db *gorm.DB, secret string) *LocalProvider {
	return &LocalProvider{db: db, secret: []byte(secret)}
}

func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	var cred Credential
	err := p.db.WithContext(ctx).Where("email = ?", strings.ToLower(email)).First(&cred).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", models.NewUnauthenticatedError("Invalid credentials")
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", models.NewUnauthenticatedError("Invalid credentials")
	}

	return p.issueIDToken(&cred)
}

func (p *LocalProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", models.NewValidationError("A valid email is required")
	}
	if len(password) < minPasswordLen {
		return "", models.NewValidationError(fmt.Sprintf("Password must be at least %d characters", minPasswordLen))
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&Credential{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return "", err
	}
	if count > 0 {
		return "", models.NewConflictError("Email already in use")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.NewInternalError(err)
	}

	cred := Credential{
		UID:          uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  displayName,
	}
	if err := p.db.WithContext(ctx).Create(&cred).Error; err != nil {
		return "", err
	}

	return p.issueIDToken(&cred)
}

func (p *LocalProvider) VerifyIDToken(ctx context.Context, idToken string) (*IdentityToken, error) {
	claims := &identityClaims{}
	token, err := jwt.ParseWithClaims(idToken, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithAudience(idTokenAudience), jwt.WithIssuedAt())
	if err != nil || !token.Valid {
		return nil, models.NewUnauthenticatedError("Invalid or expired token")
	}

	uid := claims.Subject
	if uid == "" {
		return nil, models.NewUnauthenticatedError("Invalid token claims")
	}

	var cred Credential
	err = p.db.WithContext(ctx).First(&cred, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NewUnauthenticatedError("Account not found")
	}
	if err != nil {
		return nil, err
	}

	issuedAt := claims.IssuedAt.Time
	if claims.IssuedAtNano != 0 {
		issuedAt = time.Unix(0, claims.IssuedAtNano)
	}
	if cred.TokensValidAfter != nil && issuedAt.Before(*cred.TokensValidAfter) {
		return nil, models.NewUnauthenticatedError("Token has been revoked")
	}

	return &IdentityToken{
		UID:           cred.UID,
		Email:         claims.Email,
		Name:          claims.Name,
		EmailVerified: claims.EmailVerified,
		IssuedAt:      issuedAt,
	}, nil
}

func (p *LocalProvider) CustomToken(ctx context.Context, uid string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   uid,
		Issuer:    issuer,
		Audience:  jwt.ClaimStrings{sessionAudience},
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ID:        uuid.NewString(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}

// RevokeSessions moves the revocation watermark to now. Every token issued
// before the watermark fails verification; tokens issued afterwards are
// unaffected.
func (p *LocalProvider) RevokeSessions(ctx context.Context, uid string) error {
	validAfter := time.Now()
	res := p.db.WithContext(ctx).Model(&Credential{}).
		Where("uid = ?", uid).
		Update("tokens_valid_after", validAfter)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Account not found")
	}
	return nil
}

func (p *LocalProvider) issueIDToken(cred *Credential) (string, error) {
	now := time.Now()
	claims := identityClaims{
		Email:         cred.Email,
		Name:          cred.DisplayName,
		EmailVerified: cred.EmailVerified,
		IssuedAtNano:  now.UnixNano(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   cred.UID,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{idTokenAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(idTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
}
