// Package adminauth issues and validates the bearer tokens that gate the
// /admin/* routes, kept deliberately separate from internal/session's
// end-user bearer tokens since the two carry different claims and are
// never interchangeable (spec.md §6-7).
package adminauth

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/repository"
)

// DefaultTTL is the admin session lifetime absent an override.
const DefaultTTL = 8 * time.Hour

// Claims is the admin bearer token payload, grounded on
// shared/middleware/auth.go's JWTClaims shape, carrying a role instead of
// an email since that is what admin routes gate on.
type Claims struct {
	AdminID  int64  `json:"admin_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Issuer signs admin bearer tokens and authenticates admin logins.
type Issuer struct {
	repo   repository.AdminsRepository
	clock  clockid.Source
	secret []byte
	ttl    time.Duration
}

// New builds an Issuer. ttl defaults to DefaultTTL when zero.
func New(repo repository.AdminsRepository, clock clockid.Source, secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{repo: repo, clock: clock, secret: []byte(secret), ttl: ttl}
}

// LoginResult is returned on a successful Login.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Admin     *model.Admin
}

// Login checks username/password against the admins table and, on
// success, mints a bearer token carrying the admin's role.
func (i *Issuer) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	admin, err := i.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load admin")
	}
	if admin == nil {
		return nil, apierr.New(apierr.Unauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, apierr.New(apierr.Unauthorized, "invalid credentials")
	}

	now := i.clock.Now()
	expiresAt := now.Add(i.ttl)
	claims := &Claims{
		AdminID:  admin.ID,
		Username: admin.Username,
		Role:     admin.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "authbroker-admin",
			Subject:   admin.Username,
		},
	}
	signed := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := signed.SignedString(i.secret)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to issue admin session")
	}

	return &LoginResult{Token: token, ExpiresAt: expiresAt, Admin: admin}, nil
}

// Validate checks an admin bearer token's signature and expiry.
func (i *Issuer) Validate(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.clock.Now))
	if err != nil || !parsed.Valid {
		return nil, apierr.New(apierr.Unauthorized, "invalid or expired admin session")
	}
	return &claims, nil
}
