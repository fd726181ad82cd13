// Package session implements the Session Issuer (spec.md §4.5): bearer
// session issuance/validation and logout, backed by a Postgres login_history
// table and a Redis valid-token-set cache as a fast path ahead of it.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/repository"
)

// DefaultTTL is the bearer session lifetime absent an override.
const DefaultTTL = 30 * time.Minute

// Claims is the JWT payload, grounded on the teacher's TokenClaims shape
// but carrying the fields this domain's validators need.
type Claims struct {
	UserID    int64  `json:"user_id"`
	AuthKey   string `json:"auth_key"`
	ServiceID int64  `json:"service_id"`
	jwt.RegisteredClaims
}

// Cache is the Redis-backed valid-token-set fast path, grounded on
// services/gateway/services/auth/domain/cache.Cache's Sadd/Sismember/Srem
// trio.
type Cache interface {
	AddToValidTokens(ctx context.Context, token string) error
	IsValidAccessToken(ctx context.Context, token string) (bool, error)
	RemoveFromValidTokens(ctx context.Context, token string) error
}

// Issuer creates and validates bearer tokens and records login history.
type Issuer struct {
	repo   repository.LoginHistoryRepository
	cache  Cache
	clock  clockid.Source
	secret []byte
	ttl    time.Duration
}

// New builds an Issuer. secret signs and verifies HS256 tokens; ttl
// defaults to DefaultTTL when zero.
func New(repo repository.LoginHistoryRepository, cache Cache, clock clockid.Source, secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{repo: repo, cache: cache, clock: clock, secret: []byte(secret), ttl: ttl}
}

// IssueInput carries everything Issue needs to mint a token and write the
// login_history row.
type IssueInput struct {
	UserID    int64
	AuthKey   string
	ServiceID int64
	ClientIP  string
	UserAgent string
}

// Issue mints a bearer token for the verified QR session and writes the
// corresponding login_history row. Called from the orchestrator after the
// QR verify transition has committed; the row is written as a separate
// statement, so the two writes are not atomic with each other.
func (s *Issuer) Issue(ctx context.Context, in IssueInput) (token string, expiresAt time.Time, err error) {
	now := s.clock.Now()
	expiresAt = now.Add(s.ttl)

	claims := &Claims{
		UserID:    in.UserID,
		AuthKey:   in.AuthKey,
		ServiceID: in.ServiceID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "authbroker",
		},
	}

	signed := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err = signed.SignedString(s.secret)
	if err != nil {
		logx.Errorf("session: failed to sign token: %v", err)
		return "", time.Time{}, apierr.New(apierr.Internal, "failed to issue session")
	}

	row := &model.LoginHistory{
		UserID:           in.UserID,
		ServiceID:        in.ServiceID,
		SessionToken:     token,
		LoginAt:          now,
		SessionExpiresAt: expiresAt,
		ClientIP:         in.ClientIP,
		UserAgent:        in.UserAgent,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return "", time.Time{}, apierr.New(apierr.Internal, "failed to record login")
	}

	if s.cache != nil {
		if err := s.cache.AddToValidTokens(ctx, token); err != nil {
			logx.Errorf("session: cache add failed, continuing on postgres authority: %v", err)
		}
	}

	return token, expiresAt, nil
}

// ValidateResult is returned on a successful Validate.
type ValidateResult struct {
	UserID    int64
	AuthKey   string
	ServiceID int64
}

// Validate checks a bearer token's signature and expiry, then its
// liveness: the Redis set gives an O(1) fast path, but Postgres's
// logout_at remains authoritative, so a cache miss or cold cache falls
// through to a database check rather than wrongly admitting (or wrongly
// rejecting) a token — a cold cache must never grant access that the
// database would deny, nor deny access for a token the database still
// considers live.
func (s *Issuer) Validate(ctx context.Context, token string) (*ValidateResult, error) {
	claims, err := s.parse(token)
	if err != nil {
		return nil, apierr.New(apierr.InvalidSession, "invalid or expired session")
	}

	if s.cache != nil {
		valid, err := s.cache.IsValidAccessToken(ctx, token)
		if err == nil && valid {
			return &ValidateResult{UserID: claims.UserID, AuthKey: claims.AuthKey, ServiceID: claims.ServiceID}, nil
		}
	}

	row, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load session")
	}
	if row == nil || row.LogoutAt.Valid {
		return nil, apierr.New(apierr.InvalidSession, "session has been logged out")
	}
	now := s.clock.Now()
	if !now.Before(row.SessionExpiresAt) {
		return nil, apierr.New(apierr.InvalidSession, "session expired")
	}

	if s.cache != nil {
		if err := s.cache.AddToValidTokens(ctx, token); err != nil {
			logx.Errorf("session: cache repopulate failed: %v", err)
		}
	}

	return &ValidateResult{UserID: claims.UserID, AuthKey: claims.AuthKey, ServiceID: claims.ServiceID}, nil
}

// Logout marks the session's login_history row as logged out and evicts
// it from the valid-token cache so a subsequent Validate falls through to
// Postgres and observes logout_at immediately, rather than riding a stale
// cache hit.
func (s *Issuer) Logout(ctx context.Context, token string) error {
	if _, err := s.parse(token); err != nil {
		return apierr.New(apierr.InvalidSession, "invalid session")
	}

	now := s.clock.Now()
	affected, err := s.repo.MarkLoggedOut(ctx, token, now)
	if err != nil {
		return apierr.New(apierr.Internal, "failed to record logout")
	}
	if affected == 0 {
		return apierr.New(apierr.InvalidSession, "session not found")
	}

	if s.cache != nil {
		if err := s.cache.RemoveFromValidTokens(ctx, token); err != nil {
			logx.Errorf("session: cache evict on logout failed: %v", err)
		}
	}
	return nil
}

func (s *Issuer) parse(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.clock.Now))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return &claims, nil
}
