// Package qrsession implements the QR Session Store & State Machine
// (spec.md §4.4): CREATED -> SCANNED -> VERIFIED, plus the EXPIRED sink
// reachable from either live state once now >= expires_at.
package qrsession

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/model"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/repository"
)

// DefaultTTL is the QR challenge lifetime absent an override.
const DefaultTTL = 120 * time.Second

// Store drives the QR session state machine. Transitions happen only
// through Create/Scan/Verify; expiry is observed, never written.
type Store struct {
	repo  repository.QRSessionRepository
	clock clockid.Source
	ttl   time.Duration
}

// New builds a Store with the given challenge TTL (DefaultTTL if zero).
func New(repo repository.QRSessionRepository, clock clockid.Source, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{repo: repo, clock: clock, ttl: ttl}
}

// Create inserts a fresh CREATED row for serviceID and returns its token
// and expiry. Callers (the orchestrator) are responsible for validating
// the service and the window before calling this.
func (s *Store) Create(ctx context.Context, serviceID int64) (token string, expiresAt time.Time, err error) {
	now := s.clock.Now()
	token = s.clock.NewToken()
	expiresAt = now.Add(s.ttl)

	row := &model.QRSession{
		Token:     token,
		ServiceID: serviceID,
		CreatedAt: now,
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		return "", time.Time{}, apierr.New(apierr.Internal, "failed to create qr session")
	}
	return token, expiresAt, nil
}

// Scan performs the CREATED->SCANNED transition: it stores the scanning
// user's auth key and a freshly generated PIN, returning the PIN for the
// mobile agent to display. The caller (the orchestrator) checks that the
// user is active before calling, so this package stays free of a
// dependency on the user repository.
func (s *Store) Scan(ctx context.Context, token, userAuthKey string) (pin string, err error) {
	row, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return "", apierr.New(apierr.Internal, "failed to load qr session")
	}
	if row == nil {
		return "", apierr.New(apierr.UnknownToken, "unknown token")
	}

	now := s.clock.Now()
	if !now.Before(row.ExpiresAt) {
		return "", apierr.New(apierr.TokenExpired, "qr session expired")
	}
	if row.IsUsed {
		return "", apierr.New(apierr.AlreadyScanned, "qr session already scanned")
	}

	pin = s.clock.NewPIN(6)
	affected, err := s.repo.Scan(ctx, token, userAuthKey, pin, now)
	if err != nil {
		return "", apierr.New(apierr.Internal, "failed to record scan")
	}
	if affected == 0 {
		// Lost the race against a concurrent scan: the guard caught it,
		// not our stale read.
		return "", apierr.New(apierr.AlreadyScanned, "qr session already scanned")
	}
	return pin, nil
}

// VerifiedSession is returned by Verify on success, carrying enough
// context for the orchestrator to issue a bearer session.
type VerifiedSession struct {
	Token       string
	ServiceID   int64
	UserAuthKey string
	VerifiedAt  time.Time
}

// Verify performs the SCANNED->VERIFIED transition: the supplied PIN must
// match the stored one (compared in constant time to avoid a timing
// oracle), and the transition is the sole writer of is_verified for the
// token, guarded by the same conditional-update pattern as Scan.
func (s *Store) Verify(ctx context.Context, token, pin string) (*VerifiedSession, error) {
	row, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load qr session")
	}
	if row == nil {
		return nil, apierr.New(apierr.UnknownToken, "unknown token")
	}

	now := s.clock.Now()
	if !now.Before(row.ExpiresAt) {
		return nil, apierr.New(apierr.TokenExpired, "qr session expired")
	}
	if !row.PIN.Valid {
		return nil, apierr.New(apierr.NotYetScanned, "qr session not yet scanned")
	}
	if row.IsVerified {
		return nil, apierr.New(apierr.AlreadyVerified, "qr session already verified")
	}
	if subtle.ConstantTimeCompare([]byte(row.PIN.String), []byte(pin)) != 1 {
		return nil, apierr.New(apierr.InvalidPin, "incorrect pin")
	}

	affected, err := s.repo.Verify(ctx, token, now)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to record verification")
	}
	if affected == 0 {
		return nil, apierr.New(apierr.AlreadyVerified, "qr session already verified")
	}

	return &VerifiedSession{
		Token:       token,
		ServiceID:   row.ServiceID,
		UserAuthKey: row.UserAuthKey.String,
		VerifiedAt:  now,
	}, nil
}
