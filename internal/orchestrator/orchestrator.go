// Package orchestrator wires the Clock/ID source, Window Controller, Rate
// Limiter, QR Session Store, and Session Issuer into the Auth
// Orchestrator's five operations (spec.md §4.6). Components never emit
// HTTP; the orchestrator returns typed *apierr.Error values that only the
// Boundary Adapter translates into status codes.
package orchestrator

import (
	"context"
	"crypto/subtle"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/qrsession"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/ratelimit"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/repository"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/session"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/window"
	"github.com/whytehoux-projecty/Registration-Login-System/pkg/qrcode"
)

// Orchestrator is the C6 component: the sole caller of C1-C5's mutating
// operations, and the sole producer of the five external operations
// listed in spec.md §6's HTTP surface.
type Orchestrator struct {
	clock     clockid.Source
	window    *window.Controller
	limiter   *ratelimit.Limiter
	qr        *qrsession.Store
	sessions  *session.Issuer
	services  repository.ServicesRepository
	users     repository.UsersRepository
}

// New wires the components into an Orchestrator.
func New(
	clock clockid.Source,
	win *window.Controller,
	limiter *ratelimit.Limiter,
	qr *qrsession.Store,
	sessions *session.Issuer,
	services repository.ServicesRepository,
	users repository.UsersRepository,
) *Orchestrator {
	return &Orchestrator{
		clock:    clock,
		window:   win,
		limiter:  limiter,
		qr:       qr,
		sessions: sessions,
		services: services,
		users:    users,
	}
}

// GenerateResult is returned by GenerateQR.
type GenerateResult struct {
	Token             string `json:"qr_token"`
	QRImage           string `json:"qr_image"`
	ExpiresInSeconds  int    `json:"expires_in_seconds"`
}

// GenerateQR gates by the qr rate limit, then the window, then checks the
// requesting service, then creates a CREATED row and renders its QR
// image (spec.md §4.6).
func (o *Orchestrator) GenerateQR(ctx context.Context, clientIP string, serviceID int64, apiKey string) (*GenerateResult, error) {
	if err := o.limiter.Check(ratelimit.QR, clientIP); err != nil {
		return nil, err
	}

	open, err := o.window.IsOpen(ctx, o.clock.Now())
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, apierr.New(apierr.ServiceClosed, "service is currently closed")
	}

	svc, err := o.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load service")
	}
	if svc == nil || !svc.IsActive || subtle.ConstantTimeCompare([]byte(svc.APIKey), []byte(apiKey)) != 1 {
		return nil, apierr.New(apierr.InvalidService, "unknown service or invalid api key")
	}

	token, expiresAt, err := o.qr.Create(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	image, err := qrcode.DataURI(token)
	if err != nil {
		logx.Errorf("orchestrator: qr render failed: %v", err)
		return nil, apierr.New(apierr.Internal, "failed to render qr image")
	}

	return &GenerateResult{
		Token:            token,
		QRImage:          image,
		ExpiresInSeconds: int(expiresAt.Sub(o.clock.Now()).Seconds()),
	}, nil
}

// ScanResult is returned by Scan.
type ScanResult struct {
	Success bool   `json:"success"`
	PIN     string `json:"pin"`
	Message string `json:"message"`
}

// Scan gates by the qr rate limit and the window, checks the scanning
// user is active, then performs the CREATED->SCANNED transition.
func (o *Orchestrator) Scan(ctx context.Context, clientIP, token, userAuthKey string) (*ScanResult, error) {
	if err := o.limiter.Check(ratelimit.QR, clientIP); err != nil {
		return nil, err
	}

	open, err := o.window.IsOpen(ctx, o.clock.Now())
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, apierr.New(apierr.ServiceClosed, "service is currently closed")
	}

	user, err := o.users.GetByAuthKey(ctx, userAuthKey)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load user")
	}
	if user == nil || !user.IsActive {
		return nil, apierr.New(apierr.InvalidUser, "unknown or inactive user")
	}

	pin, err := o.qr.Scan(ctx, token, userAuthKey)
	if err != nil {
		return nil, err
	}

	return &ScanResult{Success: true, PIN: pin, Message: "scan recorded"}, nil
}

// VerifyResult is returned by Verify.
type VerifyResult struct {
	Success          bool       `json:"success"`
	SessionToken     string     `json:"session_token"`
	UserInfo         *UserInfo  `json:"user_info"`
	ExpiresInSeconds int        `json:"expires_in_seconds"`
}

// UserInfo is the subset of the Active User entity exposed to relying
// services on a successful verify or validate.
type UserInfo struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Verify gates by the login rate limit and the window, performs the
// SCANNED->VERIFIED transition, then issues a bearer session for the
// scanned user (spec.md §4.6).
func (o *Orchestrator) Verify(ctx context.Context, clientIP, userAgent, token, pin string) (*VerifyResult, error) {
	if err := o.limiter.Check(ratelimit.Login, clientIP); err != nil {
		return nil, err
	}

	open, err := o.window.IsOpen(ctx, o.clock.Now())
	if err != nil {
		return nil, err
	}
	if !open {
		return nil, apierr.New(apierr.ServiceClosed, "service is currently closed")
	}

	verified, err := o.qr.Verify(ctx, token, pin)
	if err != nil {
		return nil, err
	}

	user, err := o.users.GetByAuthKey(ctx, verified.UserAuthKey)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load user")
	}
	if user == nil || !user.IsActive {
		return nil, apierr.New(apierr.InvalidUser, "unknown or inactive user")
	}

	sessionToken, expiresAt, err := o.sessions.Issue(ctx, session.IssueInput{
		UserID:    user.ID,
		AuthKey:   user.AuthKey,
		ServiceID: verified.ServiceID,
		ClientIP:  clientIP,
		UserAgent: userAgent,
	})
	if err != nil {
		return nil, err
	}

	if err := o.users.UpdateLastLogin(ctx, user.ID, verified.VerifiedAt); err != nil {
		logx.Errorf("orchestrator: failed to update last_login for user %d: %v", user.ID, err)
	}

	return &VerifyResult{
		Success:          true,
		SessionToken:     sessionToken,
		UserInfo:         &UserInfo{UserID: user.ID, Username: user.Username},
		ExpiresInSeconds: int(expiresAt.Sub(o.clock.Now()).Seconds()),
	}, nil
}

// ValidateResult is returned by ValidateSession.
type ValidateResult struct {
	Valid     bool      `json:"valid"`
	UserID    int64     `json:"user_id,omitempty"`
	Username  string    `json:"username,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// ValidateSession checks a bearer token's signature, revocation status,
// and expiry, and confirms the referenced user is still active.
func (o *Orchestrator) ValidateSession(ctx context.Context, token string) (*ValidateResult, error) {
	result, err := o.sessions.Validate(ctx, token)
	if err != nil {
		return &ValidateResult{Valid: false}, nil
	}

	user, err := o.users.GetByID(ctx, result.UserID)
	if err != nil {
		return nil, apierr.New(apierr.Internal, "failed to load user")
	}
	if user == nil || !user.IsActive {
		return &ValidateResult{Valid: false}, nil
	}

	return &ValidateResult{Valid: true, UserID: user.ID, Username: user.Username}, nil
}

// LogoutResult is returned by Logout.
type LogoutResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Logout invalidates a bearer session.
func (o *Orchestrator) Logout(ctx context.Context, token string) (*LogoutResult, error) {
	if err := o.sessions.Logout(ctx, token); err != nil {
		return nil, err
	}
	return &LogoutResult{Success: true, Message: "logged out"}, nil
}
