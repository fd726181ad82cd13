// Package model holds the row structs persisted by the broker.
package model

import (
	"database/sql"
	"time"
)

// RegisteredService is a relying party allowed to originate QR challenges.
type RegisteredService struct {
	ID          int64     `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	APIKey      string    `db:"api_key" json:"-"`
	CallbackURL string    `db:"callback_url" json:"callback_url"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// ActiveUser is the authenticable principal holding the mobile agent's auth key.
type ActiveUser struct {
	ID        int64        `db:"id" json:"id"`
	Username  string       `db:"username" json:"username"`
	Email     string       `db:"email" json:"email"`
	AuthKey   string       `db:"auth_key" json:"-"`
	IsActive  bool         `db:"is_active" json:"is_active"`
	LastLogin sql.NullTime `db:"last_login" json:"last_login,omitempty"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
}

// QRSession is the central short-lived protocol object described in spec.md §3.
type QRSession struct {
	Token        string         `db:"token" json:"token"`
	ServiceID    int64          `db:"service_id" json:"service_id"`
	UserAuthKey  sql.NullString `db:"user_auth_key" json:"-"`
	PIN          sql.NullString `db:"pin" json:"-"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	ExpiresAt    time.Time      `db:"expires_at" json:"expires_at"`
	IsUsed       bool           `db:"is_used" json:"is_used"`
	IsVerified   bool           `db:"is_verified" json:"is_verified"`
	ScannedAt    sql.NullTime   `db:"scanned_at" json:"scanned_at,omitempty"`
	VerifiedAt   sql.NullTime   `db:"verified_at" json:"verified_at,omitempty"`
}

// LoginHistory records a single bearer session issuance.
type LoginHistory struct {
	ID                int64        `db:"id" json:"id"`
	UserID            int64        `db:"user_id" json:"user_id"`
	ServiceID         int64        `db:"service_id" json:"service_id"`
	SessionToken      string       `db:"session_token" json:"-"`
	LoginAt           time.Time    `db:"login_at" json:"login_at"`
	SessionExpiresAt  time.Time    `db:"session_expires_at" json:"session_expires_at"`
	LogoutAt          sql.NullTime `db:"logout_at" json:"logout_at,omitempty"`
	ClientIP          string       `db:"client_ip" json:"client_ip"`
	UserAgent         string       `db:"user_agent" json:"user_agent"`
}

// SystemSchedule is the singleton row gating authentication attempts.
type SystemSchedule struct {
	ID               int64          `db:"id" json:"id"`
	OpeningHour      int            `db:"opening_hour" json:"opening_hour"`
	OpeningMinute    int            `db:"opening_minute" json:"opening_minute"`
	ClosingHour      int            `db:"closing_hour" json:"closing_hour"`
	ClosingMinute    int            `db:"closing_minute" json:"closing_minute"`
	WarningMinutes   int            `db:"warning_minutes" json:"warning_minutes"`
	Timezone         string         `db:"timezone" json:"timezone"`
	ManualStatus     sql.NullString `db:"manual_status" json:"manual_status,omitempty"`
	OverrideReason   sql.NullString `db:"override_reason" json:"override_reason,omitempty"`
	OverrideExpires  sql.NullTime   `db:"override_expires_at" json:"override_expires_at,omitempty"`
	UpdatedBy        sql.NullInt64  `db:"updated_by" json:"updated_by,omitempty"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// ScheduleAuditEntry is an append-only record of schedule mutations.
type ScheduleAuditEntry struct {
	ID        int64         `db:"id" json:"id"`
	AdminID   sql.NullInt64 `db:"admin_id" json:"admin_id,omitempty"`
	Action    string        `db:"action" json:"action"`
	OldValue  string        `db:"old_value" json:"old_value"`
	NewValue  string        `db:"new_value" json:"new_value"`
	Reason    string        `db:"reason" json:"reason"`
	Timestamp time.Time     `db:"timestamp" json:"timestamp"`
}

// Admin is the minimal collaborator needed to authorize /admin/* routes.
type Admin struct {
	ID           int64     `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         string    `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

const (
	AdminRoleAdmin      = "admin"
	AdminRoleSuperAdmin = "super_admin"
)
