package config

import (
	"github.com/zeromicro/go-zero/rest"
)

// Config is loaded by conf.MustLoad from etc/authbroker.yaml, following
// the teacher's non-goctl gateway config shape (rest.RestConf embedding
// plus domain-specific sub-configs) rather than the cache.CacheConf
// convention, since the Redis usage here is a single logical client, not
// a go-zero cache cluster.
type Config struct {
	rest.RestConf
	DataSource  string
	Redis       RedisConfig
	Auth        AuthConfig
	AdminAuth   AdminAuthConfig
	Window      WindowConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	ForwardedForHeader string
}

// RedisConfig configures the valid-access-token-set cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig configures end-user bearer session tokens (C5).
type AuthConfig struct {
	Secret     string
	TTLSeconds int64
}

// AdminAuthConfig configures admin bearer session tokens.
type AdminAuthConfig struct {
	Secret     string
	TTLSeconds int64
}

// WindowConfig holds opening/closing/warning hours in the config file.
// The broker does not read these fields: the system_schedule row is
// seeded by sql/seed_data.go, and runtime state lives in that table.
type WindowConfig struct {
	OpeningHour    int
	OpeningMinute  int
	ClosingHour    int
	ClosingMinute  int
	WarningMinutes int
	Timezone       string
}

// RateLimitConfig overrides any of the five default rate-limit classes;
// zero values fall back to ratelimit.DefaultConfigs().
type RateLimitConfig struct {
	LoginMaxRequests             int
	LoginWindowSeconds           int
	RegisterMaxRequests          int
	RegisterWindowSeconds        int
	QRMaxRequests                int
	QRWindowSeconds              int
	InvitationVerifyMaxRequests  int
	InvitationVerifyWindowSeconds int
	InterestSubmitMaxRequests    int
	InterestSubmitWindowSeconds  int
}

// CORSConfig is the closed allow-list required by spec.md §4.8.
type CORSConfig struct {
	AllowedOrigins []string
}
