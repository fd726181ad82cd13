package svc

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/adminauth"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/broadcast"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/clockid"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/config"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/middleware"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/orchestrator"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/qrsession"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/ratelimit"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/repository"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/session"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/sweeper"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/window"
)

// ServiceContext wires every component and repository into the handlers,
// following the teacher's servicecontext.NewServiceContext shape (DB
// connect + repository construction inline), extended with the
// Redis-backed cache, the broadcaster's Run loop, and the rate limiter.
type ServiceContext struct {
	Config config.Config

	DB    *sqlx.DB
	Redis *redis.Client

	Clock       clockid.Source
	Broadcaster *broadcast.Broadcaster
	Window      *window.Controller
	Limiter     *ratelimit.Limiter
	Orchestrator *orchestrator.Orchestrator
	Sweeper      *sweeper.Sweeper

	AdminAuth     *adminauth.Issuer
	AdminAuthMW   *middleware.AdminAuth
}

// NewServiceContext connects to Postgres and Redis, builds every
// repository and component, and returns the fully wired context.
func NewServiceContext(c config.Config) *ServiceContext {
	db, err := sqlx.Connect("postgres", c.DataSource)
	if err != nil {
		panic(err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     addr(c.Redis.Host, c.Redis.Port),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})

	base := repository.NewBaseRepository(db)
	scheduleRepo := repository.NewScheduleRepository(base)
	qrRepo := repository.NewQRSessionRepository(base)
	loginHistoryRepo := repository.NewLoginHistoryRepository(base)
	servicesRepo := repository.NewServicesRepository(base)
	usersRepo := repository.NewUsersRepository(base)
	adminsRepo := repository.NewAdminsRepository(base)

	clock := clockid.New()

	bus := broadcast.New()
	go bus.Run()

	win := window.New(scheduleRepo, clock, bus)

	limiter := ratelimit.New(clock, mergeRateLimitConfig(c.RateLimit))

	cache := session.NewRedisCache(redisClient)
	sessions := session.New(loginHistoryRepo, cache, clock, c.Auth.Secret, time.Duration(c.Auth.TTLSeconds)*time.Second)

	qrStore := qrsession.New(qrRepo, clock, qrsession.DefaultTTL)

	orch := orchestrator.New(clock, win, limiter, qrStore, sessions, servicesRepo, usersRepo)

	adminIssuer := adminauth.New(adminsRepo, clock, c.AdminAuth.Secret, time.Duration(c.AdminAuth.TTLSeconds)*time.Second)

	sweep := sweeper.New(qrRepo, loginHistoryRepo, clock)

	logx.Infof("authbroker: service context wired, data source=%s", redactDSN(c.DataSource))

	return &ServiceContext{
		Config:       c,
		DB:           db,
		Redis:        redisClient,
		Clock:        clock,
		Broadcaster:  bus,
		Window:       win,
		Limiter:      limiter,
		Orchestrator: orch,
		Sweeper:      sweep,
		AdminAuth:    adminIssuer,
		AdminAuthMW:  middleware.NewAdminAuth(adminIssuer),
	}
}

func addr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}

// redactDSN avoids ever logging a credential embedded in the connection
// string.
func redactDSN(dsn string) string {
	if len(dsn) > 16 {
		return dsn[:8] + "...(redacted)"
	}
	return "(redacted)"
}

func mergeRateLimitConfig(c config.RateLimitConfig) map[ratelimit.Class]ratelimit.Config {
	defaults := ratelimit.DefaultConfigs()
	apply := func(class ratelimit.Class, max, windowSeconds int) {
		if max <= 0 || windowSeconds <= 0 {
			return
		}
		defaults[class] = ratelimit.Config{MaxRequests: max, Window: time.Duration(windowSeconds) * time.Second}
	}
	apply(ratelimit.Login, c.LoginMaxRequests, c.LoginWindowSeconds)
	apply(ratelimit.Register, c.RegisterMaxRequests, c.RegisterWindowSeconds)
	apply(ratelimit.QR, c.QRMaxRequests, c.QRWindowSeconds)
	apply(ratelimit.InvitationVerify, c.InvitationVerifyMaxRequests, c.InvitationVerifyWindowSeconds)
	apply(ratelimit.InterestSubmit, c.InterestSubmitMaxRequests, c.InterestSubmitWindowSeconds)
	return defaults
}
