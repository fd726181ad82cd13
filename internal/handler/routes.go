package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/svc"
)

// RegisterHandlers wires every route in spec.md §6's HTTP surface onto
// server, following the goctl-generated routes.go convention: one
// server.AddRoutes call per group, grouped by shared middleware and
// rest.WithPrefix("/api").
func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodPost, Path: "/auth/qr/generate", Handler: generateQRHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/auth/qr/scan", Handler: scanQRHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/auth/pin/verify", Handler: verifyPinHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/auth/validate-session", Handler: validateSessionHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/auth/logout", Handler: logoutHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/system/status", Handler: systemStatusHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/system/operating-hours", Handler: operatingHoursHandler(svcCtx)},
			{Method: http.MethodGet, Path: "/system/ws", Handler: statusWebSocketHandler(svcCtx)},
			{Method: http.MethodPost, Path: "/admin/login", Handler: adminLoginHandler(svcCtx)},
		},
		rest.WithPrefix("/api"),
	)

	server.AddRoutes(
		[]rest.Route{
			{Method: http.MethodGet, Path: "/admin/system/schedule", Handler: svcCtx.AdminAuthMW.Required(adminScheduleHandler(svcCtx))},
			{Method: http.MethodGet, Path: "/admin/system/audit-log", Handler: svcCtx.AdminAuthMW.Required(auditLogHandler(svcCtx))},
			{Method: http.MethodPut, Path: "/admin/system/operating-hours", Handler: svcCtx.AdminAuthMW.RequireSuperAdmin(updateOperatingHoursHandler(svcCtx))},
			{Method: http.MethodPost, Path: "/admin/system/toggle", Handler: svcCtx.AdminAuthMW.RequireSuperAdmin(toggleSystemHandler(svcCtx))},
		},
		rest.WithPrefix("/api"),
	)
}
