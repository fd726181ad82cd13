// Package handler is the Boundary Adapter (C8, spec.md §4.8): it parses
// transport requests, extracts client IP, and maps typed core errors to
// HTTP responses per spec.md §7. It owns no business logic — every
// handler here is a thin httpx.Parse/call/httpx.OkJsonCtx wrapper around
// the orchestrator, grounded on
// services/gateway/growth/internal/handler/goals/createGoalHandler.go's
// shape.
package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/svc"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/types"
)

func generateQRHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.GenerateQRRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		result, err := svcCtx.Orchestrator.GenerateQR(r.Context(), clientIP(svcCtx, r), req.ServiceID, req.ServiceAPIKey)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		httpx.OkJsonCtx(r.Context(), w, &types.GenerateQRResponse{
			Token:            result.Token,
			Image:            result.QRImage,
			ExpiresInSeconds: result.ExpiresInSeconds,
		})
	}
}

func scanQRHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ScanQRRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		result, err := svcCtx.Orchestrator.Scan(r.Context(), clientIP(svcCtx, r), req.Token, req.UserAuthKey)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		httpx.OkJsonCtx(r.Context(), w, &types.ScanQRResponse{
			Success: result.Success,
			PIN:     result.PIN,
			Message: result.Message,
		})
	}
}

func verifyPinHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.VerifyPinRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		result, err := svcCtx.Orchestrator.Verify(r.Context(), clientIP(svcCtx, r), r.UserAgent(), req.Token, req.PIN)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		httpx.OkJsonCtx(r.Context(), w, &types.VerifyPinResponse{
			Success:          result.Success,
			SessionToken:     result.SessionToken,
			UserInfo:         &types.UserInfo{UserID: result.UserInfo.UserID, Username: result.UserInfo.Username},
			ExpiresInSeconds: result.ExpiresInSeconds,
		})
	}
}

func validateSessionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ValidateSessionRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		result, err := svcCtx.Orchestrator.ValidateSession(r.Context(), req.Token)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		resp := &types.ValidateSessionResponse{Valid: result.Valid}
		if result.Valid {
			resp.UserID = result.UserID
			resp.Username = result.Username
			resp.ExpiresAt = result.ExpiresAt.Format(timeLayout)
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}

func logoutHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.LogoutRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		result, err := svcCtx.Orchestrator.Logout(r.Context(), req.Token)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		httpx.OkJsonCtx(r.Context(), w, &types.LogoutResponse{
			Success: result.Success,
			Message: result.Message,
		})
	}
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// clientIP honors a single configured trusted forwarded-for header
// (spec.md §4.8); absent configuration it falls back to RemoteAddr.
func clientIP(svcCtx *svc.ServiceContext, r *http.Request) string {
	if header := svcCtx.Config.ForwardedForHeader; header != "" {
		if v := r.Header.Get(header); v != "" {
			return v
		}
	}
	return r.RemoteAddr
}
