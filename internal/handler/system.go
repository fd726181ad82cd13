package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/svc"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/types"
)

func systemStatusHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := svcCtx.Window.Status(r.Context(), svcCtx.Clock.Now())
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, st)
	}
}

func operatingHoursHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sched, err := svcCtx.Window.Schedule(r.Context())
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, sched)
	}
}

func adminScheduleHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sched, err := svcCtx.Window.Schedule(r.Context())
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		httpx.OkJsonCtx(r.Context(), w, sched)
	}
}

func updateOperatingHoursHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.UpdateHoursRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		adminID, _ := adminIDFromRequest(r)
		err := svcCtx.Window.UpdateHours(r.Context(), windowUpdateInput(req, adminID))
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		httpx.OkJsonCtx(r.Context(), w, &types.OkResponse{Success: true, Message: "operating hours updated"})
	}
}

func toggleSystemHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ToggleRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		adminID, _ := adminIDFromRequest(r)

		var err error
		switch req.Status {
		case "auto":
			err = svcCtx.Window.ClearOverride(r.Context(), adminID)
		case "open", "closed":
			err = svcCtx.Window.SetOverride(r.Context(), windowOverrideInput(req, adminID))
		default:
			httpx.ErrorCtx(r.Context(), w, invalidToggleStatus())
			return
		}
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		httpx.OkJsonCtx(r.Context(), w, &types.OkResponse{Success: true, Message: "system status updated"})
	}
}

func auditLogHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.AuditLogRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		entries, err := svcCtx.Window.AuditLog(r.Context(), req.Limit, req.Offset)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}

		resp := &types.AuditLogResponse{Limit: req.Limit, Offset: req.Offset}
		for _, e := range entries {
			resp.Entries = append(resp.Entries, types.AuditEntry{
				ID:        e.ID,
				AdminID:   e.AdminID.Int64,
				Action:    e.Action,
				OldValue:  e.OldValue,
				NewValue:  e.NewValue,
				Reason:    e.Reason,
				Timestamp: e.Timestamp.Format(timeLayout),
			})
		}
		httpx.OkJsonCtx(r.Context(), w, resp)
	}
}
