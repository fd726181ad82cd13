package handler

import (
	"net/http"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/apierr"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/middleware"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/types"
	"github.com/whytehoux-projecty/Registration-Login-System/internal/window"
)

// adminIDFromRequest reads the admin id the AdminAuth middleware attached
// to the request context. Every route that calls this is already behind
// that middleware, so a miss here would indicate a routing mistake rather
// than an unauthenticated caller.
func adminIDFromRequest(r *http.Request) (int64, bool) {
	return middleware.AdminIDFromContext(r.Context())
}

func windowUpdateInput(req types.UpdateHoursRequest, adminID int64) window.UpdateHoursInput {
	return window.UpdateHoursInput{
		OpeningHour:    req.OpeningHour,
		OpeningMinute:  req.OpeningMinute,
		ClosingHour:    req.ClosingHour,
		ClosingMinute:  req.ClosingMinute,
		WarningMinutes: req.WarningMinutes,
		Timezone:       req.Timezone,
		AdminID:        adminID,
	}
}

func windowOverrideInput(req types.ToggleRequest, adminID int64) window.SetOverrideInput {
	return window.SetOverrideInput{
		Status:          req.Status,
		Reason:          req.Reason,
		DurationMinutes: req.DurationMinutes,
		AdminID:         adminID,
	}
}

func invalidToggleStatus() error {
	return apierr.New(apierr.ValidationError, "status must be one of open, closed, auto")
}
