package controllers

import (
	"net/http"
	"time"

	"github.com/iuiualumni/alumni-backend/api/middleware"
	"github.com/iuiualumni/alumni-backend/internal/audit"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
)

const dateLayout = "2006-01-02"

// requestMeta captures the caller attribution attached to audit entries.
func requestMeta(r *http.Request) audit.Meta {
	meta := audit.Meta{UserAgent: r.UserAgent()}
	if ip := middleware.ClientIP(r); ip != "" {
		meta.IPAddress = &ip
	}
	return meta
}

// parseDateParam reads an optional YYYY-MM-DD value. Empty input returns nil.
func parseDateParam(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date must be YYYY-MM-DD").WithDetails(map[string]any{"field": field})
	}
	parsed = parsed.UTC()
	return &parsed, nil
}
