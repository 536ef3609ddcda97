package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/api/responses"
	"github.com/iuiualumni/alumni-backend/api/validators"
	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/logger"
	"github.com/iuiualumni/alumni-backend/pkg/pagination"
)

// AuditList pages through the audit trail, newest first. Staff only.
//
// Query parameters: identity_id, action, since, until (RFC 3339 or
// YYYY-MM-DD), limit, cursor.
func AuditList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := auditFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		result, err := svc.List(r.Context(), filter, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func auditFilterFromQuery(r *http.Request) (audit.ListFilter, error) {
	var filter audit.ListFilter
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("identity_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "invalid identity id").WithDetails(map[string]any{"field": "identity_id"})
		}
		filter.IdentityID = &id
	}

	if raw := strings.TrimSpace(query.Get("action")); raw != "" {
		action := enums.AuditAction(strings.ToUpper(raw))
		if !action.IsValid() {
			return filter, pkgerrors.New(pkgerrors.CodeValidation, "unknown audit action").WithDetails(map[string]any{"field": "action"})
		}
		filter.Action = &action
	}

	since, err := parseTimeQuery(query.Get("since"), "since")
	if err != nil {
		return filter, err
	}
	filter.Since = since

	until, err := parseTimeQuery(query.Get("until"), "until")
	if err != nil {
		return filter, err
	}
	filter.Until = until

	return filter, nil
}

func parseTimeQuery(raw, field string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, dateLayout} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			parsed = parsed.UTC()
			return &parsed, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeValidation, "timestamp must be RFC 3339 or YYYY-MM-DD").WithDetails(map[string]any{"field": field})
}
