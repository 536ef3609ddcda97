package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// Meta carries the request attribution attached to audit entries.
type Meta struct {
	IPAddress *string
	UserAgent string
}

// Entry is the input for one audit record.
type Entry struct {
	IdentityID *uuid.UUID
	Action     enums.AuditAction
	Details    map[string]any
	IPAddress  *string
	UserAgent  string
}

// LogDTO is the transport shape for an audit record.
type LogDTO struct {
	ID         uuid.UUID         `json:"id"`
	IdentityID *uuid.UUID        `json:"identity_id,omitempty"`
	Action     enums.AuditAction `json:"action"`
	Details    map[string]any    `json:"details,omitempty"`
	IPAddress  *string           `json:"ip_address,omitempty"`
	UserAgent  string            `json:"user_agent,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// ListFilter narrows an audit listing. Zero values mean "no filter".
type ListFilter struct {
	IdentityID *uuid.UUID
	Action     *enums.AuditAction
	Since      *time.Time
	Until      *time.Time
}

// Page is one page of audit records plus the cursor for the next one.
type Page struct {
	Logs       []LogDTO `json:"logs"`
	NextCursor string   `json:"next_cursor,omitempty"`
}

func (e Entry) toModel() (*models.AuditLog, error) {
	details := e.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return nil, err
	}

	return &models.AuditLog{
		IdentityID: e.IdentityID,
		Action:     e.Action,
		Details:    raw,
		IPAddress:  e.IPAddress,
		UserAgent:  e.UserAgent,
	}, nil
}

// FromModel converts a stored audit record into its transport shape.
func FromModel(log *models.AuditLog) *LogDTO {
	if log == nil {
		return nil
	}

	var details map[string]any
	if len(log.Details) > 0 {
		// details were marshalled on write; a decode failure leaves them out
		_ = json.Unmarshal(log.Details, &details)
	}

	return &LogDTO{
		ID:         log.ID,
		IdentityID: log.IdentityID,
		Action:     log.Action,
		Details:    details,
		IPAddress:  log.IPAddress,
		UserAgent:  log.UserAgent,
		CreatedAt:  log.CreatedAt,
	}
}
