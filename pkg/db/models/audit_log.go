package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// AuditLog is an immutable append-only record of one state-changing action.
// IdentityID is nullable so history survives identity removal.
type AuditLog struct {
	ID         uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	IdentityID *uuid.UUID        `gorm:"column:identity_id;type:uuid;index"`
	Action     enums.AuditAction `gorm:"type:text;not null;index"`
	Details    json.RawMessage   `gorm:"column:details;type:jsonb"`
	IPAddress  *string           `gorm:"column:ip_address"`
	UserAgent  string            `gorm:"column:user_agent"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime;index"`
}
