package leadership

import (
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// PositionDTO is the transport shape for a catalog position.
type PositionDTO struct {
	ID           uuid.UUID          `json:"id"`
	Code         enums.PositionCode `json:"code"`
	Title        string             `json:"title"`
	Description  string             `json:"description,omitempty"`
	DisplayOrder int                `json:"display_order"`
	IsActive     bool               `json:"is_active"`
}

// AssignmentDTO is the transport shape for one position occupancy.
type AssignmentDTO struct {
	ID         uuid.UUID              `json:"id"`
	IdentityID uuid.UUID              `json:"identity_id"`
	PositionID uuid.UUID              `json:"position_id"`
	Position   *PositionDTO           `json:"position,omitempty"`
	Status     enums.AssignmentStatus `json:"status"`
	StartedOn  time.Time              `json:"started_on"`
	EndedOn    *time.Time             `json:"ended_on,omitempty"`
	Notes      string                 `json:"notes,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

// PromoteInput is the payload for assigning an identity to a position.
type PromoteInput struct {
	IdentityID uuid.UUID
	Position   enums.PositionCode
	StartedOn  *time.Time
	Notes      string
}

// DemoteInput is the payload for ending an identity's active assignment.
// Position is optional; when set, the demotion only applies if the active
// assignment is for that position.
type DemoteInput struct {
	IdentityID uuid.UUID
	Position   *enums.PositionCode
	EndedOn    *time.Time
	Notes      string
}

// RosterEntry pairs a position with its current holder, if any.
type RosterEntry struct {
	Position   PositionDTO    `json:"position"`
	Assignment *AssignmentDTO `json:"assignment,omitempty"`
}

// PositionFromModel converts a stored position into its transport shape.
func PositionFromModel(position *models.LeadershipPosition) *PositionDTO {
	if position == nil {
		return nil
	}
	return &PositionDTO{
		ID:           position.ID,
		Code:         position.Code,
		Title:        position.Code.DisplayTitle(),
		Description:  position.Description,
		DisplayOrder: position.DisplayOrder,
		IsActive:     position.IsActive,
	}
}

// AssignmentFromModel converts a stored assignment into its transport shape.
func AssignmentFromModel(assignment *models.LeadershipAssignment) *AssignmentDTO {
	if assignment == nil {
		return nil
	}
	return &AssignmentDTO{
		ID:         assignment.ID,
		IdentityID: assignment.IdentityID,
		PositionID: assignment.PositionID,
		Position:   PositionFromModel(assignment.Position),
		Status:     assignment.Status,
		StartedOn:  assignment.StartedOn,
		EndedOn:    assignment.EndedOn,
		Notes:      assignment.Notes,
		CreatedAt:  assignment.CreatedAt,
	}
}
