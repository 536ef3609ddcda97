package committees

import (
	"time"

	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
)

// CommitteeDTO is the transport shape for a committee.
type CommitteeDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description,omitempty"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// MembershipDTO is the transport shape for one identity's participation in a
// committee.
type MembershipDTO struct {
	ID          uuid.UUID              `json:"id"`
	IdentityID  uuid.UUID              `json:"identity_id"`
	CommitteeID uuid.UUID              `json:"committee_id"`
	Committee   *CommitteeDTO          `json:"committee,omitempty"`
	RoleLabel   string                 `json:"role_label"`
	Status      enums.MembershipStatus `json:"status"`
	StartedOn   time.Time              `json:"started_on"`
	EndedOn     *time.Time             `json:"ended_on,omitempty"`
}

// CreateCommitteeDTO is the payload for adding a committee to the catalog.
type CreateCommitteeDTO struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	DisplayOrder int    `json:"display_order"`
}

// JoinInput is the payload for adding an identity to a committee.
type JoinInput struct {
	IdentityID  uuid.UUID
	CommitteeID uuid.UUID
	RoleLabel   string
	StartedOn   *time.Time
}

// LeaveInput is the payload for ending a committee membership.
type LeaveInput struct {
	IdentityID  uuid.UUID
	CommitteeID uuid.UUID
	EndedOn     *time.Time
}

// ReactivateInput restarts an ended membership on its existing row.
type ReactivateInput struct {
	IdentityID  uuid.UUID
	CommitteeID uuid.UUID
	RoleLabel   string
	StartedOn   *time.Time
}

// CommitteeFromModel converts a stored committee into its transport shape.
func CommitteeFromModel(committee *models.Committee) *CommitteeDTO {
	if committee == nil {
		return nil
	}
	return &CommitteeDTO{
		ID:           committee.ID,
		Name:         committee.Name,
		Slug:         committee.Slug,
		Description:  committee.Description,
		DisplayOrder: committee.DisplayOrder,
		IsActive:     committee.IsActive,
		CreatedAt:    committee.CreatedAt,
	}
}

// MembershipFromModel converts a stored membership into its transport shape.
func MembershipFromModel(membership *models.CommitteeMembership) *MembershipDTO {
	if membership == nil {
		return nil
	}
	return &MembershipDTO{
		ID:          membership.ID,
		IdentityID:  membership.IdentityID,
		CommitteeID: membership.CommitteeID,
		Committee:   CommitteeFromModel(membership.Committee),
		RoleLabel:   membership.RoleLabel,
		Status:      membership.Status,
		StartedOn:   membership.StartedOn,
		EndedOn:     membership.EndedOn,
	}
}
