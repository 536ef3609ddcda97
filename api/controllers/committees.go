package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/api/middleware"
	"github.com/iuiualumni/alumni-backend/api/responses"
	"github.com/iuiualumni/alumni-backend/api/validators"
	"github.com/iuiualumni/alumni-backend/internal/committees"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/logger"
)

type createCommitteeRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=255"`
	Description  string `json:"description,omitempty" validate:"omitempty,max=1000"`
	DisplayOrder int    `json:"display_order,omitempty" validate:"omitempty,min=0"`
}

type joinCommitteeRequest struct {
	CommitteeID string `json:"committee_id" validate:"required,uuid"`
	RoleLabel   string `json:"role_label,omitempty" validate:"omitempty,max=100"`
	StartedOn   string `json:"started_on,omitempty"`
}

type leaveCommitteeRequest struct {
	CommitteeID string `json:"committee_id" validate:"required,uuid"`
	EndedOn     string `json:"ended_on,omitempty"`
}

// CommitteeCreate adds a committee to the catalog. Staff only.
func CommitteeCreate(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createCommitteeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := committees.CreateCommitteeDTO{
			Name:         validators.SanitizeString(body.Name, 255),
			Description:  validators.SanitizeString(body.Description, 1000),
			DisplayOrder: body.DisplayOrder,
		}

		result, err := svc.CreateCommittee(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CommitteeList returns the active committee catalog.
func CommitteeList(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListCommittees(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CommitteeBySlug looks a committee up by its URL slug.
func CommitteeBySlug(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.GetCommitteeBySlug(r.Context(), chi.URLParam(r, "slug"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CommitteeJoin enrolls the caller in a committee.
func CommitteeJoin(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body joinCommitteeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		committeeID, err := uuid.Parse(body.CommitteeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid committee id"))
			return
		}
		startedOn, err := parseDateParam(body.StartedOn, "started_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := committees.JoinInput{
			IdentityID:  middleware.IdentityIDFromContext(r.Context()),
			CommitteeID: committeeID,
			RoleLabel:   validators.SanitizeString(body.RoleLabel, 100),
			StartedOn:   startedOn,
		}

		result, err := svc.Join(r.Context(), input, requestMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// CommitteeReactivate revives the caller's ended membership in a committee.
func CommitteeReactivate(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body joinCommitteeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		committeeID, err := uuid.Parse(body.CommitteeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid committee id"))
			return
		}
		startedOn, err := parseDateParam(body.StartedOn, "started_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := committees.ReactivateInput{
			IdentityID:  middleware.IdentityIDFromContext(r.Context()),
			CommitteeID: committeeID,
			RoleLabel:   validators.SanitizeString(body.RoleLabel, 100),
			StartedOn:   startedOn,
		}

		result, err := svc.Reactivate(r.Context(), input, requestMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CommitteeLeave ends the caller's membership in a committee.
func CommitteeLeave(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body leaveCommitteeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		committeeID, err := uuid.Parse(body.CommitteeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid committee id"))
			return
		}
		endedOn, err := parseDateParam(body.EndedOn, "ended_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := committees.LeaveInput{
			IdentityID:  middleware.IdentityIDFromContext(r.Context()),
			CommitteeID: committeeID,
			EndedOn:     endedOn,
		}

		result, err := svc.Leave(r.Context(), input, requestMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CommitteeRoster lists a committee's active members.
func CommitteeRoster(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		committeeID, err := uuid.Parse(chi.URLParam(r, "committeeID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid committee id"))
			return
		}

		result, err := svc.Roster(r.Context(), committeeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// CommitteeMyMemberships lists the caller's memberships, current and past.
func CommitteeMyMemberships(svc committees.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.MembershipsForIdentity(r.Context(), middleware.IdentityIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
