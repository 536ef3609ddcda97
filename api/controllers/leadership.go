package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/api/responses"
	"github.com/iuiualumni/alumni-backend/api/validators"
	"github.com/iuiualumni/alumni-backend/internal/leadership"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/logger"
)

type promoteRequest struct {
	IdentityID string `json:"identity_id" validate:"required,uuid"`
	Position   string `json:"position" validate:"required"`
	StartedOn  string `json:"started_on,omitempty"`
	Notes      string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

type demoteRequest struct {
	IdentityID string `json:"identity_id" validate:"required,uuid"`
	Position   string `json:"position,omitempty"`
	EndedOn    string `json:"ended_on,omitempty"`
	Notes      string `json:"notes,omitempty" validate:"omitempty,max=500"`
}

// LeadershipPromote places an identity into a position. Staff only.
func LeadershipPromote(svc leadership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body promoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identityID, err := uuid.Parse(body.IdentityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid identity id"))
			return
		}
		position, err := enums.ParsePositionCode(body.Position)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnknownPosition, err, "unknown position"))
			return
		}
		startedOn, err := parseDateParam(body.StartedOn, "started_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := leadership.PromoteInput{
			IdentityID: identityID,
			Position:   position,
			StartedOn:  startedOn,
			Notes:      validators.SanitizeString(body.Notes, 500),
		}

		result, err := svc.Promote(r.Context(), input, requestMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// LeadershipDemote ends an identity's active assignment. Staff only.
func LeadershipDemote(svc leadership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body demoteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identityID, err := uuid.Parse(body.IdentityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid identity id"))
			return
		}
		endedOn, err := parseDateParam(body.EndedOn, "ended_on")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := leadership.DemoteInput{
			IdentityID: identityID,
			EndedOn:    endedOn,
			Notes:      validators.SanitizeString(body.Notes, 500),
		}
		if body.Position != "" {
			position, err := enums.ParsePositionCode(body.Position)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnknownPosition, err, "unknown position"))
				return
			}
			input.Position = &position
		}

		result, err := svc.Demote(r.Context(), input, requestMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LeadershipRoster lists every position with its current holder.
func LeadershipRoster(svc leadership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.Roster(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LeadershipPositions lists the position catalog.
func LeadershipPositions(svc leadership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.ListPositions(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LeadershipCurrent returns an identity's active assignment, or null.
func LeadershipCurrent(svc leadership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, err := uuid.Parse(chi.URLParam(r, "identityID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid identity id"))
			return
		}

		result, err := svc.CurrentAssignment(r.Context(), identityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LeadershipIdentityHistory lists an identity's assignments, newest first.
func LeadershipIdentityHistory(svc leadership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identityID, err := uuid.Parse(chi.URLParam(r, "identityID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid identity id"))
			return
		}

		result, err := svc.HistoryForIdentity(r.Context(), identityID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// LeadershipPositionHistory lists every assignment a position has had.
func LeadershipPositionHistory(svc leadership.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code, err := enums.ParsePositionCode(chi.URLParam(r, "code"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnknownPosition, err, "unknown position"))
			return
		}

		result, err := svc.HistoryForPosition(r.Context(), code)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
