package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/iuiualumni/alumni-backend/api/middleware"
	"github.com/iuiualumni/alumni-backend/api/responses"
	"github.com/iuiualumni/alumni-backend/api/validators"
	"github.com/iuiualumni/alumni-backend/internal/identities"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/logger"
)

type updateProfileRequest struct {
	FullName       *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=255"`
	Batch          *string `json:"batch,omitempty" validate:"omitempty,max=50"`
	Course         *string `json:"course,omitempty" validate:"omitempty,max=255"`
	GraduationYear *int    `json:"graduation_year,omitempty" validate:"omitempty,min=1950,max=2100"`
	Phone          *string `json:"phone,omitempty" validate:"omitempty,max=30"`
	ClearPhone     bool    `json:"clear_phone,omitempty"`
	CurrentJob     *string `json:"current_job,omitempty" validate:"omitempty,max=255"`
	CurrentCompany *string `json:"current_company,omitempty" validate:"omitempty,max=255"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

type createAdminRequest struct {
	Email    string `json:"email" validate:"required,email"`
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Password string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// IdentityMe returns the authenticated caller's record.
func IdentityMe(svc identities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := svc.GetByID(r.Context(), middleware.IdentityIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// IdentityByMemberID looks a member up by their public member identifier.
func IdentityByMemberID(svc identities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		memberID := chi.URLParam(r, "memberID")
		result, err := svc.GetByMemberID(r.Context(), memberID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// IdentityUpdateProfile applies a partial profile update for the caller.
func IdentityUpdateProfile(svc identities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateProfileRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := identities.UpdateProfileInput{
			FullName:       body.FullName,
			Batch:          body.Batch,
			Course:         body.Course,
			GraduationYear: body.GraduationYear,
			Phone:          body.Phone,
			ClearPhone:     body.ClearPhone,
			CurrentJob:     body.CurrentJob,
			CurrentCompany: body.CurrentCompany,
		}

		result, err := svc.UpdateProfile(r.Context(), middleware.IdentityIDFromContext(r.Context()), input, requestMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// IdentityChangePassword rotates the caller's password.
func IdentityChangePassword(svc identities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body changePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id := middleware.IdentityIDFromContext(r.Context())
		if err := svc.ChangePassword(r.Context(), id, body.CurrentPassword, body.NewPassword, requestMeta(r)); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "password_changed"})
	}
}

// IdentityDeactivate disables an account. Staff only.
func IdentityDeactivate(svc identities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "identityID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid identity id"))
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

// IdentityList pages through the member directory. Staff only.
func IdentityList(svc identities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 25, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), limit, offset)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// IdentityCreateAdmin provisions a staff account. Superuser only.
func IdentityCreateAdmin(svc identities.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createAdminRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := identities.CreateAdminInput{
			Email:    body.Email,
			FullName: body.FullName,
			Password: body.Password,
		}

		result, err := svc.CreateAdmin(r.Context(), input, requestMeta(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
