package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/internal/identities"
	pkgauth "github.com/iuiualumni/alumni-backend/pkg/auth"
	"github.com/iuiualumni/alumni-backend/pkg/auth/session"
	"github.com/iuiualumni/alumni-backend/pkg/clock"
	"github.com/iuiualumni/alumni-backend/pkg/config"
	"github.com/iuiualumni/alumni-backend/pkg/db"
	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/security"
)

// invalid email and wrong password are deliberately indistinguishable
const invalidCredentialsMessage = "invalid credentials"

type identityStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// IdentityFactory builds a tx-scoped identity store.
type IdentityFactory func(tx *gorm.DB) identityStore

// AuditFactory builds a tx-scoped audit recorder.
type AuditFactory func(tx *gorm.DB) audit.Recorder

// Service handles authentication and session lifecycle.
type Service interface {
	Login(ctx context.Context, req LoginRequest, meta audit.Meta) (*LoginResponse, error)
	Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error)
	Logout(ctx context.Context, identityID uuid.UUID, accessID string, meta audit.Meta) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	DB         db.TxRunner
	Identities IdentityFactory
	Audit      AuditFactory
	Session    sessionManager
	JWTConfig  config.JWTConfig
	Clock      clock.Clock
}

type service struct {
	db         db.TxRunner
	identities IdentityFactory
	audit      AuditFactory
	session    sessionManager
	jwtCfg     config.JWTConfig
	clock      clock.Clock
}

// NewService constructs an auth service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Session == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Identities == nil {
		params.Identities = func(tx *gorm.DB) identityStore { return identities.NewRepository(tx) }
	}
	if params.Audit == nil {
		params.Audit = func(tx *gorm.DB) audit.Recorder { return audit.NewRecorder(tx) }
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &service{
		db:         params.DB,
		identities: params.Identities,
		audit:      params.Audit,
		session:    params.Session,
		jwtCfg:     params.JWTConfig,
		clock:      params.Clock,
	}, nil
}

// Login authenticates the credentials and issues an access/refresh pair. The
// last-login stamp and the LOGIN audit record commit in one transaction; a
// session that cannot be established rolls both back.
func (s *service) Login(ctx context.Context, req LoginRequest, meta audit.Meta) (*LoginResponse, error) {
	var response *LoginResponse
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.identities(tx)

		identity, err := s.authenticate(ctx, repo, req.Email, req.Password)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		if err := repo.UpdateLastLogin(ctx, identity.ID, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
		}
		identity.LastLoginAt = &now

		pair, err := s.issueSession(ctx, identity, now)
		if err != nil {
			return err
		}

		if err := s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &identity.ID,
			Action:     enums.AuditActionLogin,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		}); err != nil {
			return err
		}

		response = &LoginResponse{
			TokenPair: *pair,
			Identity:  identities.FromModel(identity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return response, nil
}

// Refresh rotates the refresh token and mints a new access token for the same
// identity claims.
func (s *service) Refresh(ctx context.Context, req RefreshRequest) (*TokenPair, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, req.AccessToken)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid access token")
	}

	newAccessID, newRefreshToken, err := s.session.Rotate(ctx, claims.ID, req.RefreshToken)
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rotate session")
	}

	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, s.clock.Now(), pkgauth.AccessTokenPayload{
		IdentityID:  claims.IdentityID,
		MemberID:    claims.MemberID,
		Email:       claims.Email,
		IsStaff:     claims.IsStaff,
		IsSuperuser: claims.IsSuperuser,
		JTI:         newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: newRefreshToken}, nil
}

// Logout revokes the session and records the LOGOUT action.
func (s *service) Logout(ctx context.Context, identityID uuid.UUID, accessID string, meta audit.Meta) error {
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "revoke session")
	}
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &identityID,
			Action:     enums.AuditActionLogout,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
}

func (s *service) authenticate(ctx context.Context, repo identityStore, email, password string) (*models.Identity, error) {
	input := strings.ToLower(strings.TrimSpace(email))
	if input == "" {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}

	identity, err := repo.FindByEmail(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup identity")
	}

	valid, err := security.VerifyPassword(password, identity.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidCredentials, invalidCredentialsMessage)
	}
	if !identity.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeAccountInactive, "account is inactive")
	}
	return identity, nil
}

func (s *service) issueSession(ctx context.Context, identity *models.Identity, now time.Time) (*TokenPair, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, now, pkgauth.AccessTokenPayload{
		IdentityID:  identity.ID,
		MemberID:    identity.MemberID,
		Email:       identity.Email,
		IsStaff:     identity.IsStaff,
		IsSuperuser: identity.IsSuperuser,
		JTI:         accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store refresh token")
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
