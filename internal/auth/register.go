package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/internal/identities"
	"github.com/iuiualumni/alumni-backend/internal/roles"
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

type registerIdentityStore interface {
	EmailExists(ctx context.Context, email string) (bool, error)
	MemberIDExists(ctx context.Context, memberID string) (bool, error)
	Create(ctx context.Context, dto identities.CreateIdentityDTO) (*models.Identity, error)
}

// RegisterIdentityFactory builds a tx-scoped identity store for registration.
type RegisterIdentityFactory func(tx *gorm.DB) registerIdentityStore

// RoleAssigner runs the default-role orchestration step inside the
// registration transaction.
type RoleAssigner func(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*models.Role, error)

// RegisterService runs the registration state machine. Validation, the
// identity insert, default-role assignment, and the audit entry share one
// transaction; the optional session is established after commit.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest, meta audit.Meta) (*RegisterResponse, error)
}

// RegisterServiceParams bundles the dependencies for the registration flow.
// Session is optional; without it registration succeeds with no auto-login.
type RegisterServiceParams struct {
	DB             db.TxRunner
	Identities     RegisterIdentityFactory
	Roles          RoleAssigner
	Audit          AuditFactory
	Session        sessionManager
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Clock          clock.Clock
}

type registerService struct {
	db          db.TxRunner
	identities  RegisterIdentityFactory
	roles       RoleAssigner
	audit       AuditFactory
	session     sessionManager
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	clock       clock.Clock
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.DB == nil {
		return nil, fmt.Errorf("db is required")
	}
	if params.Identities == nil {
		params.Identities = func(tx *gorm.DB) registerIdentityStore { return identities.NewRepository(tx) }
	}
	if params.Roles == nil {
		params.Roles = func(ctx context.Context, tx *gorm.DB, identityID uuid.UUID) (*models.Role, error) {
			return roles.AssignDefaultRoleIfNone(ctx, roles.NewRepository(tx), identityID)
		}
	}
	if params.Audit == nil {
		params.Audit = func(tx *gorm.DB) audit.Recorder { return audit.NewRecorder(tx) }
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	return &registerService{
		db:          params.DB,
		identities:  params.Identities,
		roles:       params.Roles,
		audit:       params.Audit,
		session:     params.Session,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
		clock:       params.Clock,
	}, nil
}

func (s *registerService) Register(ctx context.Context, req RegisterRequest, meta audit.Meta) (*RegisterResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	fullName := strings.TrimSpace(req.FullName)

	var missing []string
	if fullName == "" {
		missing = append(missing, "full_name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if len(missing) > 0 {
		return nil, pkgerrors.New(
			pkgerrors.CodeMissingField,
			fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
		)
	}

	// No password means no usable credential: the hash stays empty and every
	// login attempt fails verification.
	passwordHash := ""
	if req.Password != "" {
		var err error
		passwordHash, err = security.HashPassword(req.Password, s.passwordCfg)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
		}
	}

	var (
		identity *models.Identity
		role     *models.Role
	)
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.identities(tx)

		exists, err := repo.EmailExists(ctx, email)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check email")
		}
		if exists {
			return pkgerrors.New(pkgerrors.CodeDuplicateEmail, "email already registered")
		}

		identity, err = identities.CreateWithUniqueMemberID(ctx, repo, identities.CreateIdentityDTO{
			Email:          email,
			FullName:       fullName,
			PasswordHash:   passwordHash,
			Batch:          req.Batch,
			Course:         req.Course,
			GraduationYear: req.GraduationYear,
			Phone:          req.Phone,
			CurrentJob:     req.CurrentJob,
			CurrentCompany: req.CurrentCompany,
			JoinedOn:       s.clock.Today(),
		}, false)
		if err != nil {
			return err
		}

		role, err = s.roles(ctx, tx, identity.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign default role")
		}

		details := map[string]any{"member_id": identity.MemberID}
		if role != nil {
			details["role"] = role.Name
		}
		return s.audit(tx).Record(ctx, audit.Entry{
			IdentityID: &identity.ID,
			Action:     enums.AuditActionRegister,
			Details:    details,
			IPAddress:  meta.IPAddress,
			UserAgent:  meta.UserAgent,
		})
	})
	if err != nil {
		return nil, err
	}

	response := &RegisterResponse{
		Identity: identities.FromModel(identity),
		Role:     roles.FromModel(role),
	}

	// auto-login happens outside the transaction: a session failure leaves
	// the registration committed and the caller logs in normally. Accounts
	// created without a credential get no session.
	if s.session != nil && passwordHash != "" {
		if pair, err := s.autoLogin(ctx, identity); err == nil {
			response.Session = pair
		}
	}
	return response, nil
}

func (s *registerService) autoLogin(ctx context.Context, identity *models.Identity) (*TokenPair, error) {
	accessID := session.NewAccessID()
	accessToken, err := pkgauth.MintAccessToken(s.jwtCfg, s.clock.Now(), pkgauth.AccessTokenPayload{
		IdentityID: identity.ID,
		MemberID:   identity.MemberID,
		Email:      identity.Email,
		JTI:        accessID,
	})
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.session.Generate(ctx, accessID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}
