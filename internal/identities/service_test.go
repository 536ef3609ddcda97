package identities

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/pkg/clock"
	"github.com/iuiualumni/alumni-backend/pkg/config"
	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/security"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubIdentityRepo struct {
	models    map[uuid.UUID]*identityRecord
	emails    map[string]uuid.UUID
	memberIDs map[string]uuid.UUID
}

type identityRecord struct {
	id           uuid.UUID
	dto          CreateIdentityDTO
	passwordHash string
	active       bool
}

func newStubIdentityRepo() *stubIdentityRepo {
	return &stubIdentityRepo{
		models:    map[uuid.UUID]*identityRecord{},
		emails:    map[string]uuid.UUID{},
		memberIDs: map[string]uuid.UUID{},
	}
}

func (s *stubIdentityRepo) Create(ctx context.Context, dto CreateIdentityDTO) (*models.Identity, error) {
	id := uuid.New()
	s.models[id] = &identityRecord{id: id, dto: dto, passwordHash: dto.PasswordHash, active: true}
	s.emails[dto.Email] = id
	s.memberIDs[dto.MemberID] = id
	return s.toModel(id), nil
}

func (s *stubIdentityRepo) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	id, ok := s.emails[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.toModel(id), nil
}

func (s *stubIdentityRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	if _, ok := s.models[id]; !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.toModel(id), nil
}

func (s *stubIdentityRepo) FindByMemberID(ctx context.Context, memberID string) (*models.Identity, error) {
	id, ok := s.memberIDs[memberID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return s.toModel(id), nil
}

func (s *stubIdentityRepo) MemberIDExists(ctx context.Context, memberID string) (bool, error) {
	_, ok := s.memberIDs[memberID]
	return ok, nil
}

func (s *stubIdentityRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	_, ok := s.emails[email]
	return ok, nil
}

func (s *stubIdentityRepo) UpdateProfile(ctx context.Context, id uuid.UUID, dto UpdateProfileDTO) (*models.Identity, error) {
	rec, ok := s.models[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if dto.FullName != nil {
		rec.dto.FullName = *dto.FullName
	}
	if dto.CurrentJob != nil {
		rec.dto.CurrentJob = *dto.CurrentJob
	}
	if dto.ClearPhone {
		rec.dto.Phone = nil
	} else if dto.Phone != nil {
		rec.dto.Phone = dto.Phone
	}
	return s.toModel(id), nil
}

func (s *stubIdentityRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	rec, ok := s.models[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rec.passwordHash = hash
	return nil
}

func (s *stubIdentityRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	rec, ok := s.models[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rec.active = active
	return nil
}

func (s *stubIdentityRepo) List(ctx context.Context, limit, offset int) ([]models.Identity, error) {
	out := []models.Identity{}
	for id := range s.models {
		out = append(out, *s.toModel(id))
	}
	return out, nil
}

func (s *stubIdentityRepo) toModel(id uuid.UUID) *models.Identity {
	rec := s.models[id]
	m := rec.dto.ToModel()
	m.ID = id
	m.PasswordHash = rec.passwordHash
	m.IsActive = rec.active
	return m
}

type stubRecorder struct {
	entries []audit.Entry
	fail    error
}

func (s *stubRecorder) Record(ctx context.Context, entry audit.Entry) error {
	if s.fail != nil {
		return s.fail
	}
	s.entries = append(s.entries, entry)
	return nil
}

func buildIdentityService(t *testing.T, repo *stubIdentityRepo, recorder *stubRecorder) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		DB:     stubTxRunner{},
		Reader: repo,
		Repos:  func(tx *gorm.DB) identityRepository { return repo },
		Audit:  func(tx *gorm.DB) audit.Recorder { return recorder },
		PasswordConfig: config.PasswordConfig{
			ArgonMemoryKB:    8 * 1024,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
		Clock: clock.NewFixed(time.Date(2026, time.June, 1, 9, 0, 0, 0, time.UTC)),
	})
	require.NoError(t, err)
	return svc
}

func TestCreateAdminForcesPrivilegeFlags(t *testing.T) {
	repo := newStubIdentityRepo()
	recorder := &stubRecorder{}
	svc := buildIdentityService(t, repo, recorder)

	dto, err := svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    "Chair@Example.COM",
		FullName: "Association Chair",
		Password: "super-secret",
	}, audit.Meta{})
	require.NoError(t, err)

	assert.Equal(t, "chair@example.com", dto.Email)
	assert.True(t, dto.IsStaff)
	assert.True(t, dto.IsSuperuser)
	assert.True(t, dto.IsVerified)
	assert.True(t, strings.HasPrefix(dto.MemberID, "ADMIN_MEM-"))

	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "ADMIN_IDENTITY_CREATE", string(recorder.entries[0].Action))
}

func TestCreateAdminMissingFields(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := buildIdentityService(t, repo, &stubRecorder{})

	_, err := svc.CreateAdmin(context.Background(), CreateAdminInput{Email: "x@example.com"}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingField))
	assert.Contains(t, err.Error(), "full_name")
}

func TestCreateAdminWithoutPasswordLeavesNoCredential(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := buildIdentityService(t, repo, &stubRecorder{})

	created, err := svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    "keyless@example.com",
		FullName: "Keyless Admin",
	}, audit.Meta{})
	require.NoError(t, err)
	assert.True(t, created.IsSuperuser)
	assert.Empty(t, repo.models[created.ID].passwordHash)
}

func TestCreateAdminDuplicateEmail(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := buildIdentityService(t, repo, &stubRecorder{})

	input := CreateAdminInput{Email: "dup@example.com", FullName: "First Admin", Password: "pw-one"}
	_, err := svc.CreateAdmin(context.Background(), input, audit.Meta{})
	require.NoError(t, err)

	_, err = svc.CreateAdmin(context.Background(), input, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeDuplicateEmail))
}

func TestCreateAdminAuditFailureAborts(t *testing.T) {
	repo := newStubIdentityRepo()
	recorder := &stubRecorder{fail: pkgerrors.New(pkgerrors.CodeAuditWrite, "audit store down")}
	svc := buildIdentityService(t, repo, recorder)

	_, err := svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    "fails@example.com",
		FullName: "Doomed Admin",
		Password: "pw",
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAuditWrite))
}

func TestChangePassword(t *testing.T) {
	repo := newStubIdentityRepo()
	recorder := &stubRecorder{}
	svc := buildIdentityService(t, repo, recorder)

	created, err := svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    "pw@example.com",
		FullName: "Password Haver",
		Password: "old-password",
	}, audit.Meta{})
	require.NoError(t, err)

	err = svc.ChangePassword(context.Background(), created.ID, "wrong", "new-password", audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidCredentials))

	err = svc.ChangePassword(context.Background(), created.ID, "old-password", "new-password", audit.Meta{})
	require.NoError(t, err)

	rec := repo.models[created.ID]
	ok, err := security.VerifyPassword("new-password", rec.passwordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestChangePasswordNoUsableCredential(t *testing.T) {
	repo := newStubIdentityRepo()
	recorder := &stubRecorder{}
	svc := buildIdentityService(t, repo, recorder)

	id := uuid.New()
	repo.models[id] = &identityRecord{
		id:     id,
		dto:    CreateIdentityDTO{Email: "legacy@example.com", FullName: "Legacy Member", MemberID: "MEM-LEGACY"},
		active: true,
	}
	repo.emails["legacy@example.com"] = id
	repo.memberIDs["MEM-LEGACY"] = id

	// no stored hash: any "current password" is ignored, first password is set
	err := svc.ChangePassword(context.Background(), id, "", "first-password", audit.Meta{})
	require.NoError(t, err)

	ok, err := security.VerifyPassword("first-password", repo.models[id].passwordHash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateProfileRecordsChangedFields(t *testing.T) {
	repo := newStubIdentityRepo()
	recorder := &stubRecorder{}
	svc := buildIdentityService(t, repo, recorder)

	created, err := svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    "profile@example.com",
		FullName: "Profile Person",
		Password: "pw",
	}, audit.Meta{})
	require.NoError(t, err)
	recorder.entries = nil

	job := "Software Engineer"
	dto, err := svc.UpdateProfile(context.Background(), created.ID, UpdateProfileInput{
		CurrentJob: &job,
		ClearPhone: true,
	}, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, job, dto.CurrentJob)

	require.Len(t, recorder.entries, 1)
	fields, ok := recorder.entries[0].Details["fields"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"current_job", "phone"}, fields)
}

func TestDeactivate(t *testing.T) {
	repo := newStubIdentityRepo()
	svc := buildIdentityService(t, repo, &stubRecorder{})

	created, err := svc.CreateAdmin(context.Background(), CreateAdminInput{
		Email:    "leaver@example.com",
		FullName: "Leaving Member",
		Password: "pw",
	}, audit.Meta{})
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(context.Background(), created.ID))
	assert.False(t, repo.models[created.ID].active)

	err = svc.Deactivate(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

type scriptedMemberIDStore struct {
	existsCalls int
	takenFirst  int
	createCalls int
	createErrs  []error
	memberIDs   []string
}

func (s *scriptedMemberIDStore) MemberIDExists(ctx context.Context, memberID string) (bool, error) {
	s.existsCalls++
	return s.existsCalls <= s.takenFirst, nil
}

func (s *scriptedMemberIDStore) Create(ctx context.Context, dto CreateIdentityDTO) (*models.Identity, error) {
	s.createCalls++
	s.memberIDs = append(s.memberIDs, dto.MemberID)
	if len(s.createErrs) > 0 {
		err := s.createErrs[0]
		s.createErrs = s.createErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	identity := dto.ToModel()
	identity.ID = uuid.New()
	return identity, nil
}

func TestGenerateUniqueMemberIDSkipsTakenCandidates(t *testing.T) {
	store := &scriptedMemberIDStore{takenFirst: 3}

	memberID, err := GenerateUniqueMemberID(context.Background(), store, false)
	require.NoError(t, err)
	assert.Regexp(t, `^MEM-[A-Z0-9]{6}$`, memberID)
	assert.Equal(t, 4, store.existsCalls)
}

func TestGenerateUniqueMemberIDExhaustsAttempts(t *testing.T) {
	store := &scriptedMemberIDStore{takenFirst: memberIDAttempts + 1}

	_, err := GenerateUniqueMemberID(context.Background(), store, true)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal))
	assert.Equal(t, memberIDAttempts, store.existsCalls)
}

func TestCreateWithUniqueMemberIDRetriesOnInsertRace(t *testing.T) {
	store := &scriptedMemberIDStore{createErrs: []error{
		errors.New(`duplicate key value violates unique constraint "identities_member_id_key"`),
	}}

	created, err := CreateWithUniqueMemberID(context.Background(), store, CreateIdentityDTO{
		Email:    "raced@example.com",
		FullName: "Raced Member",
	}, false)
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 2, store.createCalls)
	require.Len(t, store.memberIDs, 2)
	assert.Equal(t, store.memberIDs[1], created.MemberID)
}

func TestCreateWithUniqueMemberIDSurfacesOtherInsertErrors(t *testing.T) {
	store := &scriptedMemberIDStore{createErrs: []error{
		errors.New(`duplicate key value violates unique constraint "identities_email_key"`),
	}}

	_, err := CreateWithUniqueMemberID(context.Background(), store, CreateIdentityDTO{
		Email:    "dup@example.com",
		FullName: "Dup Member",
	}, false)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInternal))
	assert.Equal(t, 1, store.createCalls)
}
