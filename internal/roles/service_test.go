package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
)

type passthroughTx struct {
	db *gorm.DB
}

func (p passthroughTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(p.db)
}

type captureRecorder struct {
	entries []audit.Entry
}

func (c *captureRecorder) Record(ctx context.Context, entry audit.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func buildRoleService(t *testing.T) (Service, *Repository, *captureRecorder) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS roles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS identity_roles (
  id TEXT PRIMARY KEY,
  identity_id TEXT NOT NULL,
  role_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (identity_id, role_id)
);`).Error)

	repo := NewRepository(db)
	recorder := &captureRecorder{}
	svc, err := NewService(ServiceParams{
		DB:     passthroughTx{db: db},
		Reader: repo,
		Repos:  func(tx *gorm.DB) roleRepository { return repo },
		Audit:  func(tx *gorm.DB) audit.Recorder { return recorder },
	})
	require.NoError(t, err)
	return svc, repo, recorder
}

func TestServiceCreateRejectsDuplicates(t *testing.T) {
	svc, _, _ := buildRoleService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRoleDTO{Name: "Alumni", IsDefault: true})
	require.NoError(t, err)
	assert.True(t, created.IsDefault)

	_, err = svc.Create(ctx, CreateRoleDTO{Name: "Alumni"})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeConflict))

	_, err = svc.Create(ctx, CreateRoleDTO{Name: "  "})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMissingField))
}

func TestServiceCreateDefaultDisplacesExisting(t *testing.T) {
	svc, repo, _ := buildRoleService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateRoleDTO{Name: "Alumni", IsDefault: true})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateRoleDTO{Name: "Mentor", IsDefault: true})
	require.NoError(t, err)

	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)

	reloaded, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
}

func TestServiceSetDefaultMovesFlag(t *testing.T) {
	svc, repo, _ := buildRoleService(t)
	ctx := context.Background()

	alumni, err := svc.Create(ctx, CreateRoleDTO{Name: "Alumni", IsDefault: true})
	require.NoError(t, err)
	board, err := svc.Create(ctx, CreateRoleDTO{Name: "Board"})
	require.NoError(t, err)

	updated, err := svc.SetDefault(ctx, board.ID)
	require.NoError(t, err)
	assert.True(t, updated.IsDefault)

	old, err := repo.FindByID(ctx, alumni.ID)
	require.NoError(t, err)
	assert.False(t, old.IsDefault)

	_, err = svc.SetDefault(ctx, uuid.New())
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}

func TestServiceAssignAuditsOnlyNewLinks(t *testing.T) {
	svc, _, recorder := buildRoleService(t)
	ctx := context.Background()

	role, err := svc.Create(ctx, CreateRoleDTO{Name: "Alumni"})
	require.NoError(t, err)
	identityID := uuid.New()

	require.NoError(t, svc.Assign(ctx, identityID, role.ID, audit.Meta{}))
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "ROLE_CHANGE", string(recorder.entries[0].Action))
	assert.Equal(t, "assigned", recorder.entries[0].Details["change"])

	// repeat assignment: idempotent, no extra audit record
	require.NoError(t, svc.Assign(ctx, identityID, role.ID, audit.Meta{}))
	assert.Len(t, recorder.entries, 1)

	require.NoError(t, svc.Remove(ctx, identityID, role.ID, audit.Meta{}))
	require.Len(t, recorder.entries, 2)
	assert.Equal(t, "removed", recorder.entries[1].Details["change"])

	err = svc.Assign(ctx, identityID, uuid.New(), audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))
}
