package roles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupRolesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	rolesTable := `
CREATE TABLE IF NOT EXISTS roles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  description TEXT,
  is_default INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	identityRoles := `
CREATE TABLE IF NOT EXISTS identity_roles (
  id TEXT PRIMARY KEY,
  identity_id TEXT NOT NULL,
  role_id TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (identity_id, role_id)
);`
	require.NoError(t, db.Exec(rolesTable).Error)
	require.NoError(t, db.Exec(identityRoles).Error)
	return db
}

func TestRepositoryDefaultRoleLifecycle(t *testing.T) {
	db := setupRolesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	alumni, err := repo.Create(ctx, CreateRoleDTO{Name: "Alumni", IsDefault: true})
	require.NoError(t, err)
	board, err := repo.Create(ctx, CreateRoleDTO{Name: "Board"})
	require.NoError(t, err)

	def, err := repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, alumni.ID, def.ID)

	require.NoError(t, repo.ClearDefault(ctx))
	_, err = repo.FindDefault(ctx)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.MarkDefault(ctx, board.ID))
	def, err = repo.FindDefault(ctx)
	require.NoError(t, err)
	assert.Equal(t, board.ID, def.ID)

	err = repo.MarkDefault(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryFirstByName(t *testing.T) {
	db := setupRolesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, CreateRoleDTO{Name: "Mentor"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, CreateRoleDTO{Name: "Alumni"})
	require.NoError(t, err)

	first, err := repo.FirstByName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Alumni", first.Name)
}

func TestRepositoryAssignToIdentityIsIdempotent(t *testing.T) {
	db := setupRolesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	role, err := repo.Create(ctx, CreateRoleDTO{Name: "Alumni"})
	require.NoError(t, err)
	identityID := uuid.New()

	added, err := repo.AssignToIdentity(ctx, identityID, role.ID)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = repo.AssignToIdentity(ctx, identityID, role.ID)
	require.NoError(t, err)
	assert.False(t, added, "second assignment of the same pair is a no-op")

	count, err := repo.CountForIdentity(ctx, identityID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	held, err := repo.ListForIdentity(ctx, identityID)
	require.NoError(t, err)
	require.Len(t, held, 1)
	assert.Equal(t, "Alumni", held[0].Name)

	require.NoError(t, repo.RemoveFromIdentity(ctx, identityID, role.ID))
	count, err = repo.CountForIdentity(ctx, identityID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestAssignDefaultRoleIfNoneFallbackChain(t *testing.T) {
	ctx := context.Background()

	t.Run("no roles at all creates the fallback", func(t *testing.T) {
		repo := NewRepository(setupRolesTestDB(t))
		identityID := uuid.New()

		role, err := AssignDefaultRoleIfNone(ctx, repo, identityID)
		require.NoError(t, err)
		require.NotNil(t, role)
		assert.Equal(t, FallbackRoleName, role.Name)
		assert.True(t, role.IsDefault)

		count, err := repo.CountForIdentity(ctx, identityID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("flagged default wins", func(t *testing.T) {
		repo := NewRepository(setupRolesTestDB(t))
		_, err := repo.Create(ctx, CreateRoleDTO{Name: "Aardvark"})
		require.NoError(t, err)
		def, err := repo.Create(ctx, CreateRoleDTO{Name: "Member", IsDefault: true})
		require.NoError(t, err)

		role, err := AssignDefaultRoleIfNone(ctx, repo, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, def.ID, role.ID)
	})

	t.Run("no flagged default falls back to first by name", func(t *testing.T) {
		repo := NewRepository(setupRolesTestDB(t))
		first, err := repo.Create(ctx, CreateRoleDTO{Name: "Alumni"})
		require.NoError(t, err)
		_, err = repo.Create(ctx, CreateRoleDTO{Name: "Mentor"})
		require.NoError(t, err)

		role, err := AssignDefaultRoleIfNone(ctx, repo, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, first.ID, role.ID)
	})

	t.Run("identity with a role is untouched", func(t *testing.T) {
		repo := NewRepository(setupRolesTestDB(t))
		existing, err := repo.Create(ctx, CreateRoleDTO{Name: "Board"})
		require.NoError(t, err)
		identityID := uuid.New()
		_, err = repo.AssignToIdentity(ctx, identityID, existing.ID)
		require.NoError(t, err)

		role, err := AssignDefaultRoleIfNone(ctx, repo, identityID)
		require.NoError(t, err)
		assert.Nil(t, role, "no-op when a role is already held")
	})
}
