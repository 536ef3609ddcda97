package leadership

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/internal/audit"
	"github.com/iuiualumni/alumni-backend/pkg/clock"
	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	"github.com/iuiualumni/alumni-backend/pkg/enums"
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

type stubIdentityReader struct {
	identities map[uuid.UUID]*models.Identity
}

func (s *stubIdentityReader) FindByID(ctx context.Context, id uuid.UUID) (*models.Identity, error) {
	identity, ok := s.identities[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return identity, nil
}

func (s *stubIdentityReader) add(active bool) uuid.UUID {
	id := uuid.New()
	s.identities[id] = &models.Identity{
		ID:       id,
		MemberID: "MEM-TEST01",
		Email:    "leader@example.com",
		FullName: "Test Leader",
		IsActive: active,
	}
	return id
}

var testToday = time.Date(2026, time.March, 10, 9, 30, 0, 0, time.UTC)

type leadershipFixture struct {
	svc        Service
	repo       *Repository
	recorder   *captureRecorder
	identities *stubIdentityReader
	db         *gorm.DB
}

func buildLeadershipService(t *testing.T) leadershipFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS leadership_positions (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  description TEXT,
  display_order INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME
);`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE IF NOT EXISTS leadership_assignments (
  id TEXT PRIMARY KEY,
  identity_id TEXT NOT NULL,
  position_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'active',
  started_on DATETIME NOT NULL,
  ended_on DATETIME,
  notes TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`).Error)

	repo := NewRepository(db)
	recorder := &captureRecorder{}
	identities := &stubIdentityReader{identities: map[uuid.UUID]*models.Identity{}}
	svc, err := NewService(ServiceParams{
		DB:         passthroughTx{db: db},
		Reader:     repo,
		Repos:      func(tx *gorm.DB) leadershipRepository { return repo },
		Identities: func(tx *gorm.DB) identityReader { return identities },
		Audit:      func(tx *gorm.DB) audit.Recorder { return recorder },
		Clock:      clock.NewFixed(testToday),
	})
	require.NoError(t, err)
	return leadershipFixture{svc: svc, repo: repo, recorder: recorder, identities: identities, db: db}
}

func seedPosition(t *testing.T, repo *Repository, code enums.PositionCode, order int) *models.LeadershipPosition {
	t.Helper()
	position := &models.LeadershipPosition{Code: code, DisplayOrder: order, IsActive: true}
	require.NoError(t, repo.CreatePosition(context.Background(), position))
	return position
}

func TestPromoteAssignsVacantPosition(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionPresident, 1)
	identityID := f.identities.add(true)

	assignment, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionPresident,
	}, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, identityID, assignment.IdentityID)
	assert.Equal(t, enums.AssignmentStatusActive, assignment.Status)
	assert.Equal(t, clock.Midnight(testToday), assignment.StartedOn)
	assert.Nil(t, assignment.EndedOn)
	require.NotNil(t, assignment.Position)
	assert.Equal(t, "President", assignment.Position.Title)

	require.Len(t, f.recorder.entries, 1)
	assert.Equal(t, enums.AuditActionLeadershipAssign, f.recorder.entries[0].Action)
}

func TestPromoteDisplacesIncumbent(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionSecretary, 3)
	incumbentID := f.identities.add(true)
	successorID := f.identities.add(true)

	startedOn := testToday.AddDate(0, -6, 0)
	first, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: incumbentID,
		Position:   enums.PositionSecretary,
		StartedOn:  &startedOn,
	}, audit.Meta{})
	require.NoError(t, err)

	second, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: successorID,
		Position:   enums.PositionSecretary,
	}, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, successorID, second.IdentityID)

	history, err := f.svc.HistoryForPosition(ctx, enums.PositionSecretary)
	require.NoError(t, err)
	require.Len(t, history, 2)

	displaced, err := f.svc.CurrentAssignment(ctx, incumbentID)
	require.NoError(t, err)
	assert.Nil(t, displaced)

	var ended models.LeadershipAssignment
	require.NoError(t, f.db.First(&ended, "id = ?", first.ID).Error)
	assert.Equal(t, enums.AssignmentStatusEnded, ended.Status)
	require.NotNil(t, ended.EndedOn)
	assert.True(t, ended.EndedOn.Equal(clock.Midnight(testToday)))

	// assign, revoke (incumbent), assign (successor)
	require.Len(t, f.recorder.entries, 3)
	assert.Equal(t, enums.AuditActionLeadershipRevoke, f.recorder.entries[1].Action)
	require.NotNil(t, f.recorder.entries[1].IdentityID)
	assert.Equal(t, incumbentID, *f.recorder.entries[1].IdentityID)
	assert.Equal(t, enums.AuditActionLeadershipAssign, f.recorder.entries[2].Action)
}

func TestPromoteRejectsSecondPositionForSameIdentity(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionPresident, 1)
	seedPosition(t, f.repo, enums.PositionTreasurer, 4)
	identityID := f.identities.add(true)

	_, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionPresident,
	}, audit.Meta{})
	require.NoError(t, err)

	// Holding any active position blocks a promotion, not just the target.
	_, err = f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionTreasurer,
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAlreadyLeader))

	_, err = f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionPresident,
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAlreadyLeader))
}

func TestPromoteRejectsUnknownPositionAndBadIdentity(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionPresident, 1)

	_, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: f.identities.add(true),
		Position:   enums.PositionCode("CHAIRPERSON"),
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnknownPosition))

	_, err = f.svc.Promote(ctx, PromoteInput{
		IdentityID: uuid.New(),
		Position:   enums.PositionPresident,
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotFound))

	inactiveID := f.identities.add(false)
	_, err = f.svc.Promote(ctx, PromoteInput{
		IdentityID: inactiveID,
		Position:   enums.PositionPresident,
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAccountInactive))

	assert.Empty(t, f.recorder.entries)
}

func TestPromoteRejectsDeactivatedPosition(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	retired := &models.LeadershipPosition{Code: enums.PositionTreasurer, DisplayOrder: 4, IsActive: false}
	require.NoError(t, f.repo.CreatePosition(ctx, retired))
	identityID := f.identities.add(true)

	_, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionTreasurer,
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnknownPosition))
	assert.Empty(t, f.recorder.entries)

	// Retired positions stay readable through history.
	history, err := f.svc.HistoryForPosition(ctx, enums.PositionTreasurer)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestPromoteRejectsDateBeforeIncumbentStart(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionTreasurer, 4)
	incumbentID := f.identities.add(true)
	successorID := f.identities.add(true)

	incumbentStart := testToday.AddDate(0, -1, 0)
	_, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: incumbentID,
		Position:   enums.PositionTreasurer,
		StartedOn:  &incumbentStart,
	}, audit.Meta{})
	require.NoError(t, err)

	tooEarly := incumbentStart.AddDate(0, 0, -10)
	_, err = f.svc.Promote(ctx, PromoteInput{
		IdentityID: successorID,
		Position:   enums.PositionTreasurer,
		StartedOn:  &tooEarly,
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidDateRange))
}

func TestDemoteEndsActiveAssignment(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionVicePresident, 2)
	identityID := f.identities.add(true)

	_, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionVicePresident,
	}, audit.Meta{})
	require.NoError(t, err)

	ended, err := f.svc.Demote(ctx, DemoteInput{
		IdentityID: identityID,
		Notes:      "term complete",
	}, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentStatusEnded, ended.Status)
	require.NotNil(t, ended.EndedOn)
	assert.Equal(t, clock.Midnight(testToday), ended.EndedOn.UTC())
	assert.Equal(t, "term complete", ended.Notes)

	leader, err := f.svc.IsCurrentLeader(ctx, identityID)
	require.NoError(t, err)
	assert.False(t, leader)

	require.Len(t, f.recorder.entries, 2)
	assert.Equal(t, enums.AuditActionLeadershipRevoke, f.recorder.entries[1].Action)
}

func TestDemoteErrors(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionPresident, 1)
	identityID := f.identities.add(true)

	_, err := f.svc.Demote(ctx, DemoteInput{IdentityID: identityID}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotALeader))

	start := testToday.AddDate(0, -2, 0)
	_, err = f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionPresident,
		StartedOn:  &start,
	}, audit.Meta{})
	require.NoError(t, err)

	before := start.AddDate(0, 0, -1)
	_, err = f.svc.Demote(ctx, DemoteInput{IdentityID: identityID, EndedOn: &before}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidDateRange))
}

func TestDemoteScopedToNamedPosition(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionPresident, 1)
	identityID := f.identities.add(true)

	_, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: identityID,
		Position:   enums.PositionPresident,
	}, audit.Meta{})
	require.NoError(t, err)

	// Naming a position the identity does not hold leaves it in place.
	secretary := enums.PositionSecretary
	_, err = f.svc.Demote(ctx, DemoteInput{
		IdentityID: identityID,
		Position:   &secretary,
	}, audit.Meta{})
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeNotALeader))

	leader, err := f.svc.IsCurrentLeader(ctx, identityID)
	require.NoError(t, err)
	assert.True(t, leader)

	president := enums.PositionPresident
	ended, err := f.svc.Demote(ctx, DemoteInput{
		IdentityID: identityID,
		Position:   &president,
	}, audit.Meta{})
	require.NoError(t, err)
	assert.Equal(t, enums.AssignmentStatusEnded, ended.Status)
}

func TestRosterPairsPositionsWithHolders(t *testing.T) {
	f := buildLeadershipService(t)
	ctx := context.Background()
	seedPosition(t, f.repo, enums.PositionPresident, 1)
	seedPosition(t, f.repo, enums.PositionVicePresident, 2)
	seedPosition(t, f.repo, enums.PositionSecretary, 3)
	presidentID := f.identities.add(true)

	_, err := f.svc.Promote(ctx, PromoteInput{
		IdentityID: presidentID,
		Position:   enums.PositionPresident,
	}, audit.Meta{})
	require.NoError(t, err)

	roster, err := f.svc.Roster(ctx)
	require.NoError(t, err)
	require.Len(t, roster, 3)
	assert.Equal(t, enums.PositionPresident, roster[0].Position.Code)
	require.NotNil(t, roster[0].Assignment)
	assert.Equal(t, presidentID, roster[0].Assignment.IdentityID)
	assert.Nil(t, roster[1].Assignment)
	assert.Nil(t, roster[2].Assignment)
}

func TestHistoryForUnknownPosition(t *testing.T) {
	f := buildLeadershipService(t)

	_, err := f.svc.HistoryForPosition(context.Background(), enums.PositionCode("CHAIRPERSON"))
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnknownPosition))
}
