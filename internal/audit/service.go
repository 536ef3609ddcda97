package audit

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/iuiualumni/alumni-backend/pkg/db/models"
	pkgerrors "github.com/iuiualumni/alumni-backend/pkg/errors"
	"github.com/iuiualumni/alumni-backend/pkg/pagination"
)

// Recorder writes audit entries inside the caller's transaction. A write
// failure must abort the surrounding business transaction, so Record returns
// the error instead of swallowing it.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

type repository interface {
	Insert(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter ListFilter, cursor *pagination.Cursor, limit int) ([]models.AuditLog, error)
}

// Service exposes audit recording and trail queries.
type Service interface {
	Recorder
	List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error)
}

type service struct {
	repo repository
}

// NewService builds an audit service on the provided repository.
func NewService(repo repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit repository required")
	}
	return &service{repo: repo}, nil
}

// NewRecorder binds a recorder to the provided transaction handle.
func NewRecorder(tx *gorm.DB) Recorder {
	return &service{repo: NewRepository(tx)}
}

func (s *service) Record(ctx context.Context, entry Entry) error {
	if !entry.Action.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown audit action %q", entry.Action))
	}

	log, err := entry.toModel()
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeAuditWrite, err, "encode audit details")
	}
	if err := s.repo.Insert(ctx, log); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeAuditWrite, err, "append audit record")
	}
	return nil
}

func (s *service) List(ctx context.Context, filter ListFilter, params pagination.Params) (*Page, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, filter, cursor, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list audit records")
	}

	rows, hasMore := pagination.TrimPage(rows, params.Limit)

	logs := make([]LogDTO, 0, len(rows))
	for i := range rows {
		logs = append(logs, *FromModel(&rows[i]))
	}

	page := &Page{Logs: logs}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}
