package ports

import (
	"context"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

// ProjectRepository defines persistence for projects and their stages.
// Delete methods return domain.ErrProjectInUse / domain.ErrStageInUse when
// defects still reference the row (RESTRICT foreign keys, not cascades).
type ProjectRepository interface {
	ListProjects(ctx context.Context) ([]*domain.Project, error)
	GetProject(ctx context.Context, id int64) (*domain.Project, error)
	CreateProject(ctx context.Context, p *domain.Project) error
	UpdateProject(ctx context.Context, p *domain.Project) error
	DeleteProject(ctx context.Context, id int64) error

	ListStages(ctx context.Context) ([]*domain.Stage, error)
	GetStage(ctx context.Context, id int64) (*domain.Stage, error)
	CreateStage(ctx context.Context, s *domain.Stage) error
	UpdateStage(ctx context.Context, s *domain.Stage) error
	DeleteStage(ctx context.Context, id int64) error
}
