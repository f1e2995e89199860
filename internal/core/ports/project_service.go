package ports

import (
	"context"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

type CreateProjectInput struct {
	Actor       Actor
	Name        string
	Description string
}

type UpdateProjectInput struct {
	Actor       Actor
	ID          int64
	Name        string
	Description string
}

type CreateStageInput struct {
	Actor     Actor
	ProjectID int64
	Name      string
}

type UpdateStageInput struct {
	Actor     Actor
	ID        int64
	ProjectID int64
	Name      string
}

// ProjectService defines project/stage management. Reads are open to every
// authenticated role; mutations are manager-only.
type ProjectService interface {
	ListProjects(ctx context.Context, actor Actor) ([]*domain.Project, error)
	CreateProject(ctx context.Context, in CreateProjectInput) (*domain.Project, error)
	UpdateProject(ctx context.Context, in UpdateProjectInput) (*domain.Project, error)
	DeleteProject(ctx context.Context, actor Actor, id int64) error

	ListStages(ctx context.Context, actor Actor) ([]*domain.Stage, error)
	CreateStage(ctx context.Context, in CreateStageInput) (*domain.Stage, error)
	UpdateStage(ctx context.Context, in UpdateStageInput) (*domain.Stage, error)
	DeleteStage(ctx context.Context, actor Actor, id int64) error
}
