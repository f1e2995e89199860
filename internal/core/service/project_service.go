package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

// ProjectService implements project and stage management. Reads are open to
// any authenticated role; every mutation requires the manager role, checked
// here regardless of what route-level middleware already filtered.
type ProjectService struct {
	repo   ports.ProjectRepository
	logger zerolog.Logger
}

func NewProjectService(repo ports.ProjectRepository, logger zerolog.Logger) *ProjectService {
	return &ProjectService{repo: repo, logger: logger}
}

func (s *ProjectService) ListProjects(ctx context.Context, actor ports.Actor) ([]*domain.Project, error) {
	if !domain.Allow(actor.Role, domain.RelationNone, domain.ActionView) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListProjects(ctx)
}

func (s *ProjectService) CreateProject(ctx context.Context, in ports.CreateProjectInput) (*domain.Project, error) {
	if !domain.Allow(in.Actor.Role, domain.RelationNone, domain.ActionManageProjects) {
		return nil, domain.ErrForbidden
	}
	project := &domain.Project{
		Name:        in.Name,
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("project_id", project.ID).Str("name", project.Name).Msg("project created")
	return project, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, in ports.UpdateProjectInput) (*domain.Project, error) {
	if !domain.Allow(in.Actor.Role, domain.RelationNone, domain.ActionManageProjects) {
		return nil, domain.ErrForbidden
	}
	project, err := s.repo.GetProject(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	project.Name = in.Name
	project.Description = in.Description
	if err := s.repo.UpdateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// DeleteProject refuses to delete while defects reference the project; the
// repository surfaces that as domain.ErrProjectInUse.
func (s *ProjectService) DeleteProject(ctx context.Context, actor ports.Actor, id int64) error {
	if !domain.Allow(actor.Role, domain.RelationNone, domain.ActionManageProjects) {
		return domain.ErrForbidden
	}
	if err := s.repo.DeleteProject(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Int64("project_id", id).Str("actor", actor.Username).Msg("project deleted")
	return nil
}

func (s *ProjectService) ListStages(ctx context.Context, actor ports.Actor) ([]*domain.Stage, error) {
	if !domain.Allow(actor.Role, domain.RelationNone, domain.ActionView) {
		return nil, domain.ErrForbidden
	}
	return s.repo.ListStages(ctx)
}

func (s *ProjectService) CreateStage(ctx context.Context, in ports.CreateStageInput) (*domain.Stage, error) {
	if !domain.Allow(in.Actor.Role, domain.RelationNone, domain.ActionManageProjects) {
		return nil, domain.ErrForbidden
	}
	if _, err := s.repo.GetProject(ctx, in.ProjectID); err != nil {
		return nil, err
	}
	stage := &domain.Stage{
		ProjectID: in.ProjectID,
		Name:      in.Name,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateStage(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *ProjectService) UpdateStage(ctx context.Context, in ports.UpdateStageInput) (*domain.Stage, error) {
	if !domain.Allow(in.Actor.Role, domain.RelationNone, domain.ActionManageProjects) {
		return nil, domain.ErrForbidden
	}
	stage, err := s.repo.GetStage(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.ProjectID != 0 && in.ProjectID != stage.ProjectID {
		if _, err := s.repo.GetProject(ctx, in.ProjectID); err != nil {
			return nil, err
		}
		stage.ProjectID = in.ProjectID
	}
	stage.Name = in.Name
	if err := s.repo.UpdateStage(ctx, stage); err != nil {
		return nil, err
	}
	return stage, nil
}

func (s *ProjectService) DeleteStage(ctx context.Context, actor ports.Actor, id int64) error {
	if !domain.Allow(actor.Role, domain.RelationNone, domain.ActionManageProjects) {
		return domain.ErrForbidden
	}
	return s.repo.DeleteStage(ctx, id)
}
