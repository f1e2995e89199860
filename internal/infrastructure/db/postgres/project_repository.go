package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/buildops/defect-tracker/internal/core/domain"
)

// ProjectRepository persists projects and their stages. Deletes rely on the
// RESTRICT foreign keys from defects: Postgres refuses the delete and the
// repository translates that into the matching domain error.
type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func (r *ProjectRepository) ListProjects(ctx context.Context) ([]*domain.Project, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, description, created_at
		FROM projects
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []*domain.Project
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) GetProject(ctx context.Context, id int64) (*domain.Project, error) {
	var p domain.Project
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, description, created_at
		FROM projects
		WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProjectNotFound
		}
		return nil, fmt.Errorf("select project: %w", err)
	}
	return &p, nil
}

func (r *ProjectRepository) CreateProject(ctx context.Context, p *domain.Project) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO projects (name, description, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		p.Name, p.Description, p.CreatedAt,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) UpdateProject(ctx context.Context, p *domain.Project) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE projects SET name = $1, description = $2 WHERE id = $3`,
		p.Name, p.Description, p.ID)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) DeleteProject(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		if pgErrCode(err) == codeForeignKeyViolation {
			return domain.ErrProjectInUse
		}
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) ListStages(ctx context.Context) ([]*domain.Stage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.project_id, p.name, s.name, s.created_at
		FROM stages s
		JOIN projects p ON p.id = s.project_id
		ORDER BY p.name, s.name`)
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}
	defer rows.Close()

	var stages []*domain.Stage
	for rows.Next() {
		var s domain.Stage
		if err := rows.Scan(&s.ID, &s.ProjectID, &s.ProjectName, &s.Name, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, &s)
	}
	return stages, rows.Err()
}

func (r *ProjectRepository) GetStage(ctx context.Context, id int64) (*domain.Stage, error) {
	var s domain.Stage
	err := r.pool.QueryRow(ctx, `
		SELECT s.id, s.project_id, p.name, s.name, s.created_at
		FROM stages s
		JOIN projects p ON p.id = s.project_id
		WHERE s.id = $1`, id,
	).Scan(&s.ID, &s.ProjectID, &s.ProjectName, &s.Name, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrStageNotFound
		}
		return nil, fmt.Errorf("select stage: %w", err)
	}
	return &s, nil
}

func (r *ProjectRepository) CreateStage(ctx context.Context, s *domain.Stage) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO stages (project_id, name, created_at)
		VALUES ($1, $2, $3)
		RETURNING id`,
		s.ProjectID, s.Name, s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		if pgErrCode(err) == codeUniqueViolation {
			return domain.ErrStageExists
		}
		return fmt.Errorf("insert stage: %w", err)
	}
	return nil
}

func (r *ProjectRepository) UpdateStage(ctx context.Context, s *domain.Stage) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE stages SET project_id = $1, name = $2 WHERE id = $3`,
		s.ProjectID, s.Name, s.ID)
	if err != nil {
		if pgErrCode(err) == codeUniqueViolation {
			return domain.ErrStageExists
		}
		return fmt.Errorf("update stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStageNotFound
	}
	return nil
}

func (r *ProjectRepository) DeleteStage(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM stages WHERE id = $1`, id)
	if err != nil {
		if pgErrCode(err) == codeForeignKeyViolation {
			return domain.ErrStageInUse
		}
		return fmt.Errorf("delete stage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrStageNotFound
	}
	return nil
}
