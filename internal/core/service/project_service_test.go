package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

func newProjectSvc() (*ProjectService, *stubProjectRepo) {
	repo := newStubProjectRepo()
	return NewProjectService(repo, zerolog.Nop()), repo
}

func TestProjectMutations_ManagerOnly(t *testing.T) {
	svc, _ := newProjectSvc()

	for _, actor := range []ports.Actor{engineer, observer} {
		if _, err := svc.CreateProject(context.Background(), ports.CreateProjectInput{
			Actor: actor, Name: "East Block",
		}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s create project: expected ErrForbidden, got %v", actor.Role, err)
		}
		if err := svc.DeleteProject(context.Background(), actor, 1); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s delete project: expected ErrForbidden, got %v", actor.Role, err)
		}
		if _, err := svc.CreateStage(context.Background(), ports.CreateStageInput{
			Actor: actor, ProjectID: 1, Name: "Roofing",
		}); !errors.Is(err, domain.ErrForbidden) {
			t.Errorf("%s create stage: expected ErrForbidden, got %v", actor.Role, err)
		}
	}
}

func TestCreateProject_Manager(t *testing.T) {
	svc, repo := newProjectSvc()

	p, err := svc.CreateProject(context.Background(), ports.CreateProjectInput{
		Actor: manager, Name: "East Block", Description: "Phase two",
	})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if p.ID == 0 {
		t.Error("created project should receive an id")
	}
	if _, ok := repo.projects[p.ID]; !ok {
		t.Error("project not persisted")
	}
}

func TestCreateStage_RequiresExistingProject(t *testing.T) {
	svc, _ := newProjectSvc()

	_, err := svc.CreateStage(context.Background(), ports.CreateStageInput{
		Actor: manager, ProjectID: 404, Name: "Roofing",
	})
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("expected ErrProjectNotFound, got %v", err)
	}
}

func TestUpdateStage_MoveToAnotherProject(t *testing.T) {
	svc, repo := newProjectSvc()
	repo.projects[2] = &domain.Project{ID: 2, Name: "South Wing"}

	stage, err := svc.UpdateStage(context.Background(), ports.UpdateStageInput{
		Actor: manager, ID: 1, ProjectID: 2, Name: "Foundation",
	})
	if err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if stage.ProjectID != 2 {
		t.Errorf("stage should move to project 2, got %d", stage.ProjectID)
	}

	_, err = svc.UpdateStage(context.Background(), ports.UpdateStageInput{
		Actor: manager, ID: 1, ProjectID: 404, Name: "Foundation",
	})
	if !errors.Is(err, domain.ErrProjectNotFound) {
		t.Fatalf("move to unknown project: expected ErrProjectNotFound, got %v", err)
	}
}

func TestListProjects_AnyRole(t *testing.T) {
	svc, _ := newProjectSvc()

	for _, actor := range []ports.Actor{manager, engineer, observer} {
		if _, err := svc.ListProjects(context.Background(), actor); err != nil {
			t.Errorf("%s list projects: %v", actor.Role, err)
		}
		if _, err := svc.ListStages(context.Background(), actor); err != nil {
			t.Errorf("%s list stages: %v", actor.Role, err)
		}
	}
}
