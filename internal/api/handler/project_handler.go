package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/buildops/defect-tracker/internal/core/domain"
	"github.com/buildops/defect-tracker/internal/core/ports"
)

// ProjectHandler handles HTTP requests for projects and their stages.
type ProjectHandler struct {
	service ports.ProjectService
}

func NewProjectHandler(service ports.ProjectService) *ProjectHandler {
	return &ProjectHandler{service: service}
}

type projectRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description"`
}

type stageRequest struct {
	ProjectID int64  `json:"project_id" validate:"required,gt=0"`
	Name      string `json:"name"       validate:"required,max=120"`
}

type projectResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type stageResponse struct {
	ID          int64  `json:"id"`
	ProjectID   int64  `json:"project_id"`
	ProjectName string `json:"project_name,omitempty"`
	Name        string `json:"name"`
}

func toProjectResponse(p *domain.Project) projectResponse {
	return projectResponse{ID: p.ID, Name: p.Name, Description: p.Description}
}

func toStageResponse(s *domain.Stage) stageResponse {
	return stageResponse{ID: s.ID, ProjectID: s.ProjectID, ProjectName: s.ProjectName, Name: s.Name}
}

// ListProjects handles GET /v1/projects.
//
// @Summary      List projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  projectResponse
// @Router       /v1/projects [get]
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	projects, err := h.service.ListProjects(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	out := make([]projectResponse, len(projects))
	for i, p := range projects {
		out[i] = toProjectResponse(p)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateProject handles POST /v1/projects.
//
// @Summary      Create a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      projectRequest  true  "Project details"
// @Success      201   {object}  projectResponse
// @Failure      403   {object}  errorResponse
// @Router       /v1/projects [post]
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.service.CreateProject(c.Request().Context(), ports.CreateProjectInput{
		Actor:       actor,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toProjectResponse(project))
}

// UpdateProject handles PUT /v1/projects/:id.
//
// @Summary      Update a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int             true  "Project ID"
// @Param        body  body      projectRequest  true  "New values"
// @Success      200   {object}  projectResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req projectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	project, err := h.service.UpdateProject(c.Request().Context(), ports.UpdateProjectInput{
		Actor:       actor,
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toProjectResponse(project))
}

// DeleteProject handles DELETE /v1/projects/:id.
//
// @Summary      Delete a project without defects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Project ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteProject(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListStages handles GET /v1/stages.
//
// @Summary      List stages across all projects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  stageResponse
// @Router       /v1/stages [get]
func (h *ProjectHandler) ListStages(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	stages, err := h.service.ListStages(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	out := make([]stageResponse, len(stages))
	for i, s := range stages {
		out[i] = toStageResponse(s)
	}
	return c.JSON(http.StatusOK, out)
}

// CreateStage handles POST /v1/stages.
//
// @Summary      Create a stage within a project
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      stageRequest  true  "Stage details"
// @Success      201   {object}  stageResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /v1/stages [post]
func (h *ProjectHandler) CreateStage(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req stageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	stage, err := h.service.CreateStage(c.Request().Context(), ports.CreateStageInput{
		Actor:     actor,
		ProjectID: req.ProjectID,
		Name:      req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toStageResponse(stage))
}

// UpdateStage handles PUT /v1/stages/:id.
//
// @Summary      Update a stage
// @Tags         projects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int           true  "Stage ID"
// @Param        body  body      stageRequest  true  "New values"
// @Success      200   {object}  stageResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/stages/{id} [put]
func (h *ProjectHandler) UpdateStage(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req stageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	stage, err := h.service.UpdateStage(c.Request().Context(), ports.UpdateStageInput{
		Actor:     actor,
		ID:        id,
		ProjectID: req.ProjectID,
		Name:      req.Name,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toStageResponse(stage))
}

// DeleteStage handles DELETE /v1/stages/:id.
//
// @Summary      Delete a stage without defects
// @Tags         projects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  int  true  "Stage ID"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /v1/stages/{id} [delete]
func (h *ProjectHandler) DeleteStage(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteStage(c.Request().Context(), actor, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
