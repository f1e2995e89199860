package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/buildops/defect-tracker/internal/core/ports"
)

// DefectHandler handles HTTP requests for defect operations.
type DefectHandler struct {
	service ports.DefectService
}

func NewDefectHandler(service ports.DefectService) *DefectHandler {
	return &DefectHandler{service: service}
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}

// List handles GET /v1/defects.
//
// @Summary      List defects
// @Tags         defects
// @Produce      json
// @Security     BearerAuth
// @Param        status      query     string  false  "Filter by status"
// @Param        priority    query     string  false  "Filter by priority"
// @Param        project     query     int     false  "Filter by project"
// @Param        q           query     string  false  "Search in title and description"
// @Param        sort        query     string  false  "Sort key, prefix with - for descending"
// @Param        page        query     int     false  "Page number (25 per page)"
// @Success      200         {object}  listDefectsResponse
// @Failure      401         {object}  errorResponse
// @Router       /v1/defects [get]
func (h *DefectHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	projectID, _ := strconv.ParseInt(c.QueryParam("project"), 10, 64)

	result, err := h.service.List(c.Request().Context(), ports.ListDefectsInput{
		Actor:     actor,
		Status:    c.QueryParam("status"),
		Priority:  c.QueryParam("priority"),
		ProjectID: projectID,
		Search:    c.QueryParam("q"),
		Sort:      c.QueryParam("sort"),
		Page:      page,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListResponse(result))
}

// Create handles POST /v1/defects.
//
// @Summary      Report a new defect
// @Tags         defects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createDefectRequest  true  "Defect details"
// @Success      201   {object}  defectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/defects [post]
func (h *DefectHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}

	var req createDefectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in, err := toCreateInput(req, actor)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	defect, err := h.service.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toDefectResponse(defect))
}

// Get handles GET /v1/defects/:id.
//
// @Summary      Get a defect with comments, attachments and history
// @Tags         defects
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Defect ID"
// @Success      200  {object}  defectDetailResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/defects/{id} [get]
func (h *DefectHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	detail, err := h.service.Get(c.Request().Context(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDetailResponse(detail))
}

// Update handles PUT /v1/defects/:id.
//
// @Summary      Edit a defect
// @Tags         defects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Defect ID"
// @Param        body  body      updateDefectRequest  true  "New field values"
// @Success      200   {object}  defectResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/defects/{id} [put]
func (h *DefectHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req updateDefectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	in, err := toUpdateInput(req, actor, id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	defect, err := h.service.Update(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDefectResponse(defect))
}

// ChangeStatus handles POST /v1/defects/:id/status.
//
// @Summary      Move a defect through the status workflow
// @Tags         defects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                  true  "Defect ID"
// @Param        body  body      changeStatusRequest  true  "Target status and optional comment"
// @Success      200   {object}  defectResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/defects/{id}/status [post]
func (h *DefectHandler) ChangeStatus(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req changeStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	defect, err := h.service.ChangeStatus(c.Request().Context(), ports.ChangeStatusInput{
		Actor:   actor,
		ID:      id,
		Target:  req.Status,
		Comment: req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toDefectResponse(defect))
}

// AddComment handles POST /v1/defects/:id/comments.
//
// @Summary      Comment on a defect
// @Tags         defects
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                true  "Defect ID"
// @Param        body  body      addCommentRequest  true  "Comment body"
// @Success      201   {object}  commentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /v1/defects/{id}/comments [post]
func (h *DefectHandler) AddComment(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	var req addCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	comment, err := h.service.AddComment(c.Request().Context(), ports.AddCommentInput{
		Actor:    actor,
		DefectID: id,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toCommentResponse(comment))
}

// AddAttachment handles POST /v1/defects/:id/attachments (multipart).
//
// @Summary      Attach a file to a defect
// @Tags         defects
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int   true  "Defect ID"
// @Param        file  formData  file  true  "File to attach (max 10 MB)"
// @Success      201   {object}  attachmentResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      413   {object}  errorResponse
// @Router       /v1/defects/{id}/attachments [post]
func (h *DefectHandler) AddAttachment(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file part")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable file part")
	}
	defer src.Close()

	attachment, err := h.service.AddAttachment(c.Request().Context(), ports.AddAttachmentInput{
		Actor:    actor,
		DefectID: id,
		FileName: fileHeader.Filename,
		Size:     fileHeader.Size,
		Content:  src,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAttachmentResponse(attachment))
}

// DownloadAttachment handles GET /v1/defects/:id/attachments/:attachment_id.
//
// @Summary      Download an attachment
// @Tags         defects
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Param        id             path  int  true  "Defect ID"
// @Param        attachment_id  path  int  true  "Attachment ID"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /v1/defects/{id}/attachments/{attachment_id} [get]
func (h *DefectHandler) DownloadAttachment(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	attachmentID, err := pathID(c, "attachment_id")
	if err != nil {
		return err
	}

	attachment, rc, err := h.service.OpenAttachment(c.Request().Context(), actor, id, attachmentID)
	if err != nil {
		return err
	}
	defer rc.Close()

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+attachment.FileName+`"`)
	return c.Stream(http.StatusOK, "application/octet-stream", rc)
}
