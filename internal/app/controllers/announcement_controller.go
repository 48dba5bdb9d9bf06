package controllers

import (
	"net/http"

	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceAnnouncementController defines the announcement controller interface
type InterfaceAnnouncementController interface {
	List()
	Get()
	Image()
	Create()
	Update()
	Delete()
}

// AnnouncementController handles announcements
type AnnouncementController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAnnouncementController creates a new announcement controller
func NewAnnouncementController(ctx *gin.Context, container *container.ServiceContainer) *AnnouncementController {
	return &AnnouncementController{
		Ctx:       ctx,
		Container: container,
	}
}

func (c *AnnouncementController) service() services.InterfaceAnnouncementService {
	return c.Container.GetService("announcement").(services.InterfaceAnnouncementService)
}

// bind reads the announcement fields and the optional image
func (c *AnnouncementController) bind() (services.AnnouncementInput, *services.Upload, bool) {
	var input services.AnnouncementInput
	if err := c.Ctx.ShouldBind(&input); err != nil {
		bindError(c.Ctx, err)
		return input, nil, false
	}

	image, err := formUpload(c.Ctx, "image", c.Container.GetConfig().MaxImageBytes)
	if err != nil {
		respondError(c.Ctx, err)
		return input, nil, false
	}
	return input, image, true
}

// List pages through announcements. Board members also see scheduled ones.
// @Summary      List announcements
// @Tags         Announcements
// @Produce      json
// @Param        page query int false "Page, default 1"
// @Param        page_size query int false "Page size, default 20"
// @Security     BearerAuth
// @Success      200  {object}  ListResponse
// @Router       /announcements [get]
func (c *AnnouncementController) List() {
	query := paginationQuery(c.Ctx)

	announcements, total, err := c.service().List(query, middleware.IsBoardMember(c.Ctx))
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, listResponse(announcements, total, query))
}

// Get returns one announcement
// @Summary      Get announcement
// @Tags         Announcements
// @Produce      json
// @Param        id path int true "Announcement ID"
// @Security     BearerAuth
// @Success      200  {object}  models.Announcement
// @Failure      404  {object}  ErrorResponse
// @Router       /announcements/{id} [get]
func (c *AnnouncementController) Get() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	announcement, err := c.service().Get(id, middleware.IsBoardMember(c.Ctx))
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, announcement)
}

// Image streams the announcement image
// @Summary      Announcement image
// @Tags         Announcements
// @Produce      image/png,image/jpeg,image/gif
// @Param        id path int true "Announcement ID"
// @Security     BearerAuth
// @Success      200  {file}    binary
// @Failure      404  {object}  ErrorResponse
// @Router       /announcements/{id}/image [get]
func (c *AnnouncementController) Image() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	data, mimeType, err := c.service().Image(id)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	c.Ctx.Header("Cache-Control", "private, max-age=3600")
	c.Ctx.Data(http.StatusOK, mimeType, data)
}

// Create publishes or schedules an announcement
// @Summary      Create announcement
// @Description  A future publish_date schedules it; otherwise owners are emailed right away
// @Tags         Board
// @Accept       multipart/form-data
// @Produce      json
// @Param        title formData string true "Title"
// @Param        body formData string false "Body"
// @Param        publish_date formData string false "RFC 3339 publish date"
// @Param        image formData file false "Image, 10MB max"
// @Security     BearerAuth
// @Success      201  {object}  map[string]interface{}
// @Failure      413  {object}  ErrorResponse
// @Failure      415  {object}  ErrorResponse
// @Router       /board/announcements [post]
func (c *AnnouncementController) Create() {
	input, image, ok := c.bind()
	if !ok {
		return
	}

	announcement, report, err := c.service().Create(c.Ctx.Request.Context(), middleware.OwnerID(c.Ctx), input, image)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, withDebug(c.Container, gin.H{"announcement": announcement}, report))
}

// Update edits an announcement
// @Summary      Update announcement
// @Tags         Board
// @Accept       multipart/form-data
// @Produce      json
// @Param        id path int true "Announcement ID"
// @Param        title formData string false "Title"
// @Param        body formData string false "Body"
// @Param        publish_date formData string false "RFC 3339 publish date"
// @Param        remove_image formData bool false "Drop the current image"
// @Param        image formData file false "Image, 10MB max"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /board/announcements/{id} [put]
func (c *AnnouncementController) Update() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}
	input, image, ok := c.bind()
	if !ok {
		return
	}

	announcement, report, err := c.service().Update(c.Ctx.Request.Context(), middleware.OwnerID(c.Ctx), id, input, image)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, withDebug(c.Container, gin.H{"announcement": announcement}, report))
}

// Delete removes an announcement
// @Summary      Delete announcement
// @Tags         Board
// @Produce      json
// @Param        id path int true "Announcement ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /board/announcements/{id} [delete]
func (c *AnnouncementController) Delete() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.service().Delete(middleware.OwnerID(c.Ctx), id); err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"id": id})
}

// HandleAnnouncementFunc returns a gin handler for an announcement method
func HandleAnnouncementFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAnnouncementController(ctx, container)

		switch method {
		case "list":
			controller.List()
		case "get":
			controller.Get()
		case "image":
			controller.Image()
		case "create":
			controller.Create()
		case "update":
			controller.Update()
		case "delete":
			controller.Delete()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
