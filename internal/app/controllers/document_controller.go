package controllers

import (
	"mime"
	"net/http"

	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceDocumentController defines the document controller interface
type InterfaceDocumentController interface {
	List()
	Download()
	Upload()
	Delete()
}

// DocumentController handles the document library
type DocumentController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewDocumentController creates a new document controller
func NewDocumentController(ctx *gin.Context, container *container.ServiceContainer) *DocumentController {
	return &DocumentController{
		Ctx:       ctx,
		Container: container,
	}
}

func (c *DocumentController) service() services.InterfaceDocumentService {
	return c.Container.GetService("document").(services.InterfaceDocumentService)
}

// List pages through documents without their content
// @Summary      List documents
// @Tags         Documents
// @Produce      json
// @Param        page query int false "Page, default 1"
// @Param        page_size query int false "Page size, default 20"
// @Param        search query string false "Title"
// @Security     BearerAuth
// @Success      200  {object}  ListResponse
// @Router       /documents [get]
func (c *DocumentController) List() {
	query := paginationQuery(c.Ctx)

	documents, total, err := c.service().List(query)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, listResponse(documents, total, query))
}

// Download streams a document as an attachment
// @Summary      Download document
// @Tags         Documents
// @Produce      octet-stream
// @Param        id path int true "Document ID"
// @Security     BearerAuth
// @Success      200  {file}    binary
// @Failure      404  {object}  ErrorResponse
// @Router       /documents/{id}/download [get]
func (c *DocumentController) Download() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	doc, err := c.service().Download(id)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	c.Ctx.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.FileName}))
	c.Ctx.Data(http.StatusOK, doc.MimeType, doc.Data)
}

// Upload adds a document
// @Summary      Upload document
// @Tags         Board
// @Accept       multipart/form-data
// @Produce      json
// @Param        title formData string false "Title, defaults to the file name"
// @Param        description formData string false "Description"
// @Param        file formData file true "Document, 25MB max"
// @Security     BearerAuth
// @Success      201  {object}  models.Document
// @Failure      413  {object}  ErrorResponse
// @Failure      415  {object}  ErrorResponse
// @Router       /board/documents [post]
func (c *DocumentController) Upload() {
	var input services.DocumentInput
	if err := c.Ctx.ShouldBind(&input); err != nil {
		bindError(c.Ctx, err)
		return
	}

	file, err := formUpload(c.Ctx, "file", c.Container.GetConfig().MaxDocumentBytes)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	doc, err := c.service().Upload(middleware.OwnerID(c.Ctx), input, file)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, doc)
}

// Delete removes a document
// @Summary      Delete document
// @Tags         Board
// @Produce      json
// @Param        id path int true "Document ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /board/documents/{id} [delete]
func (c *DocumentController) Delete() {
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

// HandleDocumentFunc returns a gin handler for a document method
func HandleDocumentFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewDocumentController(ctx, container)

		switch method {
		case "list":
			controller.List()
		case "download":
			controller.Download()
		case "upload":
			controller.Upload()
		case "delete":
			controller.Delete()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
