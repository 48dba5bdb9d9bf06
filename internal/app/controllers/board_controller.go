package controllers

import (
	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceBoardController defines the board administration controller interface
type InterfaceBoardController interface {
	ListRoles()
	CreateRole()
	UpdateRole()
	ListMembers()
	AssignRole()
	EndRole()
}

// BoardController handles board roles and their holders
type BoardController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewBoardController creates a new board controller
func NewBoardController(ctx *gin.Context, container *container.ServiceContainer) *BoardController {
	return &BoardController{
		Ctx:       ctx,
		Container: container,
	}
}

// AssignRoleRequest is the body of a role assignment
type AssignRoleRequest struct {
	OwnerID uint `json:"owner_id" binding:"required" example:"12"`
	RoleID  uint `json:"role_id" binding:"required" example:"2"`
}

func (c *BoardController) service() services.InterfaceBoardService {
	return c.Container.GetService("board").(services.InterfaceBoardService)
}

// ListRoles lists the board roles
// @Summary      List roles
// @Tags         Board
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.BoardMemberRole
// @Router       /board/roles [get]
func (c *BoardController) ListRoles() {
	roles, err := c.service().ListRoles()
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, roles)
}

// CreateRole adds a board role
// @Summary      Create role
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body services.RoleInput true "Role"
// @Security     BearerAuth
// @Success      201  {object}  models.BoardMemberRole
// @Failure      403  {object}  ErrorResponse
// @Router       /board/roles [post]
func (c *BoardController) CreateRole() {
	var req services.RoleInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	role, err := c.service().CreateRole(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, role)
}

// UpdateRole edits a board role
// @Summary      Update role
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        id path int true "Role ID"
// @Param        request body services.RoleInput true "Role"
// @Security     BearerAuth
// @Success      200  {object}  models.BoardMemberRole
// @Failure      404  {object}  ErrorResponse
// @Router       /board/roles/{id} [put]
func (c *BoardController) UpdateRole() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req services.RoleInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	role, err := c.service().UpdateRole(middleware.OwnerID(c.Ctx), id, req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, role)
}

// ListMembers lists the active role assignments
// @Summary      List board members
// @Tags         Board
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.OwnerBoardMember
// @Router       /board/members [get]
func (c *BoardController) ListMembers() {
	members, err := c.service().ListMembers()
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, members)
}

// AssignRole gives an owner a board role
// @Summary      Assign role
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body AssignRoleRequest true "Assignment"
// @Security     BearerAuth
// @Success      201  {object}  models.OwnerBoardMember
// @Failure      409  {object}  ErrorResponse
// @Router       /board/members [post]
func (c *BoardController) AssignRole() {
	var req AssignRoleRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	member, err := c.service().AssignRole(middleware.OwnerID(c.Ctx), req.OwnerID, req.RoleID)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, member)
}

// EndRole ends the active role of an owner
// @Summary      End role
// @Tags         Board
// @Produce      json
// @Param        ownerId path int true "Owner ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /board/members/{ownerId} [delete]
func (c *BoardController) EndRole() {
	ownerID, ok := uintParam(c.Ctx, "ownerId")
	if !ok {
		return
	}

	if err := c.service().EndRole(middleware.OwnerID(c.Ctx), ownerID); err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"owner_id": ownerID})
}

// HandleBoardFunc returns a gin handler for a board method
func HandleBoardFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewBoardController(ctx, container)

		switch method {
		case "listRoles":
			controller.ListRoles()
		case "createRole":
			controller.CreateRole()
		case "updateRole":
			controller.UpdateRole()
		case "listMembers":
			controller.ListMembers()
		case "assignRole":
			controller.AssignRole()
		case "endRole":
			controller.EndRole()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
