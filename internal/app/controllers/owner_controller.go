package controllers

import (
	"time"

	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceOwnerController defines the owner controller interface
type InterfaceOwnerController interface {
	GetMe()
	UpdateMe()
	UpdatePreferences()
	ListOwners()
	CreateAccount()
	RecordSale()
}

// OwnerController handles owner profile and board owner management
type OwnerController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewOwnerController creates a new owner controller
func NewOwnerController(ctx *gin.Context, container *container.ServiceContainer) *OwnerController {
	return &OwnerController{
		Ctx:       ctx,
		Container: container,
	}
}

// SaleRequest is the body of a recorded sale
type SaleRequest struct {
	SellDate time.Time `json:"sell_date" binding:"required"`
}

func (c *OwnerController) service() services.InterfaceOwnerService {
	return c.Container.GetService("owner").(services.InterfaceOwnerService)
}

// GetMe returns the signed in owner
// @Summary      Get my profile
// @Tags         Owners
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  models.Owner
// @Failure      404  {object}  ErrorResponse
// @Router       /owners/me [get]
func (c *OwnerController) GetMe() {
	owner, err := c.service().GetProfile(middleware.OwnerID(c.Ctx))
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, owner)
}

// UpdateMe updates the signed in owner's contact details
// @Summary      Update my profile
// @Tags         Owners
// @Accept       json
// @Produce      json
// @Param        request body services.ProfileInput true "Profile"
// @Security     BearerAuth
// @Success      200  {object}  models.Owner
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /owners/me [put]
func (c *OwnerController) UpdateMe() {
	var req services.ProfileInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	owner, err := c.service().UpdateProfile(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, owner)
}

// UpdatePreferences changes which emails the owner receives
// @Summary      Update notification preferences
// @Tags         Owners
// @Accept       json
// @Produce      json
// @Param        request body services.PreferenceInput true "Preferences"
// @Security     BearerAuth
// @Success      200  {object}  models.NotificationPreference
// @Router       /owners/me/preferences [put]
func (c *OwnerController) UpdatePreferences() {
	var req services.PreferenceInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	prefs, err := c.service().UpdateNotificationPreferences(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, prefs)
}

// ListOwners pages through every owner
// @Summary      List owners
// @Tags         Board
// @Produce      json
// @Param        page query int false "Page, default 1"
// @Param        page_size query int false "Page size, default 20"
// @Param        search query string false "Name or email"
// @Security     BearerAuth
// @Success      200  {object}  ListResponse
// @Router       /board/owners [get]
func (c *OwnerController) ListOwners() {
	query := paginationQuery(c.Ctx)

	owners, total, err := c.service().ListOwners(query)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, listResponse(owners, total, query))
}

// CreateAccount creates a property, account and placeholder owner
// @Summary      Create account
// @Description  The returned account id is handed to the new owner for registration
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body services.CreateAccountInput true "Property"
// @Security     BearerAuth
// @Success      201  {object}  models.Account
// @Failure      403  {object}  ErrorResponse
// @Router       /board/owners [post]
func (c *OwnerController) CreateAccount() {
	var req services.CreateAccountInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	account, err := c.service().CreateAccount(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, account)
}

// RecordSale ends an ownership on the sell date
// @Summary      Record sale
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        id path int true "Ownership ID"
// @Param        request body SaleRequest true "Sale"
// @Security     BearerAuth
// @Success      200  {object}  models.OwnerProperty
// @Failure      404  {object}  ErrorResponse
// @Router       /board/ownerships/{id}/sale [put]
func (c *OwnerController) RecordSale() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req SaleRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	ownership, err := c.service().RecordSale(middleware.OwnerID(c.Ctx), id, req.SellDate)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, ownership)
}

// HandleOwnerFunc returns a gin handler for an owner method
func HandleOwnerFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewOwnerController(ctx, container)

		switch method {
		case "getMe":
			controller.GetMe()
		case "updateMe":
			controller.UpdateMe()
		case "updatePreferences":
			controller.UpdatePreferences()
		case "listOwners":
			controller.ListOwners()
		case "createAccount":
			controller.CreateAccount()
		case "recordSale":
			controller.RecordSale()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
