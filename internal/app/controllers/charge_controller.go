package controllers

import (
	"strconv"

	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceChargeController defines the charge and rate controller interface
type InterfaceChargeController interface {
	IssueViolation()
	IssueAssessment()
	ListViolationTypes()
	CreateViolationType()
	UpdateViolationType()
	ListAssessmentRates()
	CreateAssessmentRate()
	UpdateAssessmentRate()
}

// ChargeController handles fines, assessments and their rate tables
type ChargeController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewChargeController creates a new charge controller
func NewChargeController(ctx *gin.Context, container *container.ServiceContainer) *ChargeController {
	return &ChargeController{
		Ctx:       ctx,
		Container: container,
	}
}

func (c *ChargeController) service() services.InterfaceBillingService {
	return c.Container.GetService("billing").(services.InterfaceBillingService)
}

func (c *ChargeController) chargeResponse(result *services.ChargeResult) {
	response.Created(c.Ctx, withDebug(c.Container, gin.H{
		"charge":  result.Charge,
		"message": result.Message,
	}, result.Notifications))
}

// IssueViolation fines an account
// @Summary      Issue violation
// @Description  Requires the assess fines capability. Owners get a message and an email.
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body services.ViolationInput true "Violation"
// @Security     BearerAuth
// @Success      201  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /board/violations [post]
func (c *ChargeController) IssueViolation() {
	var req services.ViolationInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	result, err := c.service().IssueViolation(c.Ctx.Request.Context(), middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	c.chargeResponse(result)
}

// IssueAssessment charges an assessment to an account
// @Summary      Issue assessment
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body services.AssessmentInput true "Assessment"
// @Security     BearerAuth
// @Success      201  {object}  map[string]interface{}
// @Failure      403  {object}  ErrorResponse
// @Router       /board/assessments [post]
func (c *ChargeController) IssueAssessment() {
	var req services.AssessmentInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	result, err := c.service().IssueAssessment(c.Ctx.Request.Context(), middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	c.chargeResponse(result)
}

// ListViolationTypes lists the violation types, active ones unless all=true
// @Summary      List violation types
// @Tags         Rates
// @Produce      json
// @Param        all query bool false "Include inactive types"
// @Security     BearerAuth
// @Success      200  {array}   models.ViolationType
// @Router       /violation-types [get]
func (c *ChargeController) ListViolationTypes() {
	all, _ := strconv.ParseBool(c.Ctx.Query("all"))

	types, err := c.service().ListViolationTypes(!all)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, types)
}

// CreateViolationType adds a violation type
// @Summary      Create violation type
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body services.ViolationTypeInput true "Violation type"
// @Security     BearerAuth
// @Success      201  {object}  models.ViolationType
// @Failure      403  {object}  ErrorResponse
// @Router       /board/violation-types [post]
func (c *ChargeController) CreateViolationType() {
	var req services.ViolationTypeInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	violationType, err := c.service().CreateViolationType(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, violationType)
}

// UpdateViolationType edits a violation type
// @Summary      Update violation type
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        id path int true "Violation type ID"
// @Param        request body services.ViolationTypeInput true "Violation type"
// @Security     BearerAuth
// @Success      200  {object}  models.ViolationType
// @Failure      404  {object}  ErrorResponse
// @Router       /board/violation-types/{id} [put]
func (c *ChargeController) UpdateViolationType() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req services.ViolationTypeInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	violationType, err := c.service().UpdateViolationType(middleware.OwnerID(c.Ctx), id, req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, violationType)
}

// ListAssessmentRates lists assessment rates, optionally for one year
// @Summary      List assessment rates
// @Tags         Rates
// @Produce      json
// @Param        year query int false "Year"
// @Security     BearerAuth
// @Success      200  {array}   models.AssessmentRate
// @Router       /assessment-rates [get]
func (c *ChargeController) ListAssessmentRates() {
	year, _ := strconv.Atoi(c.Ctx.Query("year"))

	rates, err := c.service().ListAssessmentRates(year)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, rates)
}

// CreateAssessmentRate adds an assessment rate
// @Summary      Create assessment rate
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body services.AssessmentRateInput true "Rate"
// @Security     BearerAuth
// @Success      201  {object}  models.AssessmentRate
// @Failure      409  {object}  ErrorResponse
// @Router       /board/assessment-rates [post]
func (c *ChargeController) CreateAssessmentRate() {
	var req services.AssessmentRateInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	rate, err := c.service().CreateAssessmentRate(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, rate)
}

// UpdateAssessmentRate edits an assessment rate
// @Summary      Update assessment rate
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        id path int true "Rate ID"
// @Param        request body services.AssessmentRateInput true "Rate"
// @Security     BearerAuth
// @Success      200  {object}  models.AssessmentRate
// @Failure      409  {object}  ErrorResponse
// @Router       /board/assessment-rates/{id} [put]
func (c *ChargeController) UpdateAssessmentRate() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req services.AssessmentRateInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	rate, err := c.service().UpdateAssessmentRate(middleware.OwnerID(c.Ctx), id, req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, rate)
}

// HandleChargeFunc returns a gin handler for a charge or rate method
func HandleChargeFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewChargeController(ctx, container)

		switch method {
		case "issueViolation":
			controller.IssueViolation()
		case "issueAssessment":
			controller.IssueAssessment()
		case "listViolationTypes":
			controller.ListViolationTypes()
		case "createViolationType":
			controller.CreateViolationType()
		case "updateViolationType":
			controller.UpdateViolationType()
		case "listAssessmentRates":
			controller.ListAssessmentRates()
		case "createAssessmentRate":
			controller.CreateAssessmentRate()
		case "updateAssessmentRate":
			controller.UpdateAssessmentRate()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
