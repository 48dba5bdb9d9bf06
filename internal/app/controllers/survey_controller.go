package controllers

import (
	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceSurveyController defines the survey controller interface
type InterfaceSurveyController interface {
	List()
	Respond()
	Results()
	Create()
}

// SurveyController handles surveys
type SurveyController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewSurveyController creates a new survey controller
func NewSurveyController(ctx *gin.Context, container *container.ServiceContainer) *SurveyController {
	return &SurveyController{
		Ctx:       ctx,
		Container: container,
	}
}

// RespondRequest is the body of a survey response
type RespondRequest struct {
	Answer *int `json:"answer" binding:"required" example:"1"`
}

func (c *SurveyController) service() services.InterfaceSurveyService {
	return c.Container.GetService("survey").(services.InterfaceSurveyService)
}

// List returns every survey with the caller's answer, and results once closed
// @Summary      List surveys
// @Tags         Surveys
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   services.SurveyView
// @Router       /surveys [get]
func (c *SurveyController) List() {
	surveys, err := c.service().List(c.Ctx.Request.Context(), middleware.OwnerID(c.Ctx))
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, surveys)
}

// Respond records the caller's single answer
// @Summary      Respond to survey
// @Tags         Surveys
// @Accept       json
// @Produce      json
// @Param        id path int true "Survey ID"
// @Param        request body RespondRequest true "Answer index, starting at 1"
// @Security     BearerAuth
// @Success      201  {object}  models.OwnerSurvey
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /surveys/{id}/responses [post]
func (c *SurveyController) Respond() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	var req RespondRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	answer, err := c.service().Respond(middleware.OwnerID(c.Ctx), id, *req.Answer)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, answer)
}

// Results tallies a survey
// @Summary      Survey results
// @Tags         Surveys
// @Produce      json
// @Param        id path int true "Survey ID"
// @Security     BearerAuth
// @Success      200  {object}  services.SurveyResults
// @Failure      404  {object}  ErrorResponse
// @Router       /surveys/{id}/results [get]
func (c *SurveyController) Results() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	results, err := c.service().Results(id)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, results)
}

// Create opens a survey with two to four answers
// @Summary      Create survey
// @Tags         Board
// @Accept       json
// @Produce      json
// @Param        request body services.SurveyInput true "Survey"
// @Security     BearerAuth
// @Success      201  {object}  models.Survey
// @Failure      400  {object}  ErrorResponse
// @Router       /board/surveys [post]
func (c *SurveyController) Create() {
	var req services.SurveyInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	survey, err := c.service().Create(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, survey)
}

// HandleSurveyFunc returns a gin handler for a survey method
func HandleSurveyFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewSurveyController(ctx, container)

		switch method {
		case "list":
			controller.List()
		case "respond":
			controller.Respond()
		case "results":
			controller.Results()
		case "create":
			controller.Create()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
