package controllers

import (
	"errors"
	"strconv"

	"hoa-http-service/internal/domain/jobs"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceJobController defines the scheduled job controller interface
type InterfaceJobController interface {
	List()
	Run()
	Runs()
}

// JobController lets board members inspect and trigger scheduled jobs
type JobController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
	Runner    *jobs.Runner
}

// NewJobController creates a new job controller
func NewJobController(ctx *gin.Context, container *container.ServiceContainer, runner *jobs.Runner) *JobController {
	return &JobController{
		Ctx:       ctx,
		Container: container,
		Runner:    runner,
	}
}

// List returns the registered jobs and their schedules
// @Summary      List jobs
// @Tags         Board
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   map[string]interface{}
// @Router       /board/jobs [get]
func (c *JobController) List() {
	var items []gin.H
	for _, name := range c.Runner.Names() {
		job, _ := c.Runner.Job(name)
		items = append(items, gin.H{
			"name":     job.Name,
			"schedule": job.Schedule,
		})
	}

	response.Success(c.Ctx, items)
}

// Run runs a job immediately
// @Summary      Run job
// @Tags         Board
// @Produce      json
// @Param        name path string true "Job name"
// @Security     BearerAuth
// @Success      200  {object}  models.JobRun
// @Failure      404  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /board/jobs/{name}/run [post]
func (c *JobController) Run() {
	run, err := c.Runner.RunNow(c.Ctx.Request.Context(), c.Ctx.Param("name"))
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		response.Fail(c.Ctx, code.ErrJobNotFound, nil)
	case errors.Is(err, services.ErrLockNotAcquired):
		response.Fail(c.Ctx, code.ErrJobRunning, nil)
	case err != nil && run != nil:
		response.FailWithMessage(c.Ctx, code.ErrUnknown, "job failed", run)
	case err != nil:
		respondError(c.Ctx, err)
	default:
		response.Success(c.Ctx, run)
	}
}

// Runs returns the latest runs of a job
// @Summary      Job runs
// @Tags         Board
// @Produce      json
// @Param        name path string true "Job name"
// @Param        limit query int false "Max runs, default 20"
// @Security     BearerAuth
// @Success      200  {array}   models.JobRun
// @Router       /board/jobs/{name}/runs [get]
func (c *JobController) Runs() {
	name := c.Ctx.Param("name")
	if _, ok := c.Runner.Job(name); !ok {
		response.Fail(c.Ctx, code.ErrJobNotFound, nil)
		return
	}

	limit, err := strconv.Atoi(c.Ctx.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 20
	}

	runs, err := c.Runner.Runs(name, limit)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, runs)
}

// HandleJobFunc returns a gin handler for a job method
func HandleJobFunc(container *container.ServiceContainer, runner *jobs.Runner, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewJobController(ctx, container, runner)

		switch method {
		case "list":
			controller.List()
		case "run":
			controller.Run()
		case "runs":
			controller.Runs()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
