package controllers

import (
	"errors"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"
	Logger "hoa-http-service/pkg/logger"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// ErrorResponse documents the failure envelope
type ErrorResponse struct {
	Code    int         `json:"code" example:"101002"`
	Message string      `json:"message" example:"invalid email or password"`
	Error   string      `json:"error" example:"invalid email or password"`
	Data    interface{} `json:"data"`
}

// ListResponse is the data of every paged list
type ListResponse struct {
	models.PaginationResult
	Items interface{} `json:"items"`
}

// errorCodes maps service errors to business codes
var errorCodes = []struct {
	err  error
	code int
}{
	{services.ErrValidation, code.ErrValidation},
	{services.ErrPermissionDenied, code.ErrPermissionDenied},
	{services.ErrOwnerNotFound, code.ErrOwnerNotFound},
	{services.ErrOwnerAlreadyExists, code.ErrOwnerAlreadyExist},
	{services.ErrInvalidCredentials, code.ErrInvalidCredentials},
	{services.ErrAlreadyRegistered, code.ErrAlreadyRegistered},
	{services.ErrInvalidRegistrationCode, code.ErrInvalidRegistrationCode},
	{services.ErrTokenInvalid, code.ErrTokenInvalid},
	{services.ErrTokenExpired, code.ErrTokenExpired},
	{services.ErrAccountNotFound, code.ErrAccountNotFound},
	{services.ErrRateNotFound, code.ErrRateNotFound},
	{services.ErrYearlyRateExists, code.ErrYearlyRateExists},
	{services.ErrInvalidAmount, code.ErrInvalidAmount},
	{services.ErrCardNotFound, code.ErrCardNotFound},
	{services.ErrPaymentNotFound, code.ErrPaymentNotFound},
	{services.ErrMessageNotFound, code.ErrMessageNotFound},
	{services.ErrInvalidReply, code.ErrInvalidReply},
	{services.ErrAnnouncementNotFound, code.ErrAnnouncementNotFound},
	{services.ErrDocumentNotFound, code.ErrDocumentNotFound},
	{services.ErrFileTooLarge, code.ErrFileTooLarge},
	{services.ErrUnsupportedFileType, code.ErrUnsupportedFileType},
	{services.ErrSurveyNotFound, code.ErrSurveyNotFound},
	{services.ErrSurveyClosed, code.ErrSurveyClosed},
	{services.ErrAlreadyResponded, code.ErrAlreadyResponded},
	{services.ErrInvalidAnswer, code.ErrInvalidAnswer},
	{services.ErrRoleNotFound, code.ErrRoleNotFound},
	{services.ErrActiveRoleExists, code.ErrActiveRoleExists},
	{services.ErrNoActiveRole, code.ErrNoActiveRole},
	{services.ErrCannotEndRole, code.ErrCannotEndRole},
	{services.ErrLockNotAcquired, code.ErrJobRunning},
	{services.ErrRecordNotFound, code.ErrRecordNotFound},
}

// respondError writes the envelope matching err. Unknown errors are logged
// and reported as 500 without details.
func respondError(c *gin.Context, err error) {
	for _, entry := range errorCodes {
		if errors.Is(err, entry.err) {
			if entry.code == code.ErrValidation {
				response.FailWithMessage(c, entry.code, err.Error(), nil)
				return
			}
			response.Fail(c, entry.code, nil)
			return
		}
	}

	Logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	response.Fail(c, code.ErrDatabase, nil)
}

// bindError reports a request that could not be bound
func bindError(c *gin.Context, err error) {
	response.FailWithMessage(c, code.ErrBind, "invalid request parameters: "+err.Error(), nil)
}

// uintParam parses the path parameter name
func uintParam(c *gin.Context, name string) (uint, bool) {
	value, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || value == 0 {
		response.ParamError(c, "invalid "+name)
		return 0, false
	}
	return uint(value), true
}

// paginationQuery binds page, page_size and search
func paginationQuery(c *gin.Context) models.PaginationQuery {
	var query models.PaginationQuery
	_ = c.ShouldBindQuery(&query)
	query.Normalize()
	return query
}

func listResponse(items interface{}, total int64, query models.PaginationQuery) ListResponse {
	return ListResponse{
		PaginationResult: models.NewPaginationResult(total, query.Page, query.PageSize),
		Items:            items,
	}
}

// withDebug adds the notification report to data when debug responses are enabled
func withDebug(container *container.ServiceContainer, data gin.H, report *services.NotificationReport) gin.H {
	if report != nil && container.GetConfig().DebugResponses {
		data["debug"] = report
	}
	return data
}

// formUpload reads the optional multipart file field. Files larger than limit
// are rejected before they are read.
func formUpload(c *gin.Context, field string, limit int64) (*services.Upload, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	if header.Size > limit {
		return nil, services.ErrFileTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, services.ErrFileTooLarge
	}

	return &services.Upload{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Data:     data,
	}, nil
}
