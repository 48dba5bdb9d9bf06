package controllers

import (
	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/models"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceMessageController defines the message controller interface
type InterfaceMessageController interface {
	Inbox()
	Sent()
	Send()
	Thread()
	MarkRead()
	BoardRecipients()
}

// MessageController handles owner messaging
type MessageController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewMessageController creates a new message controller
func NewMessageController(ctx *gin.Context, container *container.ServiceContainer) *MessageController {
	return &MessageController{
		Ctx:       ctx,
		Container: container,
	}
}

func (c *MessageController) service() services.InterfaceMessageService {
	return c.Container.GetService("message").(services.InterfaceMessageService)
}

// Inbox pages through received messages, newest first
// @Summary      Inbox
// @Tags         Messages
// @Produce      json
// @Param        page query int false "Page, default 1"
// @Param        page_size query int false "Page size, default 20"
// @Security     BearerAuth
// @Success      200  {object}  ListResponse
// @Router       /messages [get]
func (c *MessageController) Inbox() {
	query := paginationQuery(c.Ctx)

	messages, total, err := c.service().Inbox(middleware.OwnerID(c.Ctx), query)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, listResponse(messages, total, query))
}

// Sent pages through messages written by the signed in owner
// @Summary      Sent messages
// @Tags         Messages
// @Produce      json
// @Param        page query int false "Page, default 1"
// @Param        page_size query int false "Page size, default 20"
// @Security     BearerAuth
// @Success      200  {object}  ListResponse
// @Router       /messages/sent [get]
func (c *MessageController) Sent() {
	query := paginationQuery(c.Ctx)

	messages, total, err := c.service().Sent(middleware.OwnerID(c.Ctx), query)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, listResponse(messages, total, query))
}

// Send writes a message or a reply
// @Summary      Send message
// @Description  Recipients receive an email unless they opted out of message emails
// @Tags         Messages
// @Accept       json
// @Produce      json
// @Param        request body services.SendInput true "Message"
// @Security     BearerAuth
// @Success      201  {object}  map[string]interface{}
// @Failure      400  {object}  ErrorResponse
// @Router       /messages [post]
func (c *MessageController) Send() {
	var req services.SendInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	sender := models.OwnerSender(middleware.OwnerID(c.Ctx))
	message, report, err := c.service().Send(c.Ctx.Request.Context(), sender, req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, withDebug(c.Container, gin.H{"message": message}, report))
}

// Thread returns a message with its replies
// @Summary      Message thread
// @Tags         Messages
// @Produce      json
// @Param        id path int true "Message ID"
// @Security     BearerAuth
// @Success      200  {array}   services.MessageView
// @Failure      404  {object}  ErrorResponse
// @Router       /messages/{id} [get]
func (c *MessageController) Thread() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	thread, err := c.service().Thread(middleware.OwnerID(c.Ctx), id)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, thread)
}

// MarkRead marks a received message as read
// @Summary      Mark read
// @Tags         Messages
// @Produce      json
// @Param        id path int true "Message ID"
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  ErrorResponse
// @Router       /messages/{id}/read [put]
func (c *MessageController) MarkRead() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	if err := c.service().MarkRead(middleware.OwnerID(c.Ctx), id); err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, gin.H{"id": id, "is_read": true})
}

// BoardRecipients lists the current board members
// @Summary      Board recipients
// @Tags         Messages
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   services.BoardRecipient
// @Router       /messages/board-recipients [get]
func (c *MessageController) BoardRecipients() {
	recipients, err := c.service().BoardRecipients()
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, recipients)
}

// HandleMessageFunc returns a gin handler for a message method
func HandleMessageFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewMessageController(ctx, container)

		switch method {
		case "inbox":
			controller.Inbox()
		case "sent":
			controller.Sent()
		case "send":
			controller.Send()
		case "thread":
			controller.Thread()
		case "markRead":
			controller.MarkRead()
		case "boardRecipients":
			controller.BoardRecipients()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
