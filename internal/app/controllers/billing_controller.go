package controllers

import (
	"fmt"
	"net/http"

	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceBillingController defines the account and payment controller interface
type InterfaceBillingController interface {
	ListAccounts()
	GetAccount()
	ListCharges()
	ListPayments()
	ListCards()
	MakePayment()
	Receipt()
}

// BillingController handles accounts, charges and payments
type BillingController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewBillingController creates a new billing controller
func NewBillingController(ctx *gin.Context, container *container.ServiceContainer) *BillingController {
	return &BillingController{
		Ctx:       ctx,
		Container: container,
	}
}

func (c *BillingController) service() services.InterfaceBillingService {
	return c.Container.GetService("billing").(services.InterfaceBillingService)
}

// ListAccounts returns the accounts of the signed in owner
// @Summary      List my accounts
// @Tags         Billing
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   models.Account
// @Router       /accounts [get]
func (c *BillingController) ListAccounts() {
	ownerService := c.Container.GetService("owner").(services.InterfaceOwnerService)

	accounts, err := ownerService.ListAccounts(middleware.OwnerID(c.Ctx))
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, accounts)
}

// GetAccount returns an account with its past due balance
// @Summary      Get account
// @Tags         Billing
// @Produce      json
// @Param        id path int true "Account ID"
// @Security     BearerAuth
// @Success      200  {object}  services.AccountDetail
// @Failure      404  {object}  ErrorResponse
// @Router       /accounts/{id} [get]
func (c *BillingController) GetAccount() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	detail, err := c.service().GetAccount(middleware.OwnerID(c.Ctx), id)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, detail)
}

// ListCharges pages through the charges of an account
// @Summary      List charges
// @Tags         Billing
// @Produce      json
// @Param        id path int true "Account ID"
// @Param        page query int false "Page, default 1"
// @Param        page_size query int false "Page size, default 20"
// @Security     BearerAuth
// @Success      200  {object}  ListResponse
// @Router       /accounts/{id}/charges [get]
func (c *BillingController) ListCharges() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}
	query := paginationQuery(c.Ctx)

	charges, total, err := c.service().ListCharges(middleware.OwnerID(c.Ctx), id, query)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, listResponse(charges, total, query))
}

// ListPayments pages through the payments of an account
// @Summary      List payments
// @Tags         Billing
// @Produce      json
// @Param        id path int true "Account ID"
// @Param        page query int false "Page, default 1"
// @Param        page_size query int false "Page size, default 20"
// @Security     BearerAuth
// @Success      200  {object}  ListResponse
// @Router       /accounts/{id}/payments [get]
func (c *BillingController) ListPayments() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}
	query := paginationQuery(c.Ctx)

	payments, total, err := c.service().ListPayments(middleware.OwnerID(c.Ctx), id, query)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, listResponse(payments, total, query))
}

// ListCards returns the stored cards of an account, last four digits only
// @Summary      List cards
// @Tags         Billing
// @Produce      json
// @Param        id path int true "Account ID"
// @Security     BearerAuth
// @Success      200  {array}   models.CreditCard
// @Router       /accounts/{id}/cards [get]
func (c *BillingController) ListCards() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	cards, err := c.service().ListCards(middleware.OwnerID(c.Ctx), id)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, cards)
}

// MakePayment pays toward an account balance
// @Summary      Make payment
// @Description  Pays with a stored card or a new card, which is stored for reuse
// @Tags         Billing
// @Accept       json
// @Produce      json
// @Param        request body services.PaymentInput true "Payment"
// @Security     BearerAuth
// @Success      201  {object}  models.Payment
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /payments [post]
func (c *BillingController) MakePayment() {
	var req services.PaymentInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	payment, err := c.service().MakePayment(middleware.OwnerID(c.Ctx), req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, payment)
}

// Receipt renders the PDF receipt of a payment
// @Summary      Payment receipt
// @Tags         Billing
// @Produce      application/pdf
// @Param        id path int true "Payment ID"
// @Security     BearerAuth
// @Success      200  {file}    binary
// @Failure      404  {object}  ErrorResponse
// @Router       /payments/{id}/receipt [get]
func (c *BillingController) Receipt() {
	id, ok := uintParam(c.Ctx, "id")
	if !ok {
		return
	}

	data, payment, err := c.service().Receipt(middleware.OwnerID(c.Ctx), id)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	c.Ctx.Header("Content-Disposition", fmt.Sprintf(`inline; filename="receipt-%s.pdf"`, payment.ReceiptNumber))
	c.Ctx.Data(http.StatusOK, "application/pdf", data)
}

// HandleBillingFunc returns a gin handler for a billing method
func HandleBillingFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewBillingController(ctx, container)

		switch method {
		case "listAccounts":
			controller.ListAccounts()
		case "getAccount":
			controller.GetAccount()
		case "listCharges":
			controller.ListCharges()
		case "listPayments":
			controller.ListPayments()
		case "listCards":
			controller.ListCards()
		case "makePayment":
			controller.MakePayment()
		case "receipt":
			controller.Receipt()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
