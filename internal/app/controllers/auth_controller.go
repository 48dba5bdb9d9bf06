package controllers

import (
	"hoa-http-service/internal/app/middleware"
	"hoa-http-service/internal/domain/services"
	"hoa-http-service/internal/domain/services/container"
	"hoa-http-service/internal/error/code"
	"hoa-http-service/internal/error/response"

	"github.com/gin-gonic/gin"
)

// InterfaceAuthController defines the authentication controller interface
type InterfaceAuthController interface {
	Login()
	Refresh()
	Register()
	ChangePassword()
	ForgotPassword()
}

// AuthController handles authentication requests
type AuthController struct {
	Ctx       *gin.Context
	Container *container.ServiceContainer
}

// NewAuthController creates a new authentication controller
func NewAuthController(ctx *gin.Context, container *container.ServiceContainer) *AuthController {
	return &AuthController{
		Ctx:       ctx,
		Container: container,
	}
}

// LoginRequest is the login body
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"owner@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// RefreshRequest is the refresh body
type RefreshRequest struct {
	Token string `json:"token" binding:"required"`
}

// ChangePasswordRequest is the change password body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// ForgotPasswordRequest is the forgot password body
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required" example:"owner@example.com"`
}

func (c *AuthController) service() services.InterfaceAuthService {
	return c.Container.GetService("auth").(services.InterfaceAuthService)
}

// Login signs an owner in
// @Summary      Owner login
// @Description  Exchange email and password for a bearer token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Credentials"
// @Success      200  {object}  services.LoginResult
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/login [post]
func (c *AuthController) Login() {
	var req LoginRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	result, err := c.service().Login(req.Email, req.Password)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, result)
}

// Refresh re-signs a recently expired token
// @Summary      Refresh token
// @Description  Accepts a token that expired within the refresh window
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body RefreshRequest true "Token"
// @Success      200  {object}  services.LoginResult
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/refresh [post]
func (c *AuthController) Refresh() {
	var req RefreshRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		if token, ok := bearer(c.Ctx); ok {
			req.Token = token
		} else {
			bindError(c.Ctx, err)
			return
		}
	}

	result, err := c.service().Refresh(req.Token)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, result)
}

// Register completes a placeholder owner
// @Summary      Register
// @Description  Claim the owner of an account created by the board
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body services.RegisterInput true "Registration"
// @Success      201  {object}  services.LoginResult
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /auth/register [post]
func (c *AuthController) Register() {
	var req services.RegisterInput
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	result, err := c.service().Register(req)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Created(c.Ctx, result)
}

// ChangePassword replaces the password of the signed in owner
// @Summary      Change password
// @Description  Also clears a temporary password and returns a fresh token
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body ChangePasswordRequest true "Passwords"
// @Security     BearerAuth
// @Success      200  {object}  services.LoginResult
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /auth/change-password [post]
func (c *AuthController) ChangePassword() {
	var req ChangePasswordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	result, err := c.service().ChangePassword(middleware.OwnerID(c.Ctx), req.CurrentPassword, req.NewPassword)
	if err != nil {
		respondError(c.Ctx, err)
		return
	}

	response.Success(c.Ctx, result)
}

// ForgotPassword emails a temporary password
// @Summary      Forgot password
// @Description  Always succeeds at once, whether or not the email has an account
// @Tags         Auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email"
// @Success      200  {object}  map[string]interface{}
// @Failure      429  {object}  ErrorResponse
// @Router       /auth/forgot-password [post]
func (c *AuthController) ForgotPassword() {
	var req ForgotPasswordRequest
	if err := c.Ctx.ShouldBindJSON(&req); err != nil {
		bindError(c.Ctx, err)
		return
	}

	c.service().ForgotPassword(c.Ctx.Request.Context(), req.Email)

	response.Success(c.Ctx, gin.H{
		"success": true,
		"message": "If the email belongs to an account, a temporary password has been sent",
	})
}

func bearer(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && header[:7] == "Bearer " {
		return header[7:], true
	}
	return "", false
}

// HandleAuthFunc returns a gin handler for an authentication method
func HandleAuthFunc(container *container.ServiceContainer, method string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		controller := NewAuthController(ctx, container)

		switch method {
		case "login":
			controller.Login()
		case "refresh":
			controller.Refresh()
		case "register":
			controller.Register()
		case "changePassword":
			controller.ChangePassword()
		case "forgotPassword":
			controller.ForgotPassword()
		default:
			response.FailWithMessage(ctx, code.ErrBind, "invalid method", nil)
		}
	}
}
