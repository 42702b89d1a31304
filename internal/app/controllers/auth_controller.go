package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/middleware"
)

// AuthController handles registration and login.
type AuthController struct {
	authService *services.AuthService
}

// NewAuthController creates a new AuthController
func NewAuthController(authService *services.AuthService) *AuthController {
	return &AuthController{authService: authService}
}

// Register godoc
// @Summary Register a new account
// @Description Register a student, teacher or parent account with local credentials
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration data"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(resp))
}

// Login godoc
// @Summary Log in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.APIResponse
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(resp))
}

// FederatedLogin godoc
// @Summary Log in with a federated ID token
// @Description Exchange a verified third-party ID token for a session token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.FederatedLoginRequest true "ID token"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse}
// @Failure 401 {object} dto.APIResponse
// @Router /auth/federated [post]
func (c *AuthController) FederatedLogin(ctx *gin.Context) {
	var req dto.FederatedLoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	resp, err := c.authService.FederatedLogin(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(resp))
}

// Logout godoc
// @Summary Log out
// @Description Tokens are stateless; logout is advisory and the client discards its token
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, dto.OKMessage("Logged out successfully"))
}

// Me godoc
// @Summary Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 401 {object} dto.APIResponse
// @Router /auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	user, err := c.authService.Me(ctx.Request.Context(), p.ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(user))
}
