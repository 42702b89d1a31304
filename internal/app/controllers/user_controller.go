package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/middleware"
)

// UserController handles user administration and profile access.
type UserController struct {
	userService *services.UserService
}

// NewUserController creates a new UserController
func NewUserController(userService *services.UserService) *UserController {
	return &UserController{userService: userService}
}

// List godoc
// @Summary List users
// @Description List users with filtering, sorting, pagination and field selection. Admin only.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param role query string false "Filter by role"
// @Param sort query string false "Sort expression, e.g. lastName or -createdAt"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 25, max: 100)"
// @Param select query string false "Comma-separated field projection"
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 403 {object} dto.APIResponse
// @Router /users [get]
func (c *UserController) List(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	result, err := c.userService.List(ctx.Request.Context(), p, ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	renderList(ctx, result)
}

// Get godoc
// @Summary Get a user by ID
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /users/{id} [get]
func (c *UserController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	user, err := c.userService.Get(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(user))
}

// Create godoc
// @Summary Create a user
// @Description Create a user account of any role. Admin only.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateUserRequest true "User data"
// @Success 201 {object} dto.APIResponse{data=models.User}
// @Failure 403 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /users [post]
func (c *UserController) Create(ctx *gin.Context) {
	var req dto.CreateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	user, err := c.userService.Create(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(user))
}

// Update godoc
// @Summary Update a user
// @Description Update a user's profile. Users may update themselves; admins anyone.
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param request body dto.UpdateUserRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /users/{id} [put]
func (c *UserController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	user, err := c.userService.Update(ctx.Request.Context(), p, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(user))
}

// Delete godoc
// @Summary Delete a user
// @Description Delete a user account. Admin only.
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /users/{id} [delete]
func (c *UserController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	if err := c.userService.Delete(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OKMessage("User deleted successfully"))
}

// Children godoc
// @Summary List the caller's linked children
// @Description List the student accounts linked to the authenticated parent
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 403 {object} dto.APIResponse
// @Router /users/children [get]
func (c *UserController) Children(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	children, err := c.userService.Children(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(children))
}

// Teachers godoc
// @Summary List the caller's course teachers
// @Description List the teachers of the courses the authenticated student is enrolled in
// @Tags users
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} dto.APIResponse{data=[]models.User}
// @Failure 403 {object} dto.APIResponse
// @Router /users/teachers [get]
func (c *UserController) Teachers(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	teachers, err := c.userService.Teachers(ctx.Request.Context(), p)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(teachers))
}
