package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/middleware"
)

// EnrollmentController handles student enrollment requests.
type EnrollmentController struct {
	enrollmentService *services.EnrollmentService
}

// NewEnrollmentController creates a new EnrollmentController
func NewEnrollmentController(enrollmentService *services.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{enrollmentService: enrollmentService}
}

// Create godoc
// @Summary Request enrollment into a course
// @Description Students request to join a course; a rejected request may be re-filed.
// @Tags enrollment
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateEnrollmentRequest true "Enrollment request"
// @Success 201 {object} dto.APIResponse{data=models.EnrollmentRequest}
// @Failure 400 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /enrollment-requests [post]
func (c *EnrollmentController) Create(ctx *gin.Context) {
	var req dto.CreateEnrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	request, err := c.enrollmentService.Create(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(request))
}

// Get godoc
// @Summary Get an enrollment request by ID
// @Tags enrollment
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment request ID"
// @Success 200 {object} dto.APIResponse{data=models.EnrollmentRequest}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /enrollment-requests/{id} [get]
func (c *EnrollmentController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	request, err := c.enrollmentService.Get(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(request))
}

// List godoc
// @Summary List enrollment requests visible to the caller
// @Description Teachers see requests against their courses, students their own, admins everything.
// @Tags enrollment
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Filter by status"
// @Param courseId query int false "Filter by course"
// @Param sort query string false "Sort expression"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.EnrollmentRequest}
// @Router /enrollment-requests [get]
func (c *EnrollmentController) List(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	result, err := c.enrollmentService.List(ctx.Request.Context(), p, ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	renderList(ctx, result)
}

// Decide godoc
// @Summary Approve or reject an enrollment request
// @Description Approval enrolls the student and notifies them; only pending requests can be decided.
// @Tags enrollment
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment request ID"
// @Param request body dto.DecideEnrollmentRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.EnrollmentRequest}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /enrollment-requests/{id}/decide [post]
func (c *EnrollmentController) Decide(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.DecideEnrollmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	request, err := c.enrollmentService.Decide(ctx.Request.Context(), p, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(request))
}

// Cancel godoc
// @Summary Cancel a pending enrollment request
// @Description Students withdraw their own pending request.
// @Tags enrollment
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Enrollment request ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /enrollment-requests/{id} [delete]
func (c *EnrollmentController) Cancel(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	if err := c.enrollmentService.Cancel(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OKMessage("Enrollment request cancelled"))
}
