package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models"
	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/middleware"
)

// AssignmentController handles assignments, submissions and attachments.
type AssignmentController struct {
	assignmentService *services.AssignmentService
}

// NewAssignmentController creates a new AssignmentController
func NewAssignmentController(assignmentService *services.AssignmentService) *AssignmentController {
	return &AssignmentController{assignmentService: assignmentService}
}

// Create godoc
// @Summary Create an assignment in a course
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body dto.CreateAssignmentRequest true "Assignment data"
// @Success 201 {object} dto.APIResponse{data=models.Assignment}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /courses/{id}/assignments [post]
func (c *AssignmentController) Create(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.CreateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	assignment, err := c.assignmentService.Create(ctx.Request.Context(), p, courseID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(assignment))
}

// ListByCourse godoc
// @Summary List a course's assignments
// @Description Students and parents only see published assignments.
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param sort query string false "Sort expression"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.Assignment}
// @Router /courses/{id}/assignments [get]
func (c *AssignmentController) ListByCourse(ctx *gin.Context) {
	courseID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	result, err := c.assignmentService.List(ctx.Request.Context(), p, courseID, ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	renderList(ctx, result)
}

// Get godoc
// @Summary Get an assignment by ID
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /assignments/{id} [get]
func (c *AssignmentController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	assignment, err := c.assignmentService.Get(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(assignment))
}

// Update godoc
// @Summary Update an assignment
// @Tags assignments
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Param request body dto.UpdateAssignmentRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /assignments/{id} [put]
func (c *AssignmentController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateAssignmentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	assignment, err := c.assignmentService.Update(ctx.Request.Context(), p, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(assignment))
}

// Delete godoc
// @Summary Delete an assignment
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /assignments/{id} [delete]
func (c *AssignmentController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	if err := c.assignmentService.Delete(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OKMessage("Assignment deleted successfully"))
}

// Publish godoc
// @Summary Publish an assignment
// @Description Make an assignment visible to the roster and notify enrolled students.
// @Tags assignments
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Success 200 {object} dto.APIResponse{data=models.Assignment}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /assignments/{id}/publish [post]
func (c *AssignmentController) Publish(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	assignment, err := c.assignmentService.Publish(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(assignment))
}

// Submit godoc
// @Summary Submit work for an assignment
// @Description Submit or resubmit; a resubmission replaces the previous one.
// @Tags submissions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Param request body dto.SubmitRequest true "Submission content"
// @Success 201 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /assignments/{id}/submit [post]
func (c *AssignmentController) Submit(ctx *gin.Context) {
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	submission, err := c.assignmentService.Submit(ctx.Request.Context(), p, assignmentID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(submission))
}

// ListSubmissions godoc
// @Summary List an assignment's submissions
// @Description Teachers see the whole set; students only their own row.
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Param sort query string false "Sort expression"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.Submission}
// @Router /assignments/{id}/submissions [get]
func (c *AssignmentController) ListSubmissions(ctx *gin.Context) {
	assignmentID, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	result, err := c.assignmentService.ListSubmissions(ctx.Request.Context(), p, assignmentID, ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	renderList(ctx, result)
}

// GetSubmission godoc
// @Summary Get a submission by ID
// @Tags submissions
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Submission ID"
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /submissions/{id} [get]
func (c *AssignmentController) GetSubmission(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	submission, err := c.assignmentService.GetSubmission(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(submission))
}

// GradeSubmission godoc
// @Summary Grade a submission
// @Description Score a submission and optionally publish the resulting grade entry.
// @Tags submissions
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Submission ID"
// @Param request body dto.GradeSubmissionRequest true "Score and feedback"
// @Success 200 {object} dto.APIResponse{data=models.Submission}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /submissions/{id}/grade [post]
func (c *AssignmentController) GradeSubmission(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.GradeSubmissionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	submission, err := c.assignmentService.GradeSubmission(ctx.Request.Context(), p, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(submission))
}

// AttachToAssignment godoc
// @Summary Attach a file to an assignment
// @Tags assignments
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Assignment ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} dto.APIResponse{data=models.File}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /assignments/{id}/attachments [post]
func (c *AssignmentController) AttachToAssignment(ctx *gin.Context) {
	c.attach(ctx, models.ResourceAssignment)
}

// AttachToSubmission godoc
// @Summary Attach a file to a submission
// @Tags submissions
// @Accept multipart/form-data
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Submission ID"
// @Param file formData file true "File to upload"
// @Success 201 {object} dto.APIResponse{data=models.File}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /submissions/{id}/attachments [post]
func (c *AssignmentController) AttachToSubmission(ctx *gin.Context) {
	c.attach(ctx, models.ResourceSubmission)
}

func (c *AssignmentController) attach(ctx *gin.Context, resourceType models.ResourceType) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	header, err := ctx.FormFile("file")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.Fail("Invalid or missing file"))
		return
	}
	p := middleware.Principal(ctx)

	file, err := c.assignmentService.AttachFile(ctx.Request.Context(), p, resourceType, id, header)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(file))
}
