package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/middleware"
)

// GradeController handles the gradebook.
type GradeController struct {
	gradeService *services.GradeService
}

// NewGradeController creates a new GradeController
func NewGradeController(gradeService *services.GradeService) *GradeController {
	return &GradeController{gradeService: gradeService}
}

// Record godoc
// @Summary Record a grade entry
// @Description Recording the same student, course, assignment and type again updates in place. Publication never reverts.
// @Tags grades
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.RecordGradeRequest true "Grade data"
// @Success 201 {object} dto.APIResponse{data=models.Grade}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /grades [post]
func (c *GradeController) Record(ctx *gin.Context) {
	var req dto.RecordGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	grade, err := c.gradeService.Record(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(grade))
}

// BulkRecord godoc
// @Summary Record the same graded item for many students
// @Tags grades
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.BulkGradeRequest true "Bulk grade data"
// @Success 201 {object} dto.APIResponse{data=[]models.Grade}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /grades/bulk [post]
func (c *GradeController) BulkRecord(ctx *gin.Context) {
	var req dto.BulkGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	grades, err := c.gradeService.BulkRecord(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(grades))
}

// Get godoc
// @Summary Get a grade entry by ID
// @Description Students and parents can only see published entries.
// @Tags grades
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Grade ID"
// @Success 200 {object} dto.APIResponse{data=models.Grade}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /grades/{id} [get]
func (c *GradeController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	grade, err := c.gradeService.Get(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(grade))
}

// List godoc
// @Summary List grade entries visible to the caller
// @Description Students and parents only see published entries; teachers their courses' entries.
// @Tags grades
// @Produce json
// @Security ApiKeyAuth
// @Param type query string false "Filter by grade type"
// @Param courseId query int false "Filter by course"
// @Param sort query string false "Sort expression"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.Grade}
// @Router /grades [get]
func (c *GradeController) List(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	result, err := c.gradeService.List(ctx.Request.Context(), p, ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	renderList(ctx, result)
}

// Update godoc
// @Summary Update a grade entry
// @Description Percentage and letter grade are recomputed after the update.
// @Tags grades
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Grade ID"
// @Param request body dto.UpdateGradeRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=models.Grade}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /grades/{id} [put]
func (c *GradeController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateGradeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	grade, err := c.gradeService.Update(ctx.Request.Context(), p, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(grade))
}

// Publish godoc
// @Summary Publish a grade entry
// @Description Make a grade visible to the student and parents and notify them. Publishing is permanent.
// @Tags grades
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Grade ID"
// @Success 200 {object} dto.APIResponse{data=models.Grade}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /grades/{id}/publish [post]
func (c *GradeController) Publish(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	grade, err := c.gradeService.Publish(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(grade))
}

// Delete godoc
// @Summary Delete a grade entry
// @Tags grades
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Grade ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /grades/{id} [delete]
func (c *GradeController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	if err := c.gradeService.Delete(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OKMessage("Grade deleted successfully"))
}

// Summary godoc
// @Summary Summarize a student's standing in a course
// @Description Aggregate a student's grades by type with a weighted overall and letter grade. Students and parents only see published entries.
// @Tags grades
// @Produce json
// @Security ApiKeyAuth
// @Param studentId query int true "Student ID"
// @Param courseId query int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.GradeSummary}
// @Failure 403 {object} dto.APIResponse
// @Router /grades/summary [get]
func (c *GradeController) Summary(ctx *gin.Context) {
	studentID, ok := parseIDQuery(ctx, "studentId")
	if !ok {
		return
	}
	courseID, ok := parseIDQuery(ctx, "courseId")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	summary, err := c.gradeService.Summary(ctx.Request.Context(), p, studentID, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(summary))
}
