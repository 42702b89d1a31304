package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/middleware"
)

// AttendanceController handles daily attendance records.
type AttendanceController struct {
	attendanceService *services.AttendanceService
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService *services.AttendanceService) *AttendanceController {
	return &AttendanceController{attendanceService: attendanceService}
}

// Record godoc
// @Summary Record attendance for one student
// @Description Recording the same student, course and date again updates the record in place.
// @Tags attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.RecordAttendanceRequest true "Attendance data"
// @Success 201 {object} dto.APIResponse{data=models.Attendance}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /attendance [post]
func (c *AttendanceController) Record(ctx *gin.Context) {
	var req dto.RecordAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	record, err := c.attendanceService.Record(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(record))
}

// BulkRecord godoc
// @Summary Record attendance for a whole session
// @Description Record one date's attendance for many students of a course at once.
// @Tags attendance
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.BulkAttendanceRequest true "Session attendance"
// @Success 201 {object} dto.APIResponse{data=[]models.Attendance}
// @Failure 400 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Router /attendance/bulk [post]
func (c *AttendanceController) BulkRecord(ctx *gin.Context) {
	var req dto.BulkAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	records, err := c.attendanceService.BulkRecord(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(records))
}

// Get godoc
// @Summary Get an attendance record by ID
// @Tags attendance
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Attendance record ID"
// @Success 200 {object} dto.APIResponse{data=models.Attendance}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /attendance/{id} [get]
func (c *AttendanceController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	record, err := c.attendanceService.Get(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(record))
}

// List godoc
// @Summary List attendance records visible to the caller
// @Tags attendance
// @Produce json
// @Security ApiKeyAuth
// @Param status query string false "Filter by status"
// @Param courseId query int false "Filter by course"
// @Param sort query string false "Sort expression"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.Attendance}
// @Router /attendance [get]
func (c *AttendanceController) List(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	result, err := c.attendanceService.List(ctx.Request.Context(), p, ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	renderList(ctx, result)
}

// Delete godoc
// @Summary Delete an attendance record
// @Tags attendance
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Attendance record ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /attendance/{id} [delete]
func (c *AttendanceController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	if err := c.attendanceService.Delete(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OKMessage("Attendance record deleted successfully"))
}

// Stats godoc
// @Summary Summarize a student's attendance in a course
// @Tags attendance
// @Produce json
// @Security ApiKeyAuth
// @Param studentId query int true "Student ID"
// @Param courseId query int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=dto.AttendanceStats}
// @Failure 403 {object} dto.APIResponse
// @Router /attendance/stats [get]
func (c *AttendanceController) Stats(ctx *gin.Context) {
	studentID, ok := parseIDQuery(ctx, "studentId")
	if !ok {
		return
	}
	courseID, ok := parseIDQuery(ctx, "courseId")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	stats, err := c.attendanceService.Stats(ctx.Request.Context(), p, studentID, courseID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(stats))
}
