package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dyilmaz/schoolhub/internal/app/models/dto"
	"github.com/dyilmaz/schoolhub/internal/app/services"
	"github.com/dyilmaz/schoolhub/internal/middleware"
)

// CourseController handles the course catalog, rosters and materials.
type CourseController struct {
	courseService *services.CourseService
}

// NewCourseController creates a new CourseController
func NewCourseController(courseService *services.CourseService) *CourseController {
	return &CourseController{courseService: courseService}
}

// Create godoc
// @Summary Create a course
// @Description Create a course. Teachers self-assign; admins may assign any teacher.
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param request body dto.CreateCourseRequest true "Course data"
// @Success 201 {object} dto.APIResponse{data=models.Course}
// @Failure 403 {object} dto.APIResponse
// @Failure 409 {object} dto.APIResponse
// @Router /courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req dto.CreateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	course, err := c.courseService.Create(ctx.Request.Context(), p, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(course))
}

// Get godoc
// @Summary Get a course by ID
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /courses/{id} [get]
func (c *CourseController) Get(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	course, err := c.courseService.Get(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(course))
}

// List godoc
// @Summary List courses visible to the caller
// @Description Teachers see their own courses, students and parents the enrolled ones, admins everything.
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param gradeLevel query int false "Filter by grade level"
// @Param semester query string false "Filter by semester"
// @Param sort query string false "Sort expression"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} dto.APIResponse{data=[]models.Course}
// @Router /courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	p := middleware.Principal(ctx)

	result, err := c.courseService.List(ctx.Request.Context(), p, ctx.Request.URL.Query())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	renderList(ctx, result)
}

// Update godoc
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body dto.UpdateCourseRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateCourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	course, err := c.courseService.Update(ctx.Request.Context(), p, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(course))
}

// Delete godoc
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	if err := c.courseService.Delete(ctx.Request.Context(), p, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OKMessage("Course deleted successfully"))
}

// Enroll godoc
// @Summary Enroll students into a course
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body dto.EnrollmentChangeRequest true "Student IDs"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 403 {object} dto.APIResponse
// @Router /courses/{id}/enroll [post]
func (c *CourseController) Enroll(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.EnrollmentChangeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	course, err := c.courseService.Enroll(ctx.Request.Context(), p, id, req.Students)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(course))
}

// Unenroll godoc
// @Summary Remove students from a course
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body dto.EnrollmentChangeRequest true "Student IDs"
// @Success 200 {object} dto.APIResponse{data=models.Course}
// @Failure 403 {object} dto.APIResponse
// @Router /courses/{id}/unenroll [post]
func (c *CourseController) Unenroll(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.EnrollmentChangeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	course, err := c.courseService.Unenroll(ctx.Request.Context(), p, id, req.Students)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(course))
}

// ListMaterials godoc
// @Summary List a course's materials
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Success 200 {object} dto.APIResponse{data=[]models.CourseMaterial}
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /courses/{id}/materials [get]
func (c *CourseController) ListMaterials(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	materials, err := c.courseService.Materials(ctx.Request.Context(), p, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OK(materials))
}

// AddMaterial godoc
// @Summary Add a material link to a course
// @Tags courses
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param request body dto.MaterialRequest true "Material data"
// @Success 201 {object} dto.APIResponse{data=models.Course}
// @Failure 403 {object} dto.APIResponse
// @Router /courses/{id}/materials [post]
func (c *CourseController) AddMaterial(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.MaterialRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}
	p := middleware.Principal(ctx)

	course, err := c.courseService.AddMaterial(ctx.Request.Context(), p, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.OK(course))
}

// RemoveMaterial godoc
// @Summary Remove a material link from a course
// @Tags courses
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "Course ID"
// @Param materialId path int true "Material ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse
// @Failure 404 {object} dto.APIResponse
// @Router /courses/{id}/materials/{materialId} [delete]
func (c *CourseController) RemoveMaterial(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	materialID, ok := parseIDParam(ctx, "materialId")
	if !ok {
		return
	}
	p := middleware.Principal(ctx)

	if err := c.courseService.RemoveMaterial(ctx.Request.Context(), p, id, materialID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.OKMessage("Material removed successfully"))
}
